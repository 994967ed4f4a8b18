package schema

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"bizdesk-service/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		return periodPattern.MatchString(fl.Field().String())
	})
	return v
}

// periodPattern matches monthly (2024-03) and quarterly (2024-Q1) periods.
var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2]|Q[1-4])$`)

// reader pulls typed values out of an untyped JSON object, recording a
// FieldError for every missing or malformed field instead of stopping at
// the first one.
type reader struct {
	raw    map[string]any
	prefix string
	errs   *ValidationError
}

func newReader(raw map[string]any) *reader {
	return &reader{raw: raw, errs: &ValidationError{}}
}

func (r *reader) sub(raw map[string]any, prefix string) *reader {
	return &reader{raw: raw, prefix: prefix, errs: r.errs}
}

func (r *reader) fail(key, msg string) {
	r.errs.Add(r.prefix+key, msg)
}

// lookup returns the value for key; absent keys and JSON null are the same.
func (r *reader) lookup(key string, required bool) (any, bool) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		if required {
			r.fail(key, MsgRequired)
		}
		return nil, false
	}
	return v, true
}

func (r *reader) str(key string, required bool) string {
	v, ok := r.lookup(key, required)
	if !ok {
		return ""
	}
	s, msg := toString(v)
	if msg != "" {
		r.fail(key, msg)
		return ""
	}
	if required && s == "" {
		r.fail(key, MsgRequired)
	}
	return s
}

func (r *reader) strOr(key, def string) string {
	if s := r.str(key, false); s != "" {
		return s
	}
	return def
}

// optionalStr returns nil for absent or blank values.
func (r *reader) optionalStr(key string) *string {
	s := r.str(key, false)
	if s == "" {
		return nil
	}
	return &s
}

func (r *reader) money(key string, required bool) model.Money {
	v, ok := r.lookup(key, required)
	if !ok {
		return model.Money{}
	}
	m, msg := toMoney(v)
	if msg != "" {
		r.fail(key, msg)
	}
	return m
}

// amount is a money field that may not be negative.
func (r *reader) amount(key string, required bool) model.Money {
	m := r.money(key, required)
	if m.IsNegative() {
		r.fail(key, MsgNonNegative)
	}
	return m
}

func (r *reader) integer(key string, required bool, def int) int {
	v, ok := r.lookup(key, required)
	if !ok {
		return def
	}
	n, msg := toInt(v)
	if msg != "" {
		r.fail(key, msg)
		return def
	}
	return n
}

// count is a non-negative integer.
func (r *reader) count(key string, required bool, def int) int {
	n := r.integer(key, required, def)
	if n < 0 {
		r.fail(key, MsgNonNegative)
	}
	return n
}

func (r *reader) id(key string, required bool) uint {
	v, ok := r.lookup(key, required)
	if !ok {
		return 0
	}
	n, msg := toID(v)
	if msg != "" {
		r.fail(key, msg)
	}
	return n
}

func (r *reader) date(key string, required bool) (time.Time, bool) {
	v, ok := r.lookup(key, required)
	if !ok {
		return time.Time{}, false
	}
	t, msg := toTime(v)
	if msg != "" {
		r.fail(key, msg)
		return time.Time{}, false
	}
	return t, true
}

func (r *reader) dateOr(key string, def time.Time) time.Time {
	if t, ok := r.date(key, false); ok {
		return t
	}
	return def
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.lookup(key, false)
	if !ok {
		return def
	}
	b, msg := toBool(v)
	if msg != "" {
		r.fail(key, msg)
		return def
	}
	return b
}

// list returns the elements of an array field as objects, flagging
// elements that are not objects.
func (r *reader) list(key string) ([]map[string]any, bool) {
	v, ok := r.lookup(key, false)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		r.fail(key, MsgInvalidFormat)
		return nil, false
	}
	out := make([]map[string]any, len(arr))
	for i, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			r.fail(indexed(key, i), MsgInvalidFormat)
			continue
		}
		out[i] = obj
	}
	return out, true
}

// check runs the struct-level validate tags of v.
func (r *reader) check(v any) {
	addValidatorErrors(r.errs, r.prefix, validate.Struct(v))
}

// checkVar validates a single value against a validate tag.
func (r *reader) checkVar(key string, val any, rule string) bool {
	err := validate.Var(val, rule)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		r.fail(key, ruleMessage(verrs[0].Tag(), verrs[0].Param(), verrs[0].Kind()))
	} else {
		r.fail(key, MsgInvalidFormat)
	}
	return false
}

func (r *reader) err() error {
	return r.errs.orNil()
}

func addValidatorErrors(errs *ValidationError, prefix string, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(strings.TrimSuffix(prefix, "."), MsgInvalidFormat)
		return
	}
	for _, fe := range verrs {
		errs.Add(prefix+fe.Field(), ruleMessage(fe.Tag(), fe.Param(), fe.Kind()))
	}
}

func ruleMessage(tag, param string, kind reflect.Kind) string {
	switch tag {
	case "required":
		return MsgRequired
	case "email":
		return MsgInvalidFormat
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "min":
		if kind == reflect.String {
			return "must be at least " + param + " characters"
		}
		return "must be >= " + param
	case "max":
		if kind == reflect.String {
			return "must be at most " + param + " characters"
		}
		return "must be <= " + param
	case "gte":
		return "must be >= " + param
	case "lte":
		return "must be <= " + param
	case "period":
		return "must look like YYYY-MM or YYYY-Qn"
	}
	return MsgInvalidFormat
}

func indexed(key string, i int) string {
	return key + "[" + strconv.Itoa(i) + "]"
}
