package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bizdesk-service/internal/model"
)

// now is swapped in tests.
var now = time.Now

// Numeric limits follow the storage columns. Integers stay in int32 so
// stock arithmetic cannot overflow a BIGINT; ids fill BIGSERIAL; money
// fits numeric(12,2).
const (
	maxInt      = math.MaxInt32
	minInt      = math.MinInt32
	maxID       = math.MaxInt64
	maxExponent = 64
)

var (
	maxIntDec   = decimal.NewFromInt(maxInt)
	minIntDec   = decimal.NewFromInt(minInt)
	maxIDDec    = decimal.NewFromInt(maxID)
	moneyLimit  = decimal.New(1, 10)
	msgMaxInt   = "must be <= " + strconv.Itoa(maxInt)
	msgMinInt   = "must be >= " + strconv.Itoa(minInt)
	msgMaxID    = "must be <= " + strconv.FormatInt(maxID, 10)
	msgMaxMoney = "must be less than " + moneyLimit.String() + " in absolute value"
)

// toDecimal accepts JSON numbers (json.Number or float64), Go integers and
// numeric strings. Exponents far outside any column are rejected before
// arithmetic touches them.
func toDecimal(v any) (decimal.Decimal, string) {
	var (
		d   decimal.Decimal
		err error
	)
	switch n := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(n.String())
	case float64:
		d = decimal.NewFromFloat(n)
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	case uint:
		if uint64(n) > math.MaxInt64 {
			return decimal.Decimal{}, msgMaxID
		}
		d = decimal.NewFromInt(int64(n))
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(n))
	default:
		return decimal.Decimal{}, MsgInvalidNumber
	}
	if err != nil {
		return decimal.Decimal{}, MsgInvalidNumber
	}
	if !d.IsZero() && (d.Exponent() > maxExponent || d.Exponent() < -maxExponent) {
		return decimal.Decimal{}, MsgOutOfRange
	}
	return d, ""
}

func toMoney(v any) (model.Money, string) {
	d, msg := toDecimal(v)
	if msg != "" {
		return model.Money{}, msg
	}
	m := model.NewMoney(d)
	if msg := moneyRange(m); msg != "" {
		return model.Money{}, msg
	}
	return m, ""
}

// moneyRange reports a message when m does not fit numeric(12,2).
func moneyRange(m model.Money) string {
	if m.Abs().GreaterThanOrEqual(moneyLimit) {
		return msgMaxMoney
	}
	return ""
}

// toWhole returns v as an integral decimal.
func toWhole(v any) (decimal.Decimal, string) {
	d, msg := toDecimal(v)
	if msg != "" {
		return decimal.Decimal{}, msg
	}
	if !d.IsInteger() {
		return decimal.Decimal{}, MsgInvalidInteger
	}
	return d, ""
}

func toInt(v any) (int, string) {
	d, msg := toWhole(v)
	if msg != "" {
		return 0, msg
	}
	switch {
	case d.GreaterThan(maxIntDec):
		return 0, msgMaxInt
	case d.LessThan(minIntDec):
		return 0, msgMinInt
	}
	return int(d.IntPart()), ""
}

func toID(v any) (uint, string) {
	d, msg := toWhole(v)
	if msg != "" {
		return 0, msg
	}
	switch {
	case d.Sign() <= 0:
		return 0, MsgPositive
	case d.GreaterThan(maxIDDec):
		return 0, msgMaxID
	}
	return uint(d.IntPart()), ""
}

func toString(v any) (string, string) {
	s, ok := v.(string)
	if !ok {
		return "", MsgInvalidFormat
	}
	return strings.TrimSpace(s), ""
}

func toBool(v any) (bool, string) {
	b, ok := v.(bool)
	if !ok {
		return false, MsgInvalidFormat
	}
	return b, ""
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// toTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC).
func toTime(v any) (time.Time, string) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, MsgInvalidFormat
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), ""
		}
	}
	return time.Time{}, MsgInvalidFormat
}
