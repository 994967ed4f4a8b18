package schema

import (
	"bizdesk-service/internal/model"
)

type fieldKind int

const (
	kindString      fieldKind = iota // non-empty string
	kindText                         // string, may be empty
	kindNullString                   // string, blank or null clears it
	kindMoney                        // any money amount
	kindAmount                       // money >= 0
	kindPercent                      // money in 0..100
	kindID                           // positive integer reference
	kindCount                        // integer >= 0
	kindInt                          // any integer, ranged by rule
	kindDate                         // timestamp, not null
	kindNullDate                     // timestamp, null clears it
	kindBool
	kindOrderStatus
	kindDeliveryStatus
)

// patchField maps one JSON key of a partial update onto a column.
type patchField struct {
	key    string
	column string
	kind   fieldKind
	rule   string // validator tag applied to the coerced value
}

// decodePatch coerces every known key present in raw. Unknown keys are
// ignored; a known key with a bad value fails the whole patch.
func decodePatch(raw map[string]any, fields []patchField) (model.Patch, *reader) {
	r := newReader(raw)
	patch := model.Patch{}
	for _, f := range fields {
		v, present := raw[f.key]
		if !present {
			continue
		}
		val, ok := coerceField(r, f, v)
		if !ok {
			continue
		}
		if val != nil && f.rule != "" && !r.checkVar(f.key, val, f.rule) {
			continue
		}
		patch[f.column] = val
	}
	return patch, r
}

func coerceField(r *reader, f patchField, v any) (any, bool) {
	if v == nil {
		switch f.kind {
		case kindNullString, kindNullDate:
			return nil, true
		case kindText:
			return "", true
		}
		r.fail(f.key, MsgRequired)
		return nil, false
	}

	var (
		out any
		msg string
	)
	switch f.kind {
	case kindString:
		var s string
		s, msg = toString(v)
		if msg == "" && s == "" {
			msg = MsgRequired
		}
		out = s
	case kindText:
		out, msg = toString(v)
	case kindNullString:
		var s string
		s, msg = toString(v)
		if msg == "" && s == "" {
			return nil, true
		}
		out = s
	case kindMoney:
		out, msg = toMoney(v)
	case kindAmount:
		var m model.Money
		m, msg = toMoney(v)
		if msg == "" && m.IsNegative() {
			msg = MsgNonNegative
		}
		out = m
	case kindPercent:
		var m model.Money
		m, msg = toMoney(v)
		if msg == "" {
			msg = percentMessage(m)
		}
		out = m
	case kindID:
		out, msg = toID(v)
	case kindCount:
		var n int
		n, msg = toInt(v)
		if msg == "" && n < 0 {
			msg = MsgNonNegative
		}
		out = n
	case kindInt:
		out, msg = toInt(v)
	case kindDate, kindNullDate:
		out, msg = toTime(v)
	case kindBool:
		out, msg = toBool(v)
	case kindOrderStatus:
		s, _ := v.(string)
		st, err := model.ParseOrderStatus(s)
		if err != nil {
			msg = "must be one of: pending, completed, cancelled"
		}
		out = st
	case kindDeliveryStatus:
		s, _ := v.(string)
		st, err := model.ParseDeliveryStatus(s)
		if err != nil {
			msg = "must be one of: pending, in_transit, received, cancelled"
		}
		out = st
	}
	if msg != "" {
		r.fail(f.key, msg)
		return nil, false
	}
	return out, true
}
