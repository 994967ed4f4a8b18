package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fraction digits every Money value carries.
const MoneyScale = 2

// Money is a decimal amount rendered as a fixed two-digit string ("10.00")
// in JSON and stored in a numeric column.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d, rounding it to MoneyScale.
func NewMoney(d decimal.Decimal) Money {
	return Money{d.Round(MoneyScale)}
}

// ParseMoney parses a numeric string such as "12.5" or "-3".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(d), nil
}

// MustMoney is ParseMoney for literals; it panics on malformed input.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) String() string {
	return m.Decimal.StringFixed(MoneyScale)
}

func (m Money) Add(o Money) Money { return NewMoney(m.Decimal.Add(o.Decimal)) }

func (m Money) Mul(n int64) Money { return NewMoney(m.Decimal.Mul(decimal.NewFromInt(n))) }

func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*m = NewMoney(d)
	return nil
}

// Value stores the fixed-scale string so numeric columns keep both digits.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan accepts whatever the driver hands back for a numeric column:
// postgres returns text, sqlite may return int64 or float64.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	switch v := src.(type) {
	case nil:
		d = decimal.Zero
	case int64:
		d = decimal.NewFromInt(v)
	case float64:
		d = decimal.NewFromFloat(v)
	case []byte:
		parsed, err := decimal.NewFromString(string(v))
		if err != nil {
			return err
		}
		d = parsed
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return err
		}
		d = parsed
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	*m = NewMoney(d)
	return nil
}

// SumMoney adds up a list of amounts.
func SumMoney(values ...Money) Money {
	total := Money{}
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
