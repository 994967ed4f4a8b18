package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"bizdesk-service/internal/model"
)

var hundred = decimal.NewFromInt(100)

func percentMessage(m model.Money) string {
	switch {
	case m.IsNegative():
		return MsgNonNegative
	case m.GreaterThan(hundred):
		return "must be <= 100"
	}
	return ""
}

// VatRateInsert validates a VAT rate and its validity window.
func VatRateInsert(raw map[string]any) (model.VatRate, error) {
	r := newReader(raw)
	v := model.VatRate{
		Name:        r.str("name", true),
		Rate:        r.money("rate", true),
		Description: r.str("description", false),
	}
	if !r.errs.Has("rate") {
		if msg := percentMessage(v.Rate); msg != "" {
			r.fail("rate", msg)
		}
	}
	from, hasFrom := r.date("validFrom", true)
	v.ValidFrom = from
	if to, ok := r.date("validTo", false); ok {
		v.ValidTo = &to
		if hasFrom && to.Before(from) {
			r.fail("validTo", "must not be before validFrom")
		}
	}
	r.check(&v)
	return v, r.err()
}

var vatRatePatchFields = []patchField{
	{key: "name", column: "name", kind: kindString, rule: "max=100"},
	{key: "rate", column: "rate", kind: kindPercent},
	{key: "description", column: "description", kind: kindText},
	{key: "validFrom", column: "valid_from", kind: kindDate},
	{key: "validTo", column: "valid_to", kind: kindNullDate},
}

// VatRatePatch validates a partial VAT rate update. The window ordering is
// checked when both ends are part of the patch.
func VatRatePatch(raw map[string]any) (model.Patch, error) {
	patch, r := decodePatch(raw, vatRatePatchFields)
	from, okFrom := patch["valid_from"].(time.Time)
	to, okTo := patch["valid_to"].(time.Time)
	if okFrom && okTo && to.Before(from) {
		r.fail("validTo", "must not be before validFrom")
	}
	return patch, r.err()
}

// VatTransactionInsert validates a VAT transaction. The transaction date
// defaults to now and the reporting period to its month.
func VatTransactionInsert(raw map[string]any) (model.VatTransaction, error) {
	r := newReader(raw)
	tx := model.VatTransaction{
		OrderID:         r.id("orderId", true),
		TransactionDate: r.dateOr("transactionDate", now().UTC()),
		VatRateID:       r.id("vatRateId", true),
		NetAmount:       r.money("netAmount", true),
		VatAmount:       r.money("vatAmount", true),
		Reported:        r.boolean("reported", false),
	}
	tx.ReportingPeriod = r.strOr("reportingPeriod", model.PeriodOf(tx.TransactionDate))
	r.checkVar("reportingPeriod", tx.ReportingPeriod, "period")
	r.check(&tx)
	return tx, r.err()
}

var vatTransactionPatchFields = []patchField{
	{key: "orderId", column: "order_id", kind: kindID},
	{key: "transactionDate", column: "transaction_date", kind: kindDate},
	{key: "vatRateId", column: "vat_rate_id", kind: kindID},
	{key: "netAmount", column: "net_amount", kind: kindMoney},
	{key: "vatAmount", column: "vat_amount", kind: kindMoney},
	{key: "reportingPeriod", column: "reporting_period", kind: kindString, rule: "period"},
	{key: "reported", column: "reported", kind: kindBool},
}

// VatTransactionPatch validates a partial VAT transaction update.
func VatTransactionPatch(raw map[string]any) (model.Patch, error) {
	patch, r := decodePatch(raw, vatTransactionPatchFields)
	return patch, r.err()
}

// Period validates a reporting period given outside a JSON body, such as
// a query parameter.
func Period(field, value string) error {
	r := newReader(nil)
	if value == "" {
		r.fail(field, MsgRequired)
	} else {
		r.checkVar(field, value, "period")
	}
	return r.err()
}

// ReportRequest validates the body of a "mark period reported" request.
func ReportRequest(raw map[string]any) (string, error) {
	r := newReader(raw)
	period := r.str("period", true)
	if period != "" {
		r.checkVar("period", period, "period")
	}
	return period, r.err()
}

// Date validates a date given outside a JSON body. An empty value yields
// def.
func Date(field, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, msg := toTime(value)
	if msg != "" {
		r := newReader(nil)
		r.fail(field, msg)
		return time.Time{}, r.err()
	}
	return t, nil
}

// OptionalBool parses a true/false query parameter; empty means unset.
func OptionalBool(field, value string) (*bool, error) {
	switch value {
	case "":
		return nil, nil
	case "true", "1":
		b := true
		return &b, nil
	case "false", "0":
		b := false
		return &b, nil
	}
	r := newReader(nil)
	r.fail(field, MsgInvalidFormat)
	return nil, r.err()
}
