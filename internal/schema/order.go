package schema

import (
	"strings"

	"gorm.io/datatypes"

	"bizdesk-service/internal/model"
)

const msgTotalsMismatch = "does not match"

// OrderInsert validates an order, its items and its totals. Totals left out
// of an order with items are derived from the items.
func OrderInsert(raw map[string]any) (model.Order, error) {
	r := newReader(raw)
	o := model.Order{
		ContactID:     r.id("contactId", true),
		OrderDate:     r.dateOr("orderDate", now().UTC()),
		Status:        orderStatus(r, model.OrderPending),
		InvoiceNumber: r.optionalStr("invoiceNumber"),
		Notes:         r.str("notes", false),
	}
	items, _ := readOrderItems(r)
	o.Items = datatypes.JSONSlice[model.OrderItem](items)

	derive := len(items) > 0
	net, vat := itemTotals(items)
	o.NetTotal = totalOr(r, "netTotal", net, derive)
	o.VatTotal = totalOr(r, "vatTotal", vat, derive)
	o.GrossTotal = totalOr(r, "grossTotal", o.NetTotal.Add(o.VatTotal), derive)

	checkTotals(r, items, o.NetTotal, o.VatTotal, o.GrossTotal)
	if o.InvoiceNumber != nil {
		r.checkVar("invoiceNumber", *o.InvoiceNumber, "max=64")
	}
	r.check(&o)
	return o, r.err()
}

func totalOr(r *reader, key string, def model.Money, derive bool) model.Money {
	if derive {
		if _, ok := r.lookup(key, false); !ok {
			return def
		}
	}
	return r.amount(key, true)
}

func orderStatus(r *reader, def model.OrderStatus) model.OrderStatus {
	s := r.str("status", false)
	if s == "" {
		return def
	}
	st, err := model.ParseOrderStatus(s)
	if err != nil {
		r.fail("status", "must be one of: pending, completed, cancelled")
		return def
	}
	return st
}

// readOrderItems validates every element of items. The second result is
// false when the key is absent.
func readOrderItems(r *reader) ([]model.OrderItem, bool) {
	rows, ok := r.list("items")
	if !ok {
		return nil, false
	}
	items := make([]model.OrderItem, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		ir := r.sub(row, indexed("items", i)+".")
		item := model.OrderItem{
			ProductID: ir.id("productId", true),
			Quantity:  ir.integer("quantity", true, 0),
			Price:     ir.amount("price", true),
			VatRate:   ir.money("vatRate", true),
			VatAmount: ir.amount("vatAmount", true),
		}
		if !ir.errs.Has(ir.prefix+"quantity") && item.Quantity <= 0 {
			ir.fail("quantity", MsgPositive)
		}
		if !ir.errs.Has(ir.prefix+"vatRate") {
			if msg := percentMessage(item.VatRate); msg != "" {
				ir.fail("vatRate", msg)
			}
		}
		items = append(items, item)
	}
	return items, true
}

func itemTotals(items []model.OrderItem) (net, vat model.Money) {
	for _, it := range items {
		net = net.Add(it.Net())
		vat = vat.Add(it.VatAmount)
	}
	return net, vat
}

// checkTotals enforces gross = net + vat and, with items, that net and vat
// are the item sums. Fields that already failed are not re-reported.
func checkTotals(r *reader, items []model.OrderItem, net, vat, gross model.Money) {
	failed := func(key string) bool { return r.errs.Has(r.prefix + key) }
	if failed("netTotal") || failed("vatTotal") || failed("grossTotal") || failed("items") {
		return
	}
	// derived totals can outgrow the column even when every item fits
	outOfRange := false
	for i, m := range []model.Money{net, vat, gross} {
		if msg := moneyRange(m); msg != "" {
			r.fail(totalKeys[i], msg)
			outOfRange = true
		}
	}
	if outOfRange {
		return
	}
	if !gross.Equal(net.Add(vat)) {
		r.fail("grossTotal", msgTotalsMismatch+" netTotal + vatTotal")
	}
	if len(items) == 0 {
		return
	}
	for i := range items {
		if failedItem(r, i) {
			return
		}
	}
	sumNet, sumVat := itemTotals(items)
	if !net.Equal(sumNet) {
		r.fail("netTotal", msgTotalsMismatch+" the sum of items")
	}
	if !vat.Equal(sumVat) {
		r.fail("vatTotal", msgTotalsMismatch+" the sum of items")
	}
}

func failedItem(r *reader, i int) bool {
	prefix := r.prefix + indexed("items", i)
	for _, f := range r.errs.Fields {
		if f.Field == prefix || strings.HasPrefix(f.Field, prefix+".") {
			return true
		}
	}
	return false
}

var orderPatchFields = []patchField{
	{key: "contactId", column: "contact_id", kind: kindID},
	{key: "orderDate", column: "order_date", kind: kindDate},
	{key: "status", column: "status", kind: kindOrderStatus},
	{key: "netTotal", column: "net_total", kind: kindAmount},
	{key: "vatTotal", column: "vat_total", kind: kindAmount},
	{key: "grossTotal", column: "gross_total", kind: kindAmount},
	{key: "invoiceNumber", column: "invoice_number", kind: kindNullString, rule: "omitempty,max=64"},
	{key: "notes", column: "notes", kind: kindText},
}

var totalKeys = []string{"netTotal", "vatTotal", "grossTotal"}

// OrderPatch validates a partial order update. A patch touching the items
// or any total must carry all three totals so the stored row stays
// consistent.
func OrderPatch(raw map[string]any) (model.Patch, error) {
	patch, r := decodePatch(raw, orderPatchFields)

	items, hasItems := readOrderItems(r)
	if hasItems {
		patch["items"] = datatypes.JSONSlice[model.OrderItem](items)
	}

	touches := hasItems
	for _, k := range totalKeys {
		if _, ok := raw[k]; ok {
			touches = true
		}
	}
	if touches {
		for _, k := range totalKeys {
			if _, ok := raw[k]; !ok || raw[k] == nil {
				r.fail(k, MsgRequired)
			}
		}
		net, _ := patch["net_total"].(model.Money)
		vat, _ := patch["vat_total"].(model.Money)
		gross, _ := patch["gross_total"].(model.Money)
		checkTotals(r, items, net, vat, gross)
	}
	return patch, r.err()
}

// DeliveryInsert validates an inbound delivery and its items.
func DeliveryInsert(raw map[string]any) (model.Delivery, error) {
	r := newReader(raw)
	d := model.Delivery{
		SupplierID: r.id("supplierId", true),
		Status:     deliveryStatus(r, model.DeliveryPending),
		Notes:      r.str("notes", false),
	}
	d.ExpectedDate, _ = r.date("expectedDate", true)
	items, _ := readDeliveryItems(r)
	d.Items = datatypes.JSONSlice[model.DeliveryItem](items)
	r.check(&d)
	return d, r.err()
}

func deliveryStatus(r *reader, def model.DeliveryStatus) model.DeliveryStatus {
	s := r.str("status", false)
	if s == "" {
		return def
	}
	st, err := model.ParseDeliveryStatus(s)
	if err != nil {
		r.fail("status", "must be one of: pending, in_transit, received, cancelled")
		return def
	}
	return st
}

func readDeliveryItems(r *reader) ([]model.DeliveryItem, bool) {
	rows, ok := r.list("items")
	if !ok {
		return nil, false
	}
	items := make([]model.DeliveryItem, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		ir := r.sub(row, indexed("items", i)+".")
		item := model.DeliveryItem{
			ProductID: ir.id("productId", true),
			Quantity:  ir.integer("quantity", true, 0),
			Price:     ir.amount("price", true),
		}
		if !ir.errs.Has(ir.prefix+"quantity") && item.Quantity <= 0 {
			ir.fail("quantity", MsgPositive)
		}
		items = append(items, item)
	}
	return items, true
}

var deliveryPatchFields = []patchField{
	{key: "supplierId", column: "supplier_id", kind: kindID},
	{key: "expectedDate", column: "expected_date", kind: kindDate},
	{key: "status", column: "status", kind: kindDeliveryStatus},
	{key: "notes", column: "notes", kind: kindText},
}

// DeliveryPatch validates a partial delivery update. Whether the status
// change is allowed depends on the stored state and is decided by storage.
func DeliveryPatch(raw map[string]any) (model.Patch, error) {
	patch, r := decodePatch(raw, deliveryPatchFields)
	if items, ok := readDeliveryItems(r); ok {
		patch["items"] = datatypes.JSONSlice[model.DeliveryItem](items)
	}
	return patch, r.err()
}
