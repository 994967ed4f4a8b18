package schema

import (
	"sort"
	"strconv"

	"bizdesk-service/internal/model"
)

// DefaultUnit is used when a product omits its unit label.
const DefaultUnit = "pcs"

// ProductInsert validates a raw product and returns the insertable value.
func ProductInsert(raw map[string]any) (model.Product, error) {
	r := newReader(raw)
	p := readProduct(r)
	return p, r.err()
}

func readProduct(r *reader) model.Product {
	p := model.Product{
		Name:          r.str("name", true),
		SKU:           r.str("sku", true),
		Description:   r.str("description", false),
		Price:         r.amount("price", true),
		VatRateID:     r.id("vatRateId", true),
		StockLevel:    r.count("stockLevel", false, 0),
		MinStockLevel: r.count("minStockLevel", false, 0),
		Unit:          r.strOr("unit", DefaultUnit),
	}
	p.LowStock = p.IsLowStock()
	r.check(&p)
	return p
}

var productPatchFields = []patchField{
	{key: "name", column: "name", kind: kindString, rule: "max=255"},
	{key: "sku", column: "sku", kind: kindString, rule: "max=100"},
	{key: "description", column: "description", kind: kindText},
	{key: "price", column: "price", kind: kindAmount},
	{key: "vatRateId", column: "vat_rate_id", kind: kindID},
	{key: "stockLevel", column: "stock_level", kind: kindCount},
	{key: "minStockLevel", column: "min_stock_level", kind: kindCount},
	{key: "unit", column: "unit", kind: kindString, rule: "max=32"},
}

// ProductPatch validates a partial product update.
func ProductPatch(raw map[string]any) (model.Patch, error) {
	patch, r := decodePatch(raw, productPatchFields)
	return patch, r.err()
}

// ProductImport validates every row of an import request independently.
// Rows that fail are all reported, each with its array index.
func ProductImport(raw map[string]any) ([]model.Product, error) {
	rows, ok := raw["products"].([]any)
	if !ok {
		return nil, &ValidationError{Fields: []FieldError{{Field: "products", Message: "must be an array"}}}
	}
	if len(rows) == 0 {
		return nil, &ValidationError{Fields: []FieldError{{Field: "products", Message: "must not be empty"}}}
	}

	products := make([]model.Product, 0, len(rows))
	rowIndex := make([]int, 0, len(rows))
	importErr := &ImportError{}
	for i, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			importErr.Rows = append(importErr.Rows, RowError{Index: i, Fields: []FieldError{{Field: "", Message: MsgInvalidFormat}}})
			continue
		}
		p, err := ProductInsert(obj)
		if err != nil {
			importErr.Rows = append(importErr.Rows, RowError{Index: i, Fields: err.(*ValidationError).Fields})
			continue
		}
		products = append(products, p)
		rowIndex = append(rowIndex, i)
	}

	seen := make(map[string]int, len(products))
	for k, p := range products {
		if first, dup := seen[p.SKU]; dup {
			importErr.Rows = append(importErr.Rows, RowError{
				Index:  rowIndex[k],
				Fields: []FieldError{{Field: "sku", Message: "duplicates row " + strconv.Itoa(first)}},
			})
			continue
		}
		seen[p.SKU] = rowIndex[k]
	}

	if len(importErr.Rows) > 0 {
		sort.SliceStable(importErr.Rows, func(i, j int) bool { return importErr.Rows[i].Index < importErr.Rows[j].Index })
		return nil, importErr
	}
	return products, nil
}

// BatchUpdate is a validated PATCH /products/batch request.
type BatchUpdate struct {
	IDs   []uint
	Patch model.Patch
}

// ProductBatchUpdate validates {ids, updates}.
func ProductBatchUpdate(raw map[string]any) (BatchUpdate, error) {
	ids, errs := readIDs(raw)
	updates, ok := raw["updates"].(map[string]any)
	if !ok {
		errs.Add("updates", MsgRequired)
		return BatchUpdate{}, errs
	}
	patch, r := decodePatch(updates, productPatchFields)
	for _, f := range r.errs.Fields {
		errs.Add("updates."+f.Field, f.Message)
	}
	if errs.empty() && len(patch) == 0 {
		errs.Add("updates", "must contain at least one known field")
	}
	if patch.Has("sku") && len(ids) > 1 {
		errs.Add("updates.sku", "cannot be set on more than one product")
	}
	if err := errs.orNil(); err != nil {
		return BatchUpdate{}, err
	}
	return BatchUpdate{IDs: ids, Patch: patch}, nil
}

// IDList validates {ids} for batch deletes.
func IDList(raw map[string]any) ([]uint, error) {
	ids, errs := readIDs(raw)
	if err := errs.orNil(); err != nil {
		return nil, err
	}
	return ids, nil
}

// readIDs requires a non-empty array of positive integer ids. Duplicates
// are collapsed.
func readIDs(raw map[string]any) ([]uint, *ValidationError) {
	errs := &ValidationError{}
	arr, ok := raw["ids"].([]any)
	if !ok {
		errs.Add("ids", "must be an array")
		return nil, errs
	}
	if len(arr) == 0 {
		errs.Add("ids", "must not be empty")
		return nil, errs
	}
	ids := make([]uint, 0, len(arr))
	seen := make(map[uint]bool, len(arr))
	for i, v := range arr {
		id, msg := toID(v)
		if msg != "" {
			errs.Add(indexed("ids", i), msg)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, errs
}
