package schema

import (
	"bizdesk-service/internal/model"
)

// ContactInsert validates a new customer or supplier. Aggregates are
// always zero on insert; clients cannot seed them.
func ContactInsert(raw map[string]any) (model.Contact, error) {
	r := newReader(raw)
	c := model.Contact{
		Name:      r.str("name", true),
		Type:      model.ContactType(r.str("type", true)),
		Email:     r.str("email", false),
		Phone:     r.str("phone", false),
		Address:   r.str("address", false),
		TaxNumber: r.str("taxNumber", false),
		Notes:     r.str("notes", false),
		Rating:    r.integer("rating", false, 0),
	}
	r.check(&c)
	return c, r.err()
}

var contactPatchFields = []patchField{
	{key: "name", column: "name", kind: kindString, rule: "max=255"},
	{key: "type", column: "type", kind: kindString, rule: "oneof=customer supplier"},
	{key: "email", column: "email", kind: kindText, rule: "omitempty,email,max=255"},
	{key: "phone", column: "phone", kind: kindText, rule: "max=50"},
	{key: "address", column: "address", kind: kindText},
	{key: "taxNumber", column: "tax_number", kind: kindText, rule: "max=50"},
	{key: "notes", column: "notes", kind: kindText},
	{key: "rating", column: "rating", kind: kindInt, rule: "gte=0,lte=5"},
}

// ContactPatch validates a partial contact update. totalOrders, totalSpent
// and lastOrderDate are maintained by order writes and silently ignored.
func ContactPatch(raw map[string]any) (model.Patch, error) {
	patch, r := decodePatch(raw, contactPatchFields)
	return patch, r.err()
}
