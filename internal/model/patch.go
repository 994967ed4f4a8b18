package model

// Patch is a validated partial update keyed by column name.
type Patch map[string]any

// Has reports whether the patch touches column.
func (p Patch) Has(column string) bool {
	_, ok := p[column]
	return ok
}
