package mapping

import (
	"github.com/casaledger/casa-ledger/internal/domain/import/matcher"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

// ColumnNone is the sentinel passed to SelectField to unbind a field.
const ColumnNone = ""

// SelectField binds field to column, or removes the binding entirely when
// column is ColumnNone. The input mapping is not mutated.
func SelectField(m Mapping, field matcher.Field, column string) Mapping {
	out := m.Clone()
	if column == ColumnNone {
		delete(out.Fields, field)
		return out
	}
	out.Fields[field] = column
	return out
}

// ToggleCategoryColumn adds or removes a wide-format category column. On
// inclusion, a column with no existing binding is fuzzy-matched against the
// catalog (same threshold as auto-mapping) and pre-filled when close enough.
// On exclusion, any binding for the column is dropped. Standard mappings are
// returned unchanged.
func ToggleCategoryColumn(m Mapping, column string, included bool, catalog *refdata.Catalog) Mapping {
	if m.Kind != KindWideFormat {
		return m.Clone()
	}
	out := m.Clone()

	if !included {
		cols := out.CategoryColumns[:0]
		for _, c := range out.CategoryColumns {
			if c != column {
				cols = append(cols, c)
			}
		}
		out.CategoryColumns = cols
		delete(out.CategoryBindings, column)
		return out
	}

	if out.HasCategoryColumn(column) {
		return out
	}
	out.CategoryColumns = append(out.CategoryColumns, column)
	if out.CategoryBindings == nil {
		out.CategoryBindings = make(map[string]string)
	}

	if _, bound := out.CategoryBindings[column]; !bound {
		names := catalog.CategoryNames()
		if idx, dist := matcher.ClosestName(column, names); idx >= 0 && dist <= matcher.CategoryThreshold {
			if cat, ok := catalog.CategoryByName(names[idx]); ok {
				out.CategoryBindings[column] = cat.ID
			}
		}
	}
	return out
}

// SetCategoryBinding rebinds a category column directly, bypassing fuzzy
// matching. An empty categoryID clears the binding so the column header is
// used literally. Standard mappings are returned unchanged.
func SetCategoryBinding(m Mapping, column, categoryID string) Mapping {
	if m.Kind != KindWideFormat {
		return m.Clone()
	}
	out := m.Clone()
	if categoryID == "" {
		delete(out.CategoryBindings, column)
		return out
	}
	if out.CategoryBindings == nil {
		out.CategoryBindings = make(map[string]string)
	}
	out.CategoryBindings[column] = categoryID
	return out
}
