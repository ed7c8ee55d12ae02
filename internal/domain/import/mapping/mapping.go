// Package mapping models the column-to-field mapping for an import session:
// the Mapping sum type, the auto-mapper that proposes an initial mapping from
// CSV headers, and the pure editor operations the UI applies on top.
package mapping

import (
	"errors"

	"github.com/casaledger/casa-ledger/internal/domain/import/matcher"
)

// Layout is the user-chosen document style of the uploaded file.
type Layout string

const (
	LayoutStandard             Layout = "standard"
	LayoutStandardWithCategory Layout = "standard-with-category"
	LayoutWideFormat           Layout = "wide-format"
)

// Kind discriminates the two Mapping variants. Every consumer switches on
// Kind; nothing infers the variant from which fields happen to be set.
type Kind string

const (
	KindStandard   Kind = "standard"
	KindWideFormat Kind = "wide-format"
)

// KindForLayout returns the mapping variant a layout produces.
func KindForLayout(layout Layout) Kind {
	if layout == LayoutWideFormat {
		return KindWideFormat
	}
	return KindStandard
}

// Mapping binds CSV column headers to canonical expense fields.
//
// Standard variant: Fields may bind any of the standard fields.
// WideFormat variant: Fields binds the basic fields; CategoryColumns lists
// the amount-bearing columns in selection order, and CategoryBindings maps a
// category column to a canonical category id. A column absent from
// CategoryBindings uses its header text literally as the category name.
//
// An absent Fields key means the field is unbound; editor operations never
// store an empty-string placeholder.
type Mapping struct {
	Kind             Kind
	Fields           map[matcher.Field]string
	CategoryColumns  []string
	CategoryBindings map[string]string
}

// New returns an empty mapping of the given kind.
func New(kind Kind) Mapping {
	m := Mapping{
		Kind:   kind,
		Fields: make(map[matcher.Field]string),
	}
	if kind == KindWideFormat {
		m.CategoryBindings = make(map[string]string)
	}
	return m
}

// Clone returns a deep copy. Editor operations clone first so callers keep
// referentially transparent values.
func (m Mapping) Clone() Mapping {
	out := Mapping{Kind: m.Kind}
	out.Fields = make(map[matcher.Field]string, len(m.Fields))
	for f, col := range m.Fields {
		out.Fields[f] = col
	}
	if m.CategoryColumns != nil {
		out.CategoryColumns = append([]string(nil), m.CategoryColumns...)
	}
	if m.CategoryBindings != nil {
		out.CategoryBindings = make(map[string]string, len(m.CategoryBindings))
		for col, id := range m.CategoryBindings {
			out.CategoryBindings[col] = id
		}
	}
	return out
}

// Column returns the bound column for a field, if any.
func (m Mapping) Column(f matcher.Field) (string, bool) {
	col, ok := m.Fields[f]
	return col, ok
}

// HasCategoryColumn reports whether column is currently a category column.
func (m Mapping) HasCategoryColumn(column string) bool {
	for _, c := range m.CategoryColumns {
		if c == column {
			return true
		}
	}
	return false
}

// Validation errors returned by Validate. These gate the Map -> Preview
// transition; they are user-correctable, not fatal.
var (
	ErrAmountUnmapped      = errors.New("amount column is not mapped")
	ErrDescriptionUnmapped = errors.New("description column is not mapped")
	ErrNoCategoryColumns   = errors.New("no category columns selected")
)

// Validate checks the per-variant required bindings: a standard mapping
// needs amount and description, a wide-format mapping needs description and
// at least one category column.
func (m Mapping) Validate() error {
	switch m.Kind {
	case KindWideFormat:
		if _, ok := m.Fields[matcher.FieldDescription]; !ok {
			return ErrDescriptionUnmapped
		}
		if len(m.CategoryColumns) == 0 {
			return ErrNoCategoryColumns
		}
		return nil
	default:
		if _, ok := m.Fields[matcher.FieldAmount]; !ok {
			return ErrAmountUnmapped
		}
		if _, ok := m.Fields[matcher.FieldDescription]; !ok {
			return ErrDescriptionUnmapped
		}
		return nil
	}
}
