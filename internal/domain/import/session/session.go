// Package session drives one import through its Upload -> Map -> Preview
// steps. A session holds the whole transient import state; starting a new
// upload simply overwrites whatever was in progress, and a successful save
// resets back to Upload.
package session

import (
	"errors"
	"time"

	"github.com/casaledger/casa-ledger/internal/domain/import/mapping"
	"github.com/casaledger/casa-ledger/internal/domain/import/matcher"
	"github.com/casaledger/casa-ledger/internal/domain/import/parser"
	"github.com/casaledger/casa-ledger/internal/domain/import/transform"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

// Step is the session's current position in the import flow.
type Step string

const (
	StepUpload  Step = "upload"
	StepMap     Step = "map"
	StepPreview Step = "preview"
)

var (
	ErrNoDocument  = errors.New("no document uploaded")
	ErrWrongStep   = errors.New("operation not valid in current step")
	ErrNoLayout    = errors.New("no layout selected")
	ErrNotWideForm = errors.New("operation only valid for wide-format mappings")
)

// Session holds one import's transient state. It is not safe for
// concurrent use; the owning service serializes access.
type Session struct {
	catalog *refdata.Catalog

	step     Step
	layout   mapping.Layout
	doc      *parser.Document
	mapping  mapping.Mapping
	defaults transform.Defaults
	result   *transform.Result
}

// New returns a fresh session in the Upload step with the default month
// and year set from now.
func New(catalog *refdata.Catalog) *Session {
	now := time.Now()
	return &Session{
		catalog:  catalog,
		step:     StepUpload,
		defaults: transform.Defaults{Month: now.Month(), Year: now.Year()},
	}
}

// Step reports the current step.
func (s *Session) Step() Step { return s.step }

// Layout reports the chosen document layout.
func (s *Session) Layout() mapping.Layout { return s.layout }

// Document returns the parsed upload, if any.
func (s *Session) Document() *parser.Document { return s.doc }

// Mapping returns the current (possibly user-corrected) mapping.
func (s *Session) Mapping() mapping.Mapping { return s.mapping }

// Defaults returns the fallback month/year for rows without dates.
func (s *Session) Defaults() transform.Defaults { return s.defaults }

// Result returns the transformed preview, valid only in the Preview step.
func (s *Session) Result() *transform.Result { return s.result }

// SetLayout records the document style. Chosen before upload; changing it
// mid-session discards any mapping built for the old layout.
func (s *Session) SetLayout(layout mapping.Layout) {
	if s.layout == layout {
		return
	}
	s.layout = layout
	if s.doc != nil {
		s.mapping = mapping.AutoMap(s.doc.Headers, layout, s.catalog)
	}
}

// SetDefaults overrides the fallback month/year.
func (s *Session) SetDefaults(d transform.Defaults) { s.defaults = d }

// Load accepts a successfully parsed document, auto-maps its headers and
// advances to the Map step. Any prior in-progress import is overwritten.
func (s *Session) Load(doc *parser.Document) error {
	if s.layout == "" {
		return ErrNoLayout
	}
	s.doc = doc
	s.mapping = mapping.AutoMap(doc.Headers, s.layout, s.catalog)
	s.result = nil
	s.step = StepMap
	return nil
}

// SelectField rebinds one field; the sentinel mapping.ColumnNone unbinds it.
func (s *Session) SelectField(field matcher.Field, column string) error {
	if s.step == StepUpload {
		return ErrWrongStep
	}
	s.mapping = mapping.SelectField(s.mapping, field, column)
	return nil
}

// ToggleCategoryColumn includes or excludes a wide-format category column.
func (s *Session) ToggleCategoryColumn(column string, included bool) error {
	if s.step == StepUpload {
		return ErrWrongStep
	}
	if s.mapping.Kind != mapping.KindWideFormat {
		return ErrNotWideForm
	}
	s.mapping = mapping.ToggleCategoryColumn(s.mapping, column, included, s.catalog)
	return nil
}

// SetCategoryBinding directly rebinds a wide-format category column.
func (s *Session) SetCategoryBinding(column, categoryID string) error {
	if s.step == StepUpload {
		return ErrWrongStep
	}
	if s.mapping.Kind != mapping.KindWideFormat {
		return ErrNotWideForm
	}
	s.mapping = mapping.SetCategoryBinding(s.mapping, column, categoryID)
	return nil
}

// CompleteMapping runs the transformer and, when the mapping passes its
// required-field gate, advances to Preview. A validation failure leaves the
// session in Map and is returned for inline display.
func (s *Session) CompleteMapping() (*transform.Result, error) {
	if s.step != StepMap && s.step != StepPreview {
		return nil, ErrWrongStep
	}
	if s.doc == nil {
		return nil, ErrNoDocument
	}
	result, err := transform.Transform(s.mapping, s.doc.Rows, s.defaults, s.catalog)
	if err != nil {
		return nil, err
	}
	s.result = result
	s.step = StepPreview
	return result, nil
}

// Back steps out of Preview (discarding the transformed rows) or out of Map
// (discarding the upload).
func (s *Session) Back() {
	switch s.step {
	case StepPreview:
		s.result = nil
		s.step = StepMap
	case StepMap:
		s.doc = nil
		s.mapping = mapping.Mapping{}
		s.step = StepUpload
	}
}

// Reset discards all transient import state after a successful save.
func (s *Session) Reset() {
	now := time.Now()
	s.doc = nil
	s.mapping = mapping.Mapping{}
	s.result = nil
	s.defaults = transform.Defaults{Month: now.Month(), Year: now.Year()}
	s.step = StepUpload
}
