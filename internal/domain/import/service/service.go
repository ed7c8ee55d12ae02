// Package service orchestrates the import flow: file intake, the mapping
// session, preview and the final save into the expense store.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/casaledger/casa-ledger/internal/domain/expense"
	"github.com/casaledger/casa-ledger/internal/domain/import/mapping"
	"github.com/casaledger/casa-ledger/internal/domain/import/matcher"
	"github.com/casaledger/casa-ledger/internal/domain/import/parser"
	"github.com/casaledger/casa-ledger/internal/domain/import/session"
	"github.com/casaledger/casa-ledger/internal/domain/import/transform"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
	"github.com/casaledger/casa-ledger/pkg/storage"
)

// PDFExtractor turns a PDF statement into a tabular document.
type PDFExtractor interface {
	ExtractPDF(ctx context.Context, pdfBytes []byte) (*parser.Document, error)
}

// ExpenseStore persists a transformed batch.
type ExpenseStore interface {
	SaveBatch(ctx context.Context, expenses []expense.Expense) error
}

// ImportService owns the single mapping session of the household dashboard.
// Session mutations are serialized by the service mutex; the session itself
// is not concurrency-safe.
type ImportService struct {
	mu      sync.Mutex
	session *session.Session

	catalog   *refdata.Catalog
	store     ExpenseStore
	archive   storage.Archive // optional
	extractor PDFExtractor    // optional, nil when no AI key is configured
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewImportService creates the import service with a fresh session.
func NewImportService(catalog *refdata.Catalog, store ExpenseStore, logger *slog.Logger) *ImportService {
	return &ImportService{
		session: session.New(catalog),
		catalog: catalog,
		store:   store,
		logger:  logger,
		tracer:  otel.Tracer("import"),
	}
}

// WithArchive adds source file archiving to the import service.
func (s *ImportService) WithArchive(archive storage.Archive) *ImportService {
	s.archive = archive
	return s
}

// WithPDFExtractor adds AI statement extraction to the import service.
func (s *ImportService) WithPDFExtractor(extractor PDFExtractor) *ImportService {
	s.extractor = extractor
	return s
}

// State is a snapshot of the session for the UI.
type State struct {
	Step             session.Step      `json:"step"`
	Layout           mapping.Layout    `json:"layout"`
	Headers          []string          `json:"headers,omitempty"`
	RowCount         int               `json:"rowCount"`
	Fields           map[string]string `json:"fields"`
	CategoryColumns  []string          `json:"categoryColumns,omitempty"`
	CategoryBindings map[string]string `json:"categoryBindings,omitempty"`
	ValidationError  string            `json:"validationError,omitempty"`
	Preview          *Preview          `json:"preview,omitempty"`
}

// Preview summarizes the transformed batch shown before saving.
type Preview struct {
	Expenses []transform.Expense `json:"expenses"`
	Skipped  int                 `json:"skipped"`
}

// SaveResult reports the outcome of persisting a batch.
type SaveResult struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
}

// Layouts lists the selectable document layouts.
func (s *ImportService) Layouts() []mapping.Layout {
	return []mapping.Layout{
		mapping.LayoutStandard,
		mapping.LayoutStandardWithCategory,
		mapping.LayoutWideFormat,
	}
}

// SetLayout records the document layout for the next upload. If a document
// is already loaded the mapping is re-proposed for the new layout.
func (s *ImportService) SetLayout(layout mapping.Layout) (*State, error) {
	switch layout {
	case mapping.LayoutStandard, mapping.LayoutStandardWithCategory, mapping.LayoutWideFormat:
	default:
		return nil, fmt.Errorf("unknown layout %q", layout)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.SetLayout(layout)
	return s.snapshot(), nil
}

// SetDefaults sets the fallback month and year for rows without a parseable
// date.
func (s *ImportService) SetDefaults(d transform.Defaults) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.SetDefaults(d)
	return s.snapshot()
}

// Upload parses the file by extension, loads the document into the session
// and archives the original bytes.
func (s *ImportService) Upload(ctx context.Context, filename string, data []byte) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "import.Upload",
		trace.WithAttributes(attribute.String("file.name", filename), attribute.Int("file.size", len(data))))
	defer span.End()

	source, contentType := classifyFile(filename)

	doc, err := s.parseFile(ctx, source, data)
	if err != nil {
		uploadsTotal.WithLabelValues(source, "error").Inc()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Load(doc); err != nil {
		uploadsTotal.WithLabelValues(source, "error").Inc()
		return nil, err
	}

	// Only accepted uploads are worth keeping around for re-inspection.
	if s.archive != nil {
		if _, archiveErr := s.archive.Upload(ctx, filename, contentType, bytes.NewReader(data)); archiveErr != nil {
			s.logger.Warn("failed to archive source file", "file", filename, "error", archiveErr)
		}
	}

	uploadsTotal.WithLabelValues(source, "ok").Inc()
	span.SetAttributes(attribute.Int("rows", len(doc.Rows)))
	s.logger.Info("file uploaded",
		"file", filename,
		"source", source,
		"headers", len(doc.Headers),
		"rows", len(doc.Rows))
	return s.snapshot(), nil
}

func (s *ImportService) parseFile(ctx context.Context, source string, data []byte) (*parser.Document, error) {
	switch source {
	case "csv":
		return parser.ParseCSV(data)
	case "excel":
		return parser.ParseExcel(bytes.NewReader(data))
	case "pdf":
		if s.extractor == nil {
			return nil, fmt.Errorf("pdf import is not configured")
		}
		return s.extractor.ExtractPDF(ctx, data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", source)
	}
}

func classifyFile(filename string) (source, contentType string) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", ".tsv":
		return "csv", "text/csv"
	case ".xlsx", ".xlsm":
		return "excel", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pdf":
		return "pdf", "application/pdf"
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."), "application/octet-stream"
	}
}

// SelectField binds a column to a field, or unbinds it when column is empty.
func (s *ImportService) SelectField(field, column string) (*State, error) {
	f, err := parseField(field)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.SelectField(f, column); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// ToggleCategoryColumn includes or excludes a wide-format category column.
func (s *ImportService) ToggleCategoryColumn(column string, included bool) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.ToggleCategoryColumn(column, included); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// SetCategoryBinding binds a wide-format category column to a catalog
// category, or clears the binding when categoryID is empty.
func (s *ImportService) SetCategoryBinding(column, categoryID string) (*State, error) {
	if categoryID != "" {
		if _, ok := s.catalog.CategoryByID(categoryID); !ok {
			return nil, fmt.Errorf("unknown category id %q", categoryID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.SetCategoryBinding(column, categoryID); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Complete runs the transform and advances the session to preview. A
// validation failure is returned in the state, not as an error.
func (s *ImportService) Complete(ctx context.Context) (*State, error) {
	_, span := s.tracer.Start(ctx, "import.Complete")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.session.CompleteMapping()
	if err != nil {
		if isValidationError(err) {
			state := s.snapshot()
			state.ValidationError = err.Error()
			return state, nil
		}
		return nil, err
	}

	rowsSkippedTotal.Add(float64(result.Skipped))
	span.SetAttributes(
		attribute.Int("expenses", len(result.Expenses)),
		attribute.Int("skipped", result.Skipped))
	s.logger.Info("mapping completed", "expenses", len(result.Expenses), "skipped", result.Skipped)
	return s.snapshot(), nil
}

// Save persists the previewed batch and resets the session for the next
// import.
func (s *ImportService) Save(ctx context.Context) (*SaveResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.Save")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Step() != session.StepPreview || s.session.Result() == nil {
		return nil, session.ErrWrongStep
	}

	result := s.session.Result()
	batch := toExpenses(result.Expenses)
	if err := s.store.SaveBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("save import batch: %w", err)
	}

	batchesSavedTotal.Inc()
	rowsSavedTotal.Add(float64(len(batch)))
	span.SetAttributes(attribute.Int("saved", len(batch)))
	s.logger.Info("import batch saved", "saved", len(batch), "skipped", result.Skipped)

	saved := &SaveResult{Saved: len(batch), Skipped: result.Skipped}
	s.session.Reset()
	return saved, nil
}

// Back steps the session one step backwards.
func (s *ImportService) Back() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Back()
	return s.snapshot()
}

// Reset abandons the session and returns to upload.
func (s *ImportService) Reset() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Reset()
	return s.snapshot()
}

// State returns the current session snapshot.
func (s *ImportService) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// snapshot must be called with the mutex held.
func (s *ImportService) snapshot() *State {
	m := s.session.Mapping()
	state := &State{
		Step:   s.session.Step(),
		Layout: s.session.Layout(),
		Fields: make(map[string]string, len(m.Fields)),
	}
	for f, col := range m.Fields {
		state.Fields[string(f)] = col
	}
	if m.Kind == mapping.KindWideFormat {
		state.CategoryColumns = append([]string(nil), m.CategoryColumns...)
		state.CategoryBindings = make(map[string]string, len(m.CategoryBindings))
		for col, id := range m.CategoryBindings {
			state.CategoryBindings[col] = id
		}
	}
	if doc := s.session.Document(); doc != nil {
		state.Headers = append([]string(nil), doc.Headers...)
		state.RowCount = len(doc.Rows)
	}
	if result := s.session.Result(); result != nil {
		state.Preview = &Preview{Expenses: result.Expenses, Skipped: result.Skipped}
	}
	return state
}

func parseField(field string) (matcher.Field, error) {
	f := matcher.Field(field)
	for _, known := range matcher.StandardFields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", field)
}

func isValidationError(err error) bool {
	return errors.Is(err, mapping.ErrAmountUnmapped) ||
		errors.Is(err, mapping.ErrDescriptionUnmapped) ||
		errors.Is(err, mapping.ErrNoCategoryColumns)
}

func toExpenses(in []transform.Expense) []expense.Expense {
	out := make([]expense.Expense, len(in))
	for i, t := range in {
		out[i] = expense.Expense{
			ID:           t.ID,
			Amount:       t.Amount,
			CategoryID:   t.CategoryID,
			CategoryName: t.CategoryName,
			TagID:        t.TagID,
			TagName:      t.TagName,
			MemberID:     t.MemberID,
			MemberName:   t.MemberName,
			Date:         t.Date,
			Description:  t.Description,
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
		}
	}
	return out
}
