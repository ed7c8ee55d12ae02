package expense

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

// Sink observes committed writes. Used for cache invalidation and search
// indexing; sink failures must not fail the write.
type Sink interface {
	ExpensesChanged(expenses []Expense)
	ExpenseDeleted(id string)
}

// Service provides expense management business logic on top of a Repository.
type Service struct {
	repo    Repository
	catalog *refdata.Catalog
	sink    Sink // optional
	logger  *slog.Logger
}

// NewService creates a new expense service.
func NewService(repo Repository, catalog *refdata.Catalog, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

// WithSink attaches a write observer.
func (s *Service) WithSink(sink Sink) *Service {
	s.sink = sink
	return s
}

// Input carries the editable fields of an expense. Category, tag and member
// arrive as catalog ids; display names are resolved here so stored rows never
// drift from the catalog.
type Input struct {
	Amount      string `json:"amount"`
	CategoryID  string `json:"categoryId"`
	TagID       string `json:"tagId"`
	MemberID    string `json:"memberId"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Create validates the input and stores a new expense with a generated id.
func (s *Service) Create(ctx context.Context, in Input) (*Expense, error) {
	e, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	e.ID = uuid.NewString()
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.repo.Create(ctx, *e); err != nil {
		return nil, err
	}
	s.logger.Info("expense created", "id", e.ID, "amount", e.Amount.String())
	s.notifyChanged([]Expense{*e})
	return e, nil
}

// Update replaces the editable fields of an existing expense.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Expense, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	e, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, *e); err != nil {
		return nil, err
	}
	s.logger.Info("expense updated", "id", id)
	s.notifyChanged([]Expense{*e})
	return e, nil
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("expense deleted", "id", id)
	if s.sink != nil {
		s.sink.ExpenseDeleted(id)
	}
	return nil
}

// Get fetches a single expense.
func (s *Service) Get(ctx context.Context, id string) (*Expense, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns expenses matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Expense, error) {
	return s.repo.List(ctx, filter)
}

// SaveBatch persists an imported batch in one upsert.
func (s *Service) SaveBatch(ctx context.Context, expenses []Expense) error {
	if err := s.repo.BulkUpsert(ctx, expenses); err != nil {
		return err
	}
	s.logger.Info("expense batch saved", "count", len(expenses))
	s.notifyChanged(expenses)
	return nil
}

func (s *Service) notifyChanged(expenses []Expense) {
	if s.sink != nil {
		s.sink.ExpensesChanged(expenses)
	}
}

func (s *Service) fromInput(in Input) (*Expense, error) {
	amount, err := parseInputAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", in.Date)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("description is required")
	}

	e := &Expense{
		Amount:      amount,
		Date:        date,
		Description: strings.TrimSpace(in.Description),
	}

	if in.CategoryID != "" {
		cat, ok := s.catalog.CategoryByID(in.CategoryID)
		if !ok {
			return nil, fmt.Errorf("unknown category id %q", in.CategoryID)
		}
		e.CategoryID = &cat.ID
		e.CategoryName = cat.Name
	}
	if in.TagID != "" {
		tag, ok := s.catalog.TagByID(in.TagID)
		if !ok {
			return nil, fmt.Errorf("unknown tag id %q", in.TagID)
		}
		e.TagID = &tag.ID
		e.TagName = tag.Name
	}
	if in.MemberID != "" {
		m, ok := s.catalog.MemberByID(in.MemberID)
		if !ok {
			return nil, fmt.Errorf("unknown member id %q", in.MemberID)
		}
		e.MemberID = &m.ID
		e.MemberName = m.ShortName
	}
	return e, nil
}

func parseInputAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", raw)
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount must be positive, got %s", amount)
	}
	return amount, nil
}
