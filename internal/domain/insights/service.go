// Package insights computes the dashboard breakdowns: spend per category,
// per tag and per member for a month or a year, derived on demand from the
// expense store and cached between imports.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casaledger/casa-ledger/internal/domain/expense"
	"github.com/casaledger/casa-ledger/pkg/money"
)

// Slice is one bucket of a breakdown, e.g. a category's share of a month.
type Slice struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Total   decimal.Decimal `json:"total"`
	Display string          `json:"display"`
	Count   int             `json:"count"`
}

// MonthlyReport is the month view of the dashboard.
type MonthlyReport struct {
	Year         int              `json:"year"`
	Month        time.Month       `json:"month"`
	Total        decimal.Decimal  `json:"total"`
	TotalDisplay string           `json:"totalDisplay"`
	Count        int              `json:"count"`
	ByCategory   []Slice          `json:"byCategory"`
	ByTag        []Slice          `json:"byTag"`
	ByMember     []Slice          `json:"byMember"`
	TopExpense   *expense.Expense `json:"topExpense,omitempty"`
}

// YearlyReport aggregates a whole year plus the per-month trend line.
type YearlyReport struct {
	Year         int             `json:"year"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"totalDisplay"`
	Count        int             `json:"count"`
	ByCategory   []Slice         `json:"byCategory"`
	ByMember     []Slice         `json:"byMember"`
	ByMonth      []MonthTotal    `json:"byMonth"`
}

// MonthTotal is one point of the yearly trend line.
type MonthTotal struct {
	Month   time.Month      `json:"month"`
	Total   decimal.Decimal `json:"total"`
	Display string          `json:"display"`
	Count   int             `json:"count"`
}

type cacheKey struct {
	year  int
	month time.Month // 0 for yearly
}

// Service computes and caches the breakdowns.
type Service struct {
	repo   expense.Repository
	fmtr   *money.Formatter
	logger *slog.Logger

	mu      sync.Mutex
	monthly map[cacheKey]*MonthlyReport
	yearly  map[cacheKey]*YearlyReport
}

// NewService creates the insights service.
func NewService(repo expense.Repository, fmtr *money.Formatter, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		fmtr:    fmtr,
		logger:  logger,
		monthly: make(map[cacheKey]*MonthlyReport),
		yearly:  make(map[cacheKey]*YearlyReport),
	}
}

// Invalidate drops all cached reports. Called after every save or edit.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monthly = make(map[cacheKey]*MonthlyReport)
	s.yearly = make(map[cacheKey]*YearlyReport)
}

// Monthly returns the breakdown for one month.
func (s *Service) Monthly(ctx context.Context, year int, month time.Month) (*MonthlyReport, error) {
	key := cacheKey{year: year, month: month}
	s.mu.Lock()
	if report, ok := s.monthly[key]; ok {
		s.mu.Unlock()
		return report, nil
	}
	s.mu.Unlock()

	expenses, err := s.repo.List(ctx, expense.Filter{Year: year, Month: month})
	if err != nil {
		return nil, fmt.Errorf("load month %d-%02d: %w", year, month, err)
	}

	report := buildMonthly(year, month, expenses, s.fmtr)
	s.mu.Lock()
	s.monthly[key] = report
	s.mu.Unlock()
	return report, nil
}

// Yearly returns the breakdown for one year.
func (s *Service) Yearly(ctx context.Context, year int) (*YearlyReport, error) {
	key := cacheKey{year: year}
	s.mu.Lock()
	if report, ok := s.yearly[key]; ok {
		s.mu.Unlock()
		return report, nil
	}
	s.mu.Unlock()

	expenses, err := s.repo.List(ctx, expense.Filter{Year: year})
	if err != nil {
		return nil, fmt.Errorf("load year %d: %w", year, err)
	}

	report := buildYearly(year, expenses, s.fmtr)
	s.mu.Lock()
	s.yearly[key] = report
	s.mu.Unlock()
	return report, nil
}

// WarmCurrent precomputes the current month and year. Run by the scheduler
// so the dashboard's first paint after midnight is not a cold cache.
func (s *Service) WarmCurrent(ctx context.Context) error {
	now := time.Now()
	if _, err := s.Monthly(ctx, now.Year(), now.Month()); err != nil {
		return err
	}
	_, err := s.Yearly(ctx, now.Year())
	return err
}

func buildMonthly(year int, month time.Month, expenses []expense.Expense, fmtr *money.Formatter) *MonthlyReport {
	report := &MonthlyReport{
		Year:  year,
		Month: month,
		Total: decimal.Zero,
		Count: len(expenses),
	}

	byCategory := newAccumulator()
	byTag := newAccumulator()
	byMember := newAccumulator()

	var top *expense.Expense
	for i := range expenses {
		e := expenses[i]
		report.Total = report.Total.Add(e.Amount)

		byCategory.add(deref(e.CategoryID), fallbackName(e.CategoryName, "Uncategorized"), e.Amount)
		if e.TagName != "" {
			byTag.add(deref(e.TagID), e.TagName, e.Amount)
		}
		byMember.add(deref(e.MemberID), fallbackName(e.MemberName, "Unassigned"), e.Amount)

		if top == nil || e.Amount.GreaterThan(top.Amount) {
			top = &expenses[i]
		}
	}

	report.TotalDisplay = fmtr.Format(report.Total)
	report.ByCategory = byCategory.slices(fmtr)
	report.ByTag = byTag.slices(fmtr)
	report.ByMember = byMember.slices(fmtr)
	report.TopExpense = top
	return report
}

func buildYearly(year int, expenses []expense.Expense, fmtr *money.Formatter) *YearlyReport {
	report := &YearlyReport{
		Year:  year,
		Total: decimal.Zero,
		Count: len(expenses),
	}

	byCategory := newAccumulator()
	byMember := newAccumulator()
	months := make(map[time.Month]*MonthTotal)

	for _, e := range expenses {
		report.Total = report.Total.Add(e.Amount)
		byCategory.add(deref(e.CategoryID), fallbackName(e.CategoryName, "Uncategorized"), e.Amount)
		byMember.add(deref(e.MemberID), fallbackName(e.MemberName, "Unassigned"), e.Amount)

		m := e.Date.Month()
		if months[m] == nil {
			months[m] = &MonthTotal{Month: m, Total: decimal.Zero}
		}
		months[m].Total = months[m].Total.Add(e.Amount)
		months[m].Count++
	}

	report.TotalDisplay = fmtr.Format(report.Total)
	report.ByCategory = byCategory.slices(fmtr)
	report.ByMember = byMember.slices(fmtr)
	for m := time.January; m <= time.December; m++ {
		if mt := months[m]; mt != nil {
			mt.Display = fmtr.Format(mt.Total)
			report.ByMonth = append(report.ByMonth, *mt)
		}
	}
	return report
}

// accumulator groups amounts by (id, name), keeping slices ordered by total.
type accumulator struct {
	order []string
	byKey map[string]*Slice
}

func newAccumulator() *accumulator {
	return &accumulator{byKey: make(map[string]*Slice)}
}

func (a *accumulator) add(id, name string, amount decimal.Decimal) {
	key := id + "\x00" + name
	s, ok := a.byKey[key]
	if !ok {
		s = &Slice{ID: id, Name: name, Total: decimal.Zero}
		a.byKey[key] = s
		a.order = append(a.order, key)
	}
	s.Total = s.Total.Add(amount)
	s.Count++
}

func (a *accumulator) slices(fmtr *money.Formatter) []Slice {
	out := make([]Slice, 0, len(a.order))
	for _, key := range a.order {
		s := *a.byKey[key]
		s.Display = fmtr.Format(s.Total)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fallbackName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
