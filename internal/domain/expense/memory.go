package expense

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

// MemoryRepository is an in-process Repository used in demo mode and in
// service tests. It holds everything in a map guarded by a mutex.
type MemoryRepository struct {
	mu       sync.RWMutex
	expenses map[string]Expense
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{expenses: make(map[string]Expense)}
}

func (r *MemoryRepository) BulkUpsert(_ context.Context, expenses []Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range expenses {
		r.expenses[e.ID] = e
	}
	return nil
}

func (r *MemoryRepository) Create(_ context.Context, e Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[e.ID]; ok {
		return fmt.Errorf("expense %s already exists", e.ID)
	}
	r.expenses[e.ID] = e
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, e Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[e.ID]; !ok {
		return ErrNotFound
	}
	e.UpdatedAt = time.Now()
	r.expenses[e.ID] = e
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[id]; !ok {
		return ErrNotFound
	}
	delete(r.expenses, id)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.expenses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (r *MemoryRepository) List(_ context.Context, filter Filter) ([]Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Expense
	for _, e := range r.expenses {
		if filter.Year != 0 && e.Date.Year() != filter.Year {
			continue
		}
		if filter.Month != 0 && e.Date.Month() != filter.Month {
			continue
		}
		if filter.CategoryID != "" && (e.CategoryID == nil || *e.CategoryID != filter.CategoryID) {
			continue
		}
		if filter.MemberID != "" && (e.MemberID == nil || *e.MemberID != filter.MemberID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SeedDemo fills the repository with plausible fake expenses spread over the
// last n months so the dashboard has something to show before any import.
func (r *MemoryRepository) SeedDemo(catalog *refdata.Catalog, months int) error {
	faker := gofakeit.New(0)
	categories := catalog.Categories()
	tags := catalog.Tags()
	members := catalog.Members()
	if len(categories) == 0 || len(members) == 0 {
		return fmt.Errorf("seed demo: catalog has no categories or members")
	}

	now := time.Now().UTC()
	var batch []Expense
	for m := 0; m < months; m++ {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -m, 0)
		count := faker.Number(25, 60)
		for i := 0; i < count; i++ {
			cat := categories[faker.Number(0, len(categories)-1)]
			member := members[faker.Number(0, len(members)-1)]
			e := Expense{
				ID:           fmt.Sprintf("demo-%d-%d", m, i),
				Amount:       decimal.NewFromFloat(faker.Price(2, 250)),
				CategoryID:   &cat.ID,
				CategoryName: cat.Name,
				MemberID:     &member.ID,
				MemberName:   member.ShortName,
				Date:         monthStart.AddDate(0, 0, faker.Number(0, 27)),
				Description:  faker.Company(),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if len(tags) > 0 && faker.Bool() {
				tag := tags[faker.Number(0, len(tags)-1)]
				e.TagID = &tag.ID
				e.TagName = tag.Name
			}
			batch = append(batch, e)
		}
	}
	return r.BulkUpsert(context.Background(), batch)
}
