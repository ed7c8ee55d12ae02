package categorization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casaledger/casa-ledger/internal/domain/expense"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

// Service combines keyword suggestions with expense search.
type Service struct {
	suggester *Suggester
	index     *ExpenseIndex
	repo      expense.Repository
	logger    *slog.Logger
}

func NewService(catalog *refdata.Catalog, index *ExpenseIndex, repo expense.Repository, logger *slog.Logger) *Service {
	return &Service{
		suggester: NewSuggester(catalog),
		index:     index,
		repo:      repo,
		logger:    logger,
	}
}

// Suggest returns advisory tag/category matches for a description.
func (s *Service) Suggest(description string) []Suggestion {
	return s.suggester.Suggest(description)
}

// SuggestBatch suggests for many descriptions at once, for import previews.
func (s *Service) SuggestBatch(descriptions []string) [][]Suggestion {
	return s.suggester.SuggestBatch(descriptions)
}

// IndexBatch adds newly saved expenses to the search index. Index failures
// are logged, not returned: search lagging behind the store is acceptable,
// losing a save is not.
func (s *Service) IndexBatch(expenses []expense.Expense) {
	if err := s.index.IndexExpenses(expenses); err != nil {
		s.logger.Warn("failed to index expenses for search", "count", len(expenses), "error", err)
	}
}

// Remove drops a deleted expense from the search index.
func (s *Service) Remove(id string) {
	if err := s.index.Delete(id); err != nil {
		s.logger.Warn("failed to remove expense from search index", "id", id, "error", err)
	}
}

// Reindex rebuilds the search index from the expense store.
func (s *Service) Reindex(ctx context.Context) error {
	expenses, err := s.repo.List(ctx, expense.Filter{})
	if err != nil {
		return fmt.Errorf("list expenses for reindex: %w", err)
	}
	if err := s.index.Clear(); err != nil {
		return fmt.Errorf("clear search index: %w", err)
	}
	if err := s.index.IndexExpenses(expenses); err != nil {
		return fmt.Errorf("reindex expenses: %w", err)
	}
	s.logger.Info("search index rebuilt", "expenses", len(expenses))
	return nil
}

// Search resolves index hits back to full expenses, preserving score order.
// Hits whose expense has since been deleted are skipped.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]expense.Expense, error) {
	hits, err := s.index.Search(query, limit)
	if err != nil {
		return nil, err
	}

	out := make([]expense.Expense, 0, len(hits))
	for _, hit := range hits {
		e, err := s.repo.GetByID(ctx, hit.ID)
		if errors.Is(err, expense.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load expense %s: %w", hit.ID, err)
		}
		out = append(out, *e)
	}
	return out, nil
}
