package categorization

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/casaledger/casa-ledger/internal/domain/expense"
)

// expenseDoc is the shape indexed into Bleve for one expense.
type expenseDoc struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Tag         string  `json:"tag"`
	Member      string  `json:"member"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
}

// Hit is one search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// ExpenseIndex is a full-text index over saved expenses. An empty path means
// in-memory; a path makes the index persistent across restarts.
type ExpenseIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

func NewExpenseIndex(path string) (*ExpenseIndex, error) {
	indexMapping := buildExpenseMapping()

	var index bleve.Index
	var err error
	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, indexMapping)
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}

	return &ExpenseIndex{index: index}, nil
}

func buildExpenseMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = simple.Name

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("description", textField)
	docMapping.AddFieldMappingsAt("category", textField)
	docMapping.AddFieldMappingsAt("tag", textField)
	docMapping.AddFieldMappingsAt("member", textField)
	docMapping.AddFieldMappingsAt("date", keywordField)
	docMapping.AddFieldMappingsAt("amount", bleve.NewNumericFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// IndexExpenses adds or replaces a batch of expenses in one Bleve batch.
func (ei *ExpenseIndex) IndexExpenses(expenses []expense.Expense) error {
	ei.mu.Lock()
	defer ei.mu.Unlock()

	batch := ei.index.NewBatch()
	for _, e := range expenses {
		amount, _ := e.Amount.Float64()
		doc := expenseDoc{
			Description: e.Description,
			Category:    e.CategoryName,
			Tag:         e.TagName,
			Member:      e.MemberName,
			Date:        e.Date.Format("2006-01-02"),
			Amount:      amount,
		}
		if err := batch.Index(e.ID, doc); err != nil {
			return fmt.Errorf("index expense %s: %w", e.ID, err)
		}
	}
	if err := ei.index.Batch(batch); err != nil {
		return fmt.Errorf("apply index batch: %w", err)
	}
	return nil
}

// Delete removes one expense from the index.
func (ei *ExpenseIndex) Delete(id string) error {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	return ei.index.Delete(id)
}

// Search runs a fuzzy match query over all text fields.
func (ei *ExpenseIndex) Search(query string, limit int) ([]Hit, error) {
	ei.mu.RLock()
	defer ei.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	request := bleve.NewSearchRequest(matchQuery)
	request.Size = limit

	results, err := ei.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		hits = append(hits, Hit{ID: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

// Count returns the number of indexed expenses.
func (ei *ExpenseIndex) Count() (uint64, error) {
	ei.mu.RLock()
	defer ei.mu.RUnlock()
	return ei.index.DocCount()
}

// Clear removes every document. Used before a full reindex.
func (ei *ExpenseIndex) Clear() error {
	ei.mu.Lock()
	defer ei.mu.Unlock()

	request := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	request.Size = 10000

	results, err := ei.index.Search(request)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	batch := ei.index.NewBatch()
	for _, hit := range results.Hits {
		batch.Delete(hit.ID)
	}
	if err := ei.index.Batch(batch); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

func (ei *ExpenseIndex) Close() error {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	if ei.index != nil {
		return ei.index.Close()
	}
	return nil
}
