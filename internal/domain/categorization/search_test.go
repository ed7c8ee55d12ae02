package categorization

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaledger/casa-ledger/internal/domain/expense"
)

func sampleExpenses() []expense.Expense {
	grocery := "1"
	travel := "5"
	return []expense.Expense{
		{ID: "e1", Amount: decimal.RequireFromString("54.20"), CategoryID: &grocery, CategoryName: "Grocery", TagName: "Costco", MemberName: "Asha", Date: time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), Description: "costco weekly groceries"},
		{ID: "e2", Amount: decimal.RequireFromString("230.00"), CategoryID: &travel, CategoryName: "Travel", MemberName: "Dev", Date: time.Date(2024, time.April, 11, 0, 0, 0, 0, time.UTC), Description: "airline tickets portland"},
		{ID: "e3", Amount: decimal.RequireFromString("18.75"), CategoryName: "Takeout", TagName: "Restaurant", MemberName: "Asha", Date: time.Date(2024, time.April, 12, 0, 0, 0, 0, time.UTC), Description: "doordash thai dinner"},
	}
}

func TestExpenseIndexSearch(t *testing.T) {
	index, err := NewExpenseIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	require.NoError(t, index.IndexExpenses(sampleExpenses()))

	count, err := index.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	t.Run("description match", func(t *testing.T) {
		hits, err := index.Search("groceries", 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "e1", hits[0].ID)
	})

	t.Run("typo tolerated", func(t *testing.T) {
		hits, err := index.Search("portlend", 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "e2", hits[0].ID)
	})

	t.Run("matches member name", func(t *testing.T) {
		hits, err := index.Search("dev", 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "e2", hits[0].ID)
	})

	t.Run("no hits", func(t *testing.T) {
		hits, err := index.Search("spaceship", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("delete removes hit", func(t *testing.T) {
		require.NoError(t, index.Delete("e3"))
		hits, err := index.Search("doordash", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestServiceSearchResolvesExpenses(t *testing.T) {
	repo := expense.NewMemoryRepository()
	require.NoError(t, repo.BulkUpsert(context.Background(), sampleExpenses()))

	index, err := NewExpenseIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	service := NewService(testCatalog(t), index, repo, slog.Default())
	require.NoError(t, service.Reindex(context.Background()))

	got, err := service.Search(context.Background(), "costco", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "Grocery", got[0].CategoryName)

	t.Run("stale hit is skipped", func(t *testing.T) {
		require.NoError(t, repo.Delete(context.Background(), "e2"))
		got, err := service.Search(context.Background(), "airline", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestServiceIndexBatchAfterSave(t *testing.T) {
	repo := expense.NewMemoryRepository()
	index, err := NewExpenseIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	service := NewService(testCatalog(t), index, repo, slog.Default())

	batch := sampleExpenses()
	require.NoError(t, repo.BulkUpsert(context.Background(), batch))
	service.IndexBatch(batch)

	got, err := service.Search(context.Background(), "thai", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e3", got[0].ID)
}
