package insights

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaledger/casa-ledger/internal/domain/expense"
	"github.com/casaledger/casa-ledger/pkg/money"
)

func seedExpenses(t *testing.T, repo expense.Repository) {
	t.Helper()
	grocery := "1"
	travel := "3"
	asha := "m1"
	ravi := "m2"

	batch := []expense.Expense{
		{ID: "a", Amount: dec("40.00"), CategoryID: &grocery, CategoryName: "Grocery", MemberID: &asha, MemberName: "Asha", Date: date(2024, time.March, 2), Description: "market"},
		{ID: "b", Amount: dec("60.00"), CategoryID: &grocery, CategoryName: "Grocery", MemberID: &ravi, MemberName: "Ravi", Date: date(2024, time.March, 9), Description: "costco"},
		{ID: "c", Amount: dec("120.00"), CategoryID: &travel, CategoryName: "Travel", MemberID: &asha, MemberName: "Asha", Date: date(2024, time.March, 15), Description: "train"},
		{ID: "d", Amount: dec("10.00"), CategoryName: "", MemberName: "", Date: date(2024, time.March, 20), Description: "misc"},
		{ID: "e", Amount: dec("200.00"), CategoryID: &travel, CategoryName: "Travel", MemberID: &ravi, MemberName: "Ravi", Date: date(2024, time.July, 1), Description: "flight"},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), batch))
}

func TestMonthlyReport(t *testing.T) {
	repo := expense.NewMemoryRepository()
	seedExpenses(t, repo)
	service := NewService(repo, money.NewFormatter("USD"), slog.Default())

	report, err := service.Monthly(context.Background(), 2024, time.March)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Count)
	assert.True(t, report.Total.Equal(dec("230.00")), "total %s", report.Total)
	assert.Equal(t, "$230.00", report.TotalDisplay)

	require.Len(t, report.ByCategory, 3)
	assert.Equal(t, "Travel", report.ByCategory[0].Name)
	assert.True(t, report.ByCategory[0].Total.Equal(dec("120.00")))
	assert.Equal(t, "$120.00", report.ByCategory[0].Display)
	assert.Equal(t, "Grocery", report.ByCategory[1].Name)
	assert.True(t, report.ByCategory[1].Total.Equal(dec("100.00")))
	assert.Equal(t, "Uncategorized", report.ByCategory[2].Name)

	require.Len(t, report.ByMember, 3)
	assert.Equal(t, "Asha", report.ByMember[0].Name)
	assert.True(t, report.ByMember[0].Total.Equal(dec("160.00")))

	require.NotNil(t, report.TopExpense)
	assert.Equal(t, "c", report.TopExpense.ID)
}

func TestYearlyReport(t *testing.T) {
	repo := expense.NewMemoryRepository()
	seedExpenses(t, repo)
	service := NewService(repo, money.NewFormatter("USD"), slog.Default())

	report, err := service.Yearly(context.Background(), 2024)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Count)
	assert.True(t, report.Total.Equal(dec("430.00")))

	require.Len(t, report.ByMonth, 2)
	assert.Equal(t, time.March, report.ByMonth[0].Month)
	assert.True(t, report.ByMonth[0].Total.Equal(dec("230.00")))
	assert.Equal(t, time.July, report.ByMonth[1].Month)
	assert.True(t, report.ByMonth[1].Total.Equal(dec("200.00")))

	assert.Equal(t, "Travel", report.ByCategory[0].Name)
	assert.True(t, report.ByCategory[0].Total.Equal(dec("320.00")))
}

func TestInvalidateDropsCache(t *testing.T) {
	repo := expense.NewMemoryRepository()
	seedExpenses(t, repo)
	service := NewService(repo, money.NewFormatter("USD"), slog.Default())

	before, err := service.Monthly(context.Background(), 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, 4, before.Count)

	extra := []expense.Expense{{ID: "f", Amount: dec("5.00"), Date: date(2024, time.March, 25), Description: "stamps"}}
	require.NoError(t, repo.BulkUpsert(context.Background(), extra))

	cached, err := service.Monthly(context.Background(), 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, 4, cached.Count, "cache should still serve the old report")

	service.Invalidate()
	fresh, err := service.Monthly(context.Background(), 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, 5, fresh.Count)
}

func TestEmptyMonth(t *testing.T) {
	repo := expense.NewMemoryRepository()
	service := NewService(repo, money.NewFormatter("USD"), slog.Default())

	report, err := service.Monthly(context.Background(), 2024, time.January)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Count)
	assert.True(t, report.Total.IsZero())
	assert.Empty(t, report.ByCategory)
	assert.Nil(t, report.TopExpense)
}

func TestHandlerValidation(t *testing.T) {
	repo := expense.NewMemoryRepository()
	service := NewService(repo, money.NewFormatter("USD"), slog.Default())
	handler := NewHandler(service, slog.Default())
	mux := http.NewServeMux()
	handler.Register(mux)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"monthly ok", "/api/insights/monthly?year=2024&month=3", http.StatusOK},
		{"monthly missing year", "/api/insights/monthly?month=3", http.StatusBadRequest},
		{"monthly bad month", "/api/insights/monthly?year=2024&month=13", http.StatusBadRequest},
		{"yearly ok", "/api/insights/yearly?year=2024", http.StatusOK},
		{"yearly junk year", "/api/insights/yearly?year=soon", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
