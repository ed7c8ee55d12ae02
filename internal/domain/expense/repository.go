// Package expense provides the expense store: CRUD, month/year listing and
// the bulk upsert the import pipeline hands its confirmed preview to.
package expense

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a persisted expense record. Refunds carry negative amounts.
type Expense struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryID   *string         `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	TagID        *string         `json:"tagId"`
	TagName      string          `json:"tagName"`
	MemberID     *string         `json:"memberId"`
	MemberName   string          `json:"memberName"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Year       int
	Month      time.Month
	CategoryID string
	MemberID   string
}

var ErrNotFound = errors.New("expense not found")

// Repository is the persistence boundary. Postgres backs production;
// MemoryRepository backs demo mode.
type Repository interface {
	// BulkUpsert writes the whole batch keyed by record id in one call.
	// Partial failure is reported as a single aggregate error.
	BulkUpsert(ctx context.Context, expenses []Expense) error
	Create(ctx context.Context, e Expense) error
	Update(ctx context.Context, e Expense) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Expense, error)
	List(ctx context.Context, filter Filter) ([]Expense, error)
}
