package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Querier is the slice of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository creates a new PostgreSQL expense repository.
func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const expenseColumns = `id, amount, category_id, category_name, tag_id, tag_name,
	member_id, member_name, date, description, created_at, updated_at`

// BulkUpsert writes the batch in a single statement keyed by id. Re-saving
// the same preview overwrites rather than duplicates.
func (r *PostgresRepository) BulkUpsert(ctx context.Context, expenses []Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO expenses (` + expenseColumns + `) VALUES `)

	args := make([]any, 0, len(expenses)*12)
	for i, e := range expenses {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 12
		sb.WriteString("(")
		for j := 1; j <= 12; j++ {
			if j > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j)
		}
		sb.WriteString(")")
		args = append(args,
			e.ID, e.Amount.String(), e.CategoryID, e.CategoryName,
			e.TagID, e.TagName, e.MemberID, e.MemberName,
			e.Date, e.Description, e.CreatedAt, e.UpdatedAt,
		)
	}

	sb.WriteString(`
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			category_id = EXCLUDED.category_id,
			category_name = EXCLUDED.category_name,
			tag_id = EXCLUDED.tag_id,
			tag_name = EXCLUDED.tag_name,
			member_id = EXCLUDED.member_id,
			member_name = EXCLUDED.member_name,
			date = EXCLUDED.date,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at`)

	if _, err := r.db.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("bulk upsert %d expenses: %w", len(expenses), err)
	}
	return nil
}

// Create inserts a single expense.
func (r *PostgresRepository) Create(ctx context.Context, e Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		e.ID, e.Amount.String(), e.CategoryID, e.CategoryName,
		e.TagID, e.TagName, e.MemberID, e.MemberName,
		e.Date, e.Description, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// Update rewrites an existing expense.
func (r *PostgresRepository) Update(ctx context.Context, e Expense) error {
	query := `
		UPDATE expenses SET
			amount = $2, category_id = $3, category_name = $4,
			tag_id = $5, tag_name = $6, member_id = $7, member_name = $8,
			date = $9, description = $10, updated_at = $11
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		e.ID, e.Amount.String(), e.CategoryID, e.CategoryName,
		e.TagID, e.TagName, e.MemberID, e.MemberName,
		e.Date, e.Description, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an expense by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches one expense.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// List returns expenses matching the filter, newest date first.
func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses`

	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Year != 0 {
		clauses = append(clauses, "EXTRACT(YEAR FROM date) = "+arg(filter.Year))
	}
	if filter.Month != 0 {
		clauses = append(clauses, "EXTRACT(MONTH FROM date) = "+arg(int(filter.Month)))
	}
	if filter.CategoryID != "" {
		clauses = append(clauses, "category_id = "+arg(filter.CategoryID))
	}
	if filter.MemberID != "" {
		clauses = append(clauses, "member_id = "+arg(filter.MemberID))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date DESC, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var (
		e         Expense
		amountStr string
	)
	err := row.Scan(
		&e.ID, &amountStr, &e.CategoryID, &e.CategoryName,
		&e.TagID, &e.TagName, &e.MemberID, &e.MemberName,
		&e.Date, &e.Description, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
	}
	e.Amount = amount
	return &e, nil
}
