// Package transform converts raw parsed rows plus a finalized mapping into
// normalized expense records ready for preview and persistence.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casaledger/casa-ledger/internal/domain/import/mapping"
	"github.com/casaledger/casa-ledger/internal/domain/import/matcher"
	"github.com/casaledger/casa-ledger/internal/domain/import/parser"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

// Expense is one normalized expense produced from an import. Ids for
// category/tag/member are nil when the cell did not resolve against the
// reference catalog.
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

// Defaults supplies the fallback month/year used when a row has no parsable
// date.
type Defaults struct {
	Month time.Month
	Year  int
}

// Result carries the emitted expenses plus a tally of rows (or category
// cells, for wide format) suppressed by the zero-amount rule.
type Result struct {
	Expenses []Expense
	Skipped  int
}

// Transform applies the mapping to every row and returns the normalized
// expense list. It fails without emitting anything when the mapping's
// required bindings are missing; per-row problems never fail the batch,
// they only suppress the offending row.
func Transform(m mapping.Mapping, rows []parser.RawRow, defaults Defaults, catalog *refdata.Catalog) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	// One batch timestamp per call keeps synthetic ids collision-free even
	// when the same file is imported twice.
	batch := time.Now()

	switch m.Kind {
	case mapping.KindWideFormat:
		return transformWide(m, rows, defaults, catalog, batch), nil
	default:
		return transformStandard(m, rows, defaults, catalog, batch), nil
	}
}

func transformStandard(m mapping.Mapping, rows []parser.RawRow, defaults Defaults, catalog *refdata.Catalog, batch time.Time) *Result {
	res := &Result{Expenses: make([]Expense, 0, len(rows))}

	for i, row := range rows {
		amount, ok := parseAmount(cell(row, m, matcher.FieldAmount, "0"))
		if !ok || amount.IsZero() {
			res.Skipped++
			continue
		}

		exp := Expense{
			ID:          syntheticID(batch, i, -1),
			Amount:      amount,
			Date:        resolveDate(cell(row, m, matcher.FieldDate, ""), defaults),
			Description: strings.TrimSpace(cell(row, m, matcher.FieldDescription, "")),
			CreatedAt:   batch,
			UpdatedAt:   batch,
		}

		if cat, ok := catalog.CategoryByName(cell(row, m, matcher.FieldCategoryName, "")); ok {
			id := cat.ID
			exp.CategoryID, exp.CategoryName = &id, cat.Name
		}
		resolveTagAndMember(&exp, row, m, catalog)

		res.Expenses = append(res.Expenses, exp)
	}

	return res
}

func transformWide(m mapping.Mapping, rows []parser.RawRow, defaults Defaults, catalog *refdata.Catalog, batch time.Time) *Result {
	res := &Result{}

	for i, row := range rows {
		date := resolveDate(cell(row, m, matcher.FieldDate, ""), defaults)
		description := strings.TrimSpace(cell(row, m, matcher.FieldDescription, ""))

		// One input row fans out into one expense per non-zero category cell.
		for j, column := range m.CategoryColumns {
			amount, ok := parseAmount(row[column])
			if !ok || amount.IsZero() {
				res.Skipped++
				continue
			}

			exp := Expense{
				ID:          syntheticID(batch, i, j),
				Amount:      amount,
				Date:        date,
				Description: description,
				CreatedAt:   batch,
				UpdatedAt:   batch,
			}

			if id, bound := m.CategoryBindings[column]; bound {
				if cat, ok := catalog.CategoryByID(id); ok {
					catID := cat.ID
					exp.CategoryID, exp.CategoryName = &catID, cat.Name
				}
			}
			if exp.CategoryID == nil {
				// Unbound column: the header text is the category name.
				exp.CategoryName = column
			}
			resolveTagAndMember(&exp, row, m, catalog)

			res.Expenses = append(res.Expenses, exp)
		}
	}

	return res
}

func resolveTagAndMember(exp *Expense, row parser.RawRow, m mapping.Mapping, catalog *refdata.Catalog) {
	if tag, ok := catalog.TagByName(cell(row, m, matcher.FieldTagName, "")); ok {
		id := tag.ID
		exp.TagID, exp.TagName = &id, tag.Name
	}
	if member, ok := catalog.MemberByName(cell(row, m, matcher.FieldMemberName, "")); ok {
		id := member.ID
		exp.MemberID, exp.MemberName = &id, member.ShortName
	}
}

// cell reads the mapped column's value for a field, or fallback when the
// field is unbound or the cell is missing.
func cell(row parser.RawRow, m mapping.Mapping, field matcher.Field, fallback string) string {
	column, ok := m.Column(field)
	if !ok {
		return fallback
	}
	value, ok := row[column]
	if !ok {
		return fallback
	}
	return value
}

// parseAmount strips everything that is not a digit, '.' or '-' and parses
// the remainder as a decimal. Unparseable cells report ok=false and are
// treated like zero by callers.
func parseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// dateFormats are tried in order when parsing a date cell.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// resolveDate parses the cell as a generic date; an empty or unparsable
// cell falls back to the first day of the default month/year.
func resolveDate(raw string, defaults Defaults) time.Time {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, format := range dateFormats {
			if t, err := time.Parse(format, raw); err == nil {
				return t
			}
		}
	}
	return time.Date(defaults.Year, defaults.Month, 1, 0, 0, 0, 0, time.UTC)
}

// syntheticID derives a batch-unique id from the shared batch timestamp,
// the row index and (for wide-format fan-out) the category column index.
func syntheticID(batch time.Time, row, column int) string {
	if column < 0 {
		return fmt.Sprintf("%d-%d", batch.UnixNano(), row)
	}
	return fmt.Sprintf("%d-%d-%d", batch.UnixNano(), row, column)
}
