package transform

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaledger/casa-ledger/internal/domain/import/mapping"
	"github.com/casaledger/casa-ledger/internal/domain/import/matcher"
	"github.com/casaledger/casa-ledger/internal/domain/import/parser"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

func testCatalog() *refdata.Catalog {
	return refdata.NewCatalog(
		[]refdata.Category{
			{ID: "1", Name: "Grocery"},
			{ID: "2", Name: "Takeout"},
		},
		[]refdata.Tag{
			{ID: "costco", Name: "Costco"},
		},
		[]refdata.Member{
			{ID: "m1", ShortName: "Asha", FullName: "Asha Raman"},
		},
	)
}

func standardMapping() mapping.Mapping {
	m := mapping.New(mapping.KindStandard)
	m.Fields[matcher.FieldDate] = "Date"
	m.Fields[matcher.FieldAmount] = "Amount"
	m.Fields[matcher.FieldDescription] = "Description"
	m.Fields[matcher.FieldCategoryName] = "Category"
	m.Fields[matcher.FieldTagName] = "Store"
	m.Fields[matcher.FieldMemberName] = "Who"
	return m
}

var defaults = Defaults{Month: time.June, Year: 2024}

func TestTransformStandard(t *testing.T) {
	catalog := testCatalog()

	t.Run("full row resolves", func(t *testing.T) {
		rows := []parser.RawRow{{
			"Date":        "2024-03-15",
			"Amount":      "42.50",
			"Description": "Coffee Shop",
			"Category":    "grocery",
			"Store":       "COSTCO",
			"Who":         "Asha Raman",
		}}

		res, err := Transform(standardMapping(), rows, defaults, catalog)
		require.NoError(t, err)
		require.Len(t, res.Expenses, 1)
		assert.Equal(t, 0, res.Skipped)

		e := res.Expenses[0]
		assert.True(t, e.Amount.Equal(decimal.RequireFromString("42.50")))
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), e.Date)
		assert.Equal(t, "Coffee Shop", e.Description)
		require.NotNil(t, e.CategoryID)
		assert.Equal(t, "1", *e.CategoryID)
		assert.Equal(t, "Grocery", e.CategoryName)
		require.NotNil(t, e.TagID)
		assert.Equal(t, "costco", *e.TagID)
		require.NotNil(t, e.MemberID)
		assert.Equal(t, "Asha", e.MemberName, "short name stored")
	})

	t.Run("near-miss category stays unresolved", func(t *testing.T) {
		rows := []parser.RawRow{{
			"Date": "2024-03-15", "Amount": "10", "Description": "x", "Category": "Grocerry",
		}}

		res, err := Transform(standardMapping(), rows, defaults, catalog)
		require.NoError(t, err)
		require.Len(t, res.Expenses, 1)
		assert.Nil(t, res.Expenses[0].CategoryID, "resolution is exact-match only")
		assert.Empty(t, res.Expenses[0].CategoryName)
	})

	t.Run("zero and unparseable amounts are skipped and counted", func(t *testing.T) {
		rows := []parser.RawRow{
			{"Date": "2024-03-15", "Amount": "0", "Description": "free"},
			{"Date": "2024-03-15", "Amount": "0.00", "Description": "also free"},
			{"Date": "2024-03-15", "Amount": "n/a", "Description": "broken"},
			{"Date": "2024-03-15", "Amount": "12.00", "Description": "kept"},
		}

		res, err := Transform(standardMapping(), rows, defaults, catalog)
		require.NoError(t, err)
		assert.Len(t, res.Expenses, 1)
		assert.Equal(t, 3, res.Skipped)
	})

	t.Run("currency symbols and grouping stripped", func(t *testing.T) {
		rows := []parser.RawRow{
			{"Date": "2024-03-15", "Amount": "$1,234.56", "Description": "tv"},
		}

		res, err := Transform(standardMapping(), rows, defaults, catalog)
		require.NoError(t, err)
		require.Len(t, res.Expenses, 1)
		assert.True(t, res.Expenses[0].Amount.Equal(decimal.RequireFromString("1234.56")))
	})

	t.Run("missing date falls back to defaults", func(t *testing.T) {
		rows := []parser.RawRow{
			{"Amount": "5", "Description": "undated"},
			{"Date": "soon", "Amount": "5", "Description": "unparseable"},
		}

		res, err := Transform(standardMapping(), rows, defaults, catalog)
		require.NoError(t, err)
		require.Len(t, res.Expenses, 2)
		first := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, first, res.Expenses[0].Date)
		assert.Equal(t, first, res.Expenses[1].Date)
	})

	t.Run("ids are unique within a batch", func(t *testing.T) {
		rows := []parser.RawRow{
			{"Amount": "1", "Description": "a"},
			{"Amount": "2", "Description": "b"},
			{"Amount": "3", "Description": "c"},
		}

		res, err := Transform(standardMapping(), rows, defaults, catalog)
		require.NoError(t, err)
		seen := make(map[string]bool)
		for _, e := range res.Expenses {
			assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
			seen[e.ID] = true
		}
	})

	t.Run("invalid mapping fails the whole batch", func(t *testing.T) {
		m := mapping.New(mapping.KindStandard)
		_, err := Transform(m, nil, defaults, catalog)
		assert.ErrorIs(t, err, mapping.ErrAmountUnmapped)
	})
}

func TestTransformWide(t *testing.T) {
	catalog := testCatalog()

	wideMapping := func() mapping.Mapping {
		m := mapping.New(mapping.KindWideFormat)
		m.Fields[matcher.FieldDate] = "Date"
		m.Fields[matcher.FieldDescription] = "Description"
		m.Fields[matcher.FieldMemberName] = "Who"
		m.CategoryColumns = []string{"Grocerys", "Eating Out"}
		m.CategoryBindings["Grocerys"] = "1"
		return m
	}

	t.Run("row fans out per non-zero category cell", func(t *testing.T) {
		rows := []parser.RawRow{{
			"Date":        "2024-03-15",
			"Description": "March week 3",
			"Who":         "Asha",
			"Grocerys":    "42.50",
			"Eating Out":  "18.00",
		}}

		res, err := Transform(wideMapping(), rows, defaults, catalog)
		require.NoError(t, err)
		require.Len(t, res.Expenses, 2)

		grocery, eatingOut := res.Expenses[0], res.Expenses[1]
		require.NotNil(t, grocery.CategoryID)
		assert.Equal(t, "1", *grocery.CategoryID)
		assert.Equal(t, "Grocery", grocery.CategoryName)

		assert.Nil(t, eatingOut.CategoryID)
		assert.Equal(t, "Eating Out", eatingOut.CategoryName, "unbound column keeps header text")

		assert.NotEqual(t, grocery.ID, eatingOut.ID)
		assert.Equal(t, grocery.Date, eatingOut.Date)
		assert.Equal(t, "March week 3", eatingOut.Description)
	})

	t.Run("empty category cells are skipped", func(t *testing.T) {
		rows := []parser.RawRow{{
			"Date": "2024-03-15", "Description": "x", "Grocerys": "10", "Eating Out": "",
		}}

		res, err := Transform(wideMapping(), rows, defaults, catalog)
		require.NoError(t, err)
		assert.Len(t, res.Expenses, 1)
		assert.Equal(t, 1, res.Skipped)
	})

	t.Run("wide mapping without category columns fails", func(t *testing.T) {
		m := mapping.New(mapping.KindWideFormat)
		m.Fields[matcher.FieldDescription] = "Description"
		_, err := Transform(m, nil, defaults, catalog)
		assert.ErrorIs(t, err, mapping.ErrNoCategoryColumns)
	})
}
