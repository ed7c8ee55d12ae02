package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaledger/casa-ledger/internal/domain/import/mapping"
	"github.com/casaledger/casa-ledger/internal/domain/import/matcher"
	"github.com/casaledger/casa-ledger/internal/domain/import/parser"
	"github.com/casaledger/casa-ledger/internal/domain/import/transform"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

func testCatalog() *refdata.Catalog {
	return refdata.NewCatalog(
		[]refdata.Category{{ID: "1", Name: "Grocery"}, {ID: "2", Name: "Travel"}},
		nil, nil,
	)
}

func standardDoc() *parser.Document {
	return &parser.Document{
		Headers: []string{"Date", "Amount", "Description", "Category"},
		Rows: []parser.RawRow{
			{"Date": "2024-03-15", "Amount": "42.50", "Description": "Coffee Shop", "Category": "Grocery"},
		},
	}
}

func wideDoc() *parser.Document {
	return &parser.Document{
		Headers: []string{"Date", "Description", "Grocerys", "Travel"},
		Rows: []parser.RawRow{
			{"Date": "2024-03-15", "Description": "week 3", "Grocerys": "42.50", "Travel": "100"},
		},
	}
}

func TestSessionFlow(t *testing.T) {
	s := New(testCatalog())

	t.Run("starts in upload with current month defaults", func(t *testing.T) {
		assert.Equal(t, StepUpload, s.Step())
		now := time.Now()
		assert.Equal(t, now.Year(), s.Defaults().Year)
		assert.Equal(t, now.Month(), s.Defaults().Month)
	})

	t.Run("load requires a layout", func(t *testing.T) {
		assert.ErrorIs(t, s.Load(standardDoc()), ErrNoLayout)
	})

	t.Run("load auto-maps and advances to map", func(t *testing.T) {
		s.SetLayout(mapping.LayoutStandardWithCategory)
		require.NoError(t, s.Load(standardDoc()))
		assert.Equal(t, StepMap, s.Step())
		assert.Equal(t, "Amount", s.Mapping().Fields[matcher.FieldAmount])
	})

	t.Run("complete transforms and advances to preview", func(t *testing.T) {
		result, err := s.CompleteMapping()
		require.NoError(t, err)
		assert.Equal(t, StepPreview, s.Step())
		require.Len(t, result.Expenses, 1)
		assert.Equal(t, "Coffee Shop", result.Expenses[0].Description)
	})

	t.Run("back from preview keeps the document", func(t *testing.T) {
		s.Back()
		assert.Equal(t, StepMap, s.Step())
		assert.Nil(t, s.Result())
		assert.NotNil(t, s.Document())
	})

	t.Run("back from map discards the document", func(t *testing.T) {
		s.Back()
		assert.Equal(t, StepUpload, s.Step())
		assert.Nil(t, s.Document())
	})
}

func TestSessionGating(t *testing.T) {
	s := New(testCatalog())

	t.Run("edits rejected before upload", func(t *testing.T) {
		assert.ErrorIs(t, s.SelectField(matcher.FieldAmount, "Amount"), ErrWrongStep)
		assert.ErrorIs(t, s.ToggleCategoryColumn("Grocery", true), ErrWrongStep)
	})

	t.Run("complete rejected before upload", func(t *testing.T) {
		_, err := s.CompleteMapping()
		assert.ErrorIs(t, err, ErrWrongStep)
	})

	t.Run("validation failure stays in map", func(t *testing.T) {
		s.SetLayout(mapping.LayoutStandard)
		doc := &parser.Document{
			Headers: []string{"When", "What"},
			Rows:    []parser.RawRow{{"When": "2024-01-01", "What": "thing"}},
		}
		require.NoError(t, s.Load(doc))
		require.NoError(t, s.SelectField(matcher.FieldAmount, mapping.ColumnNone))

		_, err := s.CompleteMapping()
		assert.ErrorIs(t, err, mapping.ErrAmountUnmapped)
		assert.Equal(t, StepMap, s.Step())
		assert.Nil(t, s.Result())
	})

	t.Run("category operations need a wide mapping", func(t *testing.T) {
		assert.ErrorIs(t, s.ToggleCategoryColumn("x", true), ErrNotWideForm)
		assert.ErrorIs(t, s.SetCategoryBinding("x", "1"), ErrNotWideForm)
	})
}

func TestSessionWideFlow(t *testing.T) {
	s := New(testCatalog())
	s.SetLayout(mapping.LayoutWideFormat)
	require.NoError(t, s.Load(wideDoc()))

	m := s.Mapping()
	assert.Equal(t, []string{"Grocerys", "Travel"}, m.CategoryColumns)
	assert.Equal(t, "1", m.CategoryBindings["Grocerys"])

	require.NoError(t, s.ToggleCategoryColumn("Travel", false))
	result, err := s.CompleteMapping()
	require.NoError(t, err)
	assert.Len(t, result.Expenses, 1, "excluded column does not fan out")
}

func TestSessionLayoutChange(t *testing.T) {
	s := New(testCatalog())
	s.SetLayout(mapping.LayoutStandardWithCategory)
	require.NoError(t, s.Load(wideDoc()))
	assert.Equal(t, mapping.KindStandard, s.Mapping().Kind)

	// Switching layouts mid-session re-proposes the mapping.
	s.SetLayout(mapping.LayoutWideFormat)
	assert.Equal(t, mapping.KindWideFormat, s.Mapping().Kind)
	assert.NotEmpty(t, s.Mapping().CategoryColumns)
}

func TestSessionReset(t *testing.T) {
	s := New(testCatalog())
	s.SetLayout(mapping.LayoutStandardWithCategory)
	require.NoError(t, s.Load(standardDoc()))
	s.SetDefaults(transform.Defaults{Month: time.January, Year: 2020})

	_, err := s.CompleteMapping()
	require.NoError(t, err)

	s.Reset()
	assert.Equal(t, StepUpload, s.Step())
	assert.Nil(t, s.Document())
	assert.Nil(t, s.Result())
	assert.NotEqual(t, 2020, s.Defaults().Year)
}
