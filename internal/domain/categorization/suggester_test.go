package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

func testCatalog(t *testing.T) *refdata.Catalog {
	t.Helper()
	catalog, err := refdata.Load()
	require.NoError(t, err)
	return catalog
}

func TestSuggesterKeywords(t *testing.T) {
	s := NewSuggester(testCatalog(t))

	t.Run("curated keyword hit", func(t *testing.T) {
		got := s.Suggest("COSTCO WHSE #1021 SAN JOSE")
		require.NotEmpty(t, got)
		assert.Equal(t, "tag", got[0].Kind)
		assert.Equal(t, "costco", got[0].ID)
		assert.Equal(t, "COSTCO WHSE", got[0].Keyword)
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := s.Suggest("amzn mktp us*1234")
		require.NotEmpty(t, got)
		assert.Equal(t, "amazon", got[0].ID)
	})

	t.Run("category name in description", func(t *testing.T) {
		got := s.Suggest("monthly grocery run")
		var category *Suggestion
		for i := range got {
			if got[i].Kind == "category" {
				category = &got[i]
			}
		}
		require.NotNil(t, category)
		assert.Equal(t, "Grocery", category.Name)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, s.Suggest("zzzzz qqqqq"))
	})

	t.Run("at most one suggestion per kind", func(t *testing.T) {
		// doordash and ubereats both map to the Restaurant tag
		got := s.Suggest("doordash order via ubereats")
		tagCount := 0
		for _, sg := range got {
			if sg.Kind == "tag" {
				tagCount++
			}
		}
		assert.Equal(t, 1, tagCount)
	})
}

func TestSuggestAllOrdering(t *testing.T) {
	s := NewSuggester(testCatalog(t))

	got := s.SuggestAll("costco gas station")
	require.GreaterOrEqual(t, len(got), 2)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Priority, got[i].Priority)
	}
	// The longer curated keyword outranks the bare tag name.
	assert.Equal(t, "COSTCO GAS", got[0].Keyword)
}

func TestSuggestBatch(t *testing.T) {
	s := NewSuggester(testCatalog(t))

	got := s.SuggestBatch([]string{"walmart grocery", "nothing here", "paypal *vendor"})
	require.Len(t, got, 3)
	assert.NotEmpty(t, got[0])
	assert.Nil(t, got[1])
	require.NotEmpty(t, got[2])
	assert.Equal(t, "online", got[2][0].ID)
}

func TestEmptyCatalog(t *testing.T) {
	s := NewSuggester(refdata.NewCatalog(nil, nil, nil))
	assert.Equal(t, 0, s.PatternCount())
	assert.Nil(t, s.Suggest("costco"))
}
