package mapping

import (
	"strings"

	"github.com/casaledger/casa-ledger/internal/domain/import/matcher"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

// AutoMap proposes a best-guess mapping from the parsed headers for the
// chosen layout. Each canonical field binds to the header whose nearest
// alias is globally closest, provided that distance is within
// matcher.FieldThreshold; ties keep the earliest header. A header already
// claimed by one field is not offered to later fields, so a mapping never
// binds two fields to the same column.
//
// For the wide-format layout, every header left unbound that does not look
// like a summary column becomes a category column; each is bound to the
// closest canonical category within matcher.CategoryThreshold, and left
// unbound (header text used as the category name) otherwise.
func AutoMap(headers []string, layout Layout, catalog *refdata.Catalog) Mapping {
	kind := KindForLayout(layout)
	m := New(kind)

	fields := matcher.StandardFields
	if kind == KindWideFormat {
		fields = matcher.BasicFields
	}

	claimed := make(map[int]bool, len(headers))
	for _, field := range fields {
		idx, dist := closestHeader(headers, field, claimed)
		if idx < 0 || dist > matcher.FieldThreshold {
			continue
		}
		m.Fields[field] = headers[idx]
		claimed[idx] = true
	}

	if kind != KindWideFormat {
		return m
	}

	names := catalog.CategoryNames()
	for i, header := range headers {
		if claimed[i] || !isCategoryColumnCandidate(header) {
			continue
		}
		m.CategoryColumns = append(m.CategoryColumns, header)
		if idx, dist := matcher.ClosestName(header, names); idx >= 0 && dist <= matcher.CategoryThreshold {
			if cat, ok := catalog.CategoryByName(names[idx]); ok {
				m.CategoryBindings[header] = cat.ID
			}
		}
	}

	return m
}

// closestHeader finds the unclaimed header nearest to any alias of field.
func closestHeader(headers []string, field matcher.Field, claimed map[int]bool) (int, int) {
	bestIdx, bestDist := -1, -1
	for i, header := range headers {
		if claimed[i] {
			continue
		}
		d := matcher.AliasDistance(header, field)
		if d < 0 {
			continue
		}
		if bestIdx < 0 || d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	return bestIdx, bestDist
}

// isCategoryColumnCandidate filters out summary/meta columns that carry
// totals rather than per-category amounts.
func isCategoryColumnCandidate(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" || strings.HasPrefix(h, "_") {
		return false
	}
	for _, word := range []string{"total", "earning", "expense"} {
		if strings.Contains(h, word) {
			return false
		}
	}
	return true
}
