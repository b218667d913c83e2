package usecase

import (
	"strings"

	"github.com/itembuilder/backend/internal/domain"
)

// CategoryMatcher assigns taxonomy entries to vendor category text.
// The first mapping entry whose Sub-Cat 1 is a case-insensitive substring of the
// vendor category wins; later entries are never considered, even if they are more specific.
type CategoryMatcher struct {
	entries  []domain.CategoryMappingEntry
	patterns []string
}

// NewCategoryMatcher prepares a matcher over table, keeping its order
func NewCategoryMatcher(table []domain.CategoryMappingEntry) *CategoryMatcher {
	patterns := make([]string, len(table))
	for i, entry := range table {
		patterns[i] = strings.ToLower(entry.SubCat1)
	}

	return &CategoryMatcher{
		entries:  table,
		patterns: patterns,
	}
}

// Match returns the taxonomy for vendorCategory, or the Uncategorized tuple
func (m *CategoryMatcher) Match(vendorCategory string) domain.Taxonomy {
	if vendorCategory == "" {
		return domain.UncategorizedTaxonomy()
	}

	input := strings.ToLower(vendorCategory)
	for i, pattern := range m.patterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(input, pattern) {
			entry := m.entries[i]
			return domain.Taxonomy{
				Category: entry.Category,
				SubCat1:  entry.SubCat1,
				SubCat2:  entry.SubCat2,
				SubCat3:  entry.SubCat3,
			}
		}
	}

	return domain.UncategorizedTaxonomy()
}

// MatchCategory is a one-shot form of CategoryMatcher.Match
func MatchCategory(vendorCategory string, table []domain.CategoryMappingEntry) domain.Taxonomy {
	return NewCategoryMatcher(table).Match(vendorCategory)
}
