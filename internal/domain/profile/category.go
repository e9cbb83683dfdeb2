// Package profile defines the matching-relevant view of a platform member.
package profile

import "strings"

// Category is a coarse role grouping used to measure team diversity above
// the granularity of exact role titles.
type Category string

// Known role categories.
const (
	CategoryDevelopment Category = "development"
	CategoryDesign      Category = "design"
	CategoryBusiness    Category = "business"
	CategoryData        Category = "data"
	CategorySupport     Category = "support"
	CategoryUnknown     Category = "unknown"
)

// categoryKeywords maps role-title substrings onto categories. Order matters:
// "data" and "design" are checked before the broad development bucket so
// titles like "Data Engineer" land in data rather than development.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryData, []string{"data", "machine learning", "ml ", " ml", "ai ", " ai", "analytics", "scientist"}},
	{CategoryDesign, []string{"design", " ux", " ui", "illustrat", "artist"}},
	{CategoryBusiness, []string{"product", "business", "marketing", "sales", "manager", "founder", "strategy"}},
	{CategorySupport, []string{"qa", "test", "support", "ops", "community", "writer", "documentation"}},
	{CategoryDevelopment, []string{"dev", "engineer", "program", "frontend", "backend", "fullstack", "full-stack", "mobile", "software", "architect"}},
}

// CategoryOf maps a primary role title onto its coarse category.
// Unrecognized or empty titles map to CategoryUnknown.
func CategoryOf(role string) Category {
	title := strings.ToLower(strings.TrimSpace(role))
	if title == "" {
		return CategoryUnknown
	}
	// Pad so word-boundary keywords like " ml" match at the edges too.
	padded := " " + title + " "
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(padded, kw) {
				return group.category
			}
		}
	}
	return CategoryUnknown
}
