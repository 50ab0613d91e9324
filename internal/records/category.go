package records

import (
	"strings"

	"invoice-dashboard/internal/documents"
)

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{documents.CategoryMarketing, []string{"marketing", "advertising"}},
	{documents.CategoryFacilities, []string{"facility", "facilities", "rent"}},
}

// Categorize classifies a line item description. Rules are checked in
// order and the first match wins; anything else is Operations.
func Categorize(description string) string {
	desc := strings.ToLower(description)
	for _, rule := range categoryKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(desc, kw) {
				return rule.category
			}
		}
	}
	return documents.CategoryOperations
}
