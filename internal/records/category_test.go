package records

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoice-dashboard/internal/documents"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"Online MARKETING campaign", documents.CategoryMarketing},
		{"Advertising space Q3", documents.CategoryMarketing},
		{"Facility cleaning", documents.CategoryFacilities},
		{"Shared facilities fee", documents.CategoryFacilities},
		{"Office RENT March", documents.CategoryFacilities},
		{"Marketing event at rented facility", documents.CategoryMarketing},
		{"Consulting hours", documents.CategoryOperations},
		{"", documents.CategoryOperations},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Categorize(tc.description), tc.description)
	}
}
