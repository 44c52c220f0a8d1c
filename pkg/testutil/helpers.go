// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/cabida/internal/cabida"
)

// Float returns a pointer to v, for optional certificate and override fields.
func Float(v float64) *float64 {
	return &v
}

// FindRecommendation returns the first recommendation in the given category,
// or nil if there is none.
func FindRecommendation(recs []cabida.Recommendation, category cabida.Category) *cabida.Recommendation {
	for i := range recs {
		if recs[i].Category == category {
			return &recs[i]
		}
	}
	return nil
}

// CountRecommendations returns how many recommendations are in the given category.
func CountRecommendations(recs []cabida.Recommendation, category cabida.Category) int {
	n := 0
	for _, rec := range recs {
		if rec.Category == category {
			n++
		}
	}
	return n
}
