// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"strings"
	"time"
)

// DateRangeQuery builds a submittedDate query covering start through end
// inclusive, optionally restricted to categories.
func DateRangeQuery(start, end time.Time, categories []string) string {
	q := fmt.Sprintf("submittedDate:[%s0000 TO %s2359]",
		start.Format("20060102"), end.Format("20060102"))
	if cat := CategoryQuery(categories); cat != "" {
		q = fmt.Sprintf("%s AND (%s)", q, cat)
	}
	return q
}

// RecentQuery builds a query for the trailing daysBack days.
func RecentQuery(daysBack int, categories []string) string {
	end := time.Now()
	start := end.AddDate(0, 0, -daysBack)
	return DateRangeQuery(start, end, categories)
}

// CategoryQuery ORs together cat: terms for the given categories. Empty
// input yields an empty string.
func CategoryQuery(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	terms := make([]string, 0, len(categories))
	for _, c := range categories {
		terms = append(terms, "cat:"+c)
	}
	return strings.Join(terms, " OR ")
}
