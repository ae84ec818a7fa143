package http

import (
	"net/http"
	"strings"
)

// parseYearMonth extracts year and month from query parameters.
// Returns current year/month as defaults if not provided or invalid.
func parseYearMonth(r *http.Request) (year, month int) {
	params := ParseMonthParams(r.URL.Query())
	return params.Year, params.Month
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
