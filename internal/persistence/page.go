// Package persistence contains helpers shared by repository implementations.
package persistence

import (
	"strings"
	"time"
)

// NormalizePage maps page numbers below one to the first page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Offset returns the number of rows preceding a 1-based page.
func Offset(page, size int) int {
	return (NormalizePage(page) - 1) * size
}

// Window returns the [start, end) slice bounds of a 1-based page over n items.
// Pages past the end yield an empty window.
func Window(page, size, n int) (int, int) {
	start := Offset(page, size)
	if start >= n {
		return n, n
	}
	end := start + size
	if end > n {
		end = n
	}
	return start, end
}

// DayBounds returns the start of the calendar day containing t and the start of the
// following day, both in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// DayKey formats the calendar day of t in t's location.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so the query matches literally.
func EscapeLike(query string) string {
	return likeEscaper.Replace(query)
}
