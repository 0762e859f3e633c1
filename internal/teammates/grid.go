// Package teammates locates the labeled sections of a peer-assessment export
// and extracts typed records from them. It works on an already decoded grid of
// text cells and never touches files, the network or the database.
package teammates

import (
	"strings"
)

// Grid is a decoded export: rows of text cells. Rows may have uneven lengths.
type Grid [][]string

// Pos is a row index into a Grid. Scanning operations take a Pos and return
// the next one; no cursor is shared between scans.
type Pos int

// Cell returns the trimmed text at (row, col), or "" when out of range.
func (g Grid) Cell(row Pos, col int) string {
	if row < 0 || int(row) >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return strings.TrimSpace(g[row][col])
}

// Row returns the raw cells of a row, or nil when out of range.
func (g Grid) Row(row Pos) []string {
	if row < 0 || int(row) >= len(g) {
		return nil
	}
	return g[row]
}

// End is the position just past the last row.
func (g Grid) End() Pos { return Pos(len(g)) }

// IsBlank reports whether every cell of the row is empty after trimming.
// Rows past the end count as blank.
func (g Grid) IsBlank(row Pos) bool {
	for _, c := range g.Row(row) {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// norm lowercases, collapses whitespace runs and trims.
func norm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Matcher decides whether a row is an anchor.
type Matcher func(g Grid, row Pos) bool

// FindAnchor returns the first row in [from, limit) accepted by match.
func (g Grid) FindAnchor(from, limit Pos, match Matcher) (Pos, bool) {
	if limit > g.End() {
		limit = g.End()
	}
	for r := from; r < limit; r++ {
		if match(g, r) {
			return r, true
		}
	}
	return limit, false
}

// SkipBlank returns the first non-blank row in [from, limit), or limit.
func (g Grid) SkipBlank(from, limit Pos) Pos {
	if limit > g.End() {
		limit = g.End()
	}
	r := from
	for r < limit && g.IsBlank(r) {
		r++
	}
	return r
}

// RowsUntilBlank returns the half-open range [from, to) of consecutive rows
// that are neither blank nor accepted by stop, bounded by limit.
func (g Grid) RowsUntilBlank(from, limit Pos, stop Matcher) (Pos, Pos) {
	if limit > g.End() {
		limit = g.End()
	}
	r := from
	for r < limit && !g.IsBlank(r) {
		if stop != nil && stop(g, r) {
			break
		}
		r++
	}
	return from, r
}

func label(cell string) string {
	return strings.TrimSuffix(norm(cell), ":")
}

// Anchor matchers. All compare the first cell only.

func isCourse(g Grid, r Pos) bool {
	first := g.Cell(r, 0)
	if i := strings.Index(first, ","); i >= 0 {
		first = first[:i]
	}
	return label(first) == "course"
}

func isSessionName(g Grid, r Pos) bool {
	return label(g.Cell(r, 0)) == "session name"
}

func isQuestion(g Grid, r Pos) bool {
	return strings.HasPrefix(norm(g.Cell(r, 0)), "question ")
}

func isSummaryStatistics(g Grid, r Pos) bool {
	return label(g.Cell(r, 0)) == "summary statistics"
}

func isNonSubmitters(g Grid, r Pos) bool {
	return norm(g.Cell(r, 0)) == "participants who have not responded to any question"
}

// headerMatcher accepts rows whose first two cells start with the given
// lowercase prefixes.
func headerMatcher(first, second string) Matcher {
	return func(g Grid, r Pos) bool {
		return strings.HasPrefix(norm(g.Cell(r, 0)), first) &&
			strings.HasPrefix(norm(g.Cell(r, 1)), second)
	}
}

var (
	isSummaryHeader      = headerMatcher("team", "recipient")
	isNonSubmitterHeader = headerMatcher("team", "name")
)

func isEmbeddedHeader(g Grid, r Pos) bool {
	return strings.HasPrefix(norm(g.Cell(r, 0)), "team,giver")
}

func endsSummaryData(g Grid, r Pos) bool {
	return isEmbeddedHeader(g, r) || isQuestion(g, r)
}
