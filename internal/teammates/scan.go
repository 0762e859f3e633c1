package teammates

// SectionKind names which part of an export a Section holds.
type SectionKind string

const (
	KindCourse        SectionKind = "course"
	KindSessionName   SectionKind = "session_name"
	KindCriterion     SectionKind = "criterion"
	KindNonSubmitters SectionKind = "non_submitters"
)

// Section is a located region of the grid. Start is the anchor row; End is
// exclusive.
type Section struct {
	Kind  SectionKind
	Start Pos
	End   Pos
}

// Scan locates the sections of an export in document order.
//
// Course and Session Name must be present; otherwise a *StructuralError lists
// every one that is missing. Each search resumes after the last consumed
// anchor, so earlier rows are never re-read.
func Scan(g Grid) ([]Section, error) {
	var (
		out     []Section
		missing []string
		pos     Pos
	)

	if r, ok := g.FindAnchor(pos, g.End(), isCourse); ok {
		out = append(out, Section{Kind: KindCourse, Start: r, End: r + 1})
		pos = r + 1
	} else {
		missing = append(missing, SectionCourse)
	}

	if r, ok := g.FindAnchor(pos, g.End(), isSessionName); ok {
		out = append(out, Section{Kind: KindSessionName, Start: r, End: r + 1})
		pos = r + 1
	} else {
		missing = append(missing, SectionSessionName)
	}

	if len(missing) > 0 {
		return nil, &StructuralError{Missing: missing}
	}

	criteria := scanCriteria(g, pos)
	if n := len(criteria); n > 0 {
		out = append(out, criteria...)
		pos = criteria[n-1].Start + 1
	}

	if r, ok := g.FindAnchor(pos, g.End(), isNonSubmitters); ok {
		out = append(out, Section{Kind: KindNonSubmitters, Start: r, End: nonSubmittersEnd(g, r)})
	}
	return out, nil
}

// scanCriteria returns one section per "question " anchor at or after from.
// A block runs up to the next question anchor or the end of the grid.
func scanCriteria(g Grid, from Pos) []Section {
	var out []Section
	start, ok := g.FindAnchor(from, g.End(), isQuestion)
	for ok {
		var next Pos
		next, ok = g.FindAnchor(start+1, g.End(), isQuestion)
		out = append(out, Section{Kind: KindCriterion, Start: start, End: next})
		start = next
	}
	return out
}

// nonSubmittersEnd is the row after the table that follows the title, or the
// row after the title when no table follows.
func nonSubmittersEnd(g Grid, title Pos) Pos {
	hdr := g.SkipBlank(title+1, g.End())
	if hdr >= g.End() {
		return title + 1
	}
	_, to := g.RowsUntilBlank(hdr, g.End(), nil)
	return to
}
