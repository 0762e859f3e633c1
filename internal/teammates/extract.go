package teammates

import (
	"strconv"
	"strings"
)

// Parse scans and extracts an export in one call.
func Parse(g Grid) (ParsedDocument, error) {
	sections, err := Scan(g)
	if err != nil {
		return ParsedDocument{}, err
	}
	return Extract(g, sections)
}

// Extract builds a ParsedDocument from sections located by Scan. Only a
// missing course or session name fails; malformed optional sections are
// noted in ParsedDocument.Malformed and yield no records.
func Extract(g Grid, sections []Section) (ParsedDocument, error) {
	doc := ParsedDocument{
		Criteria:       []Criterion{},
		NonSubmissions: []NonSubmission{},
	}
	var haveCourse, haveSession bool

	for _, s := range sections {
		switch s.Kind {
		case KindCourse:
			doc.Course = extractCourse(g, s.Start)
			haveCourse = true
		case KindSessionName:
			doc.SessionName = g.Cell(s.Start, 1)
			haveSession = doc.SessionName != ""
		case KindCriterion:
			crit, bad := extractCriterion(g, s)
			doc.Criteria = append(doc.Criteria, crit)
			if bad != nil {
				doc.Malformed = append(doc.Malformed, *bad)
			}
		case KindNonSubmitters:
			ns, bad := extractNonSubmitters(g, s)
			doc.NonSubmissions = append(doc.NonSubmissions, ns...)
			if bad != nil {
				doc.Malformed = append(doc.Malformed, *bad)
			}
		}
	}

	var missing []string
	if !haveCourse {
		missing = append(missing, SectionCourse)
	}
	if !haveSession {
		missing = append(missing, SectionSessionName)
	}
	if len(missing) > 0 {
		return ParsedDocument{}, &StructuralError{Missing: missing}
	}
	return doc, nil
}

func extractCriterion(g Grid, s Section) (Criterion, *MalformedSection) {
	crit := Criterion{
		QuestionNo:  questionNo(g.Cell(s.Start, 0)),
		Label:       g.Cell(s.Start, 1),
		SummaryRows: []SummaryRow{},
	}

	marker, ok := g.FindAnchor(s.Start+1, s.End, isSummaryStatistics)
	if !ok {
		return crit, nil
	}

	hdr := marker + 1
	for hdr < s.End && g.Cell(hdr, 0) == "" {
		hdr++
	}
	if hdr >= s.End || !isSummaryHeader(g, hdr) {
		return crit, &MalformedSection{
			Kind:       KindCriterion,
			Row:        int(s.Start),
			QuestionNo: crit.QuestionNo,
			Reason:     "summary statistics header must start with Team, Recipient",
		}
	}

	from, to := g.RowsUntilBlank(hdr+1, s.End, endsSummaryData)
	for r := from; r < to; r++ {
		row := summaryRow(g.Row(r))
		if row.Team == "" && row.Recipient == "" {
			continue
		}
		crit.SummaryRows = append(crit.SummaryRows, row)
	}
	return crit, nil
}

// summaryRow maps cells positionally: team, recipient, email, total,
// average, then per-index scores.
func summaryRow(cells []string) SummaryRow {
	at := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	row := SummaryRow{
		Team:           at(0),
		Recipient:      at(1),
		RecipientEmail: at(2),
		TotalPoints:    Coerce(at(3)).Or(0),
		AveragePoints:  Coerce(at(4)),
		PerIndexScores: []Value{},
	}
	if len(cells) > 5 {
		row.PerIndexScores = coerceAll(cells[5:])
	}
	return row
}

// questionNo reads the integer after "Question" and before any colon or
// comma. Anything unparsable is 0.
func questionNo(cell string) int {
	s := strings.TrimSpace(cell)
	const prefix = "question"
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		s = s[len(prefix):]
	}
	if i := strings.IndexAny(s, ":,"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func extractNonSubmitters(g Grid, s Section) ([]NonSubmission, *MalformedSection) {
	hdr := g.SkipBlank(s.Start+1, g.End())
	if hdr >= g.End() || !isNonSubmitterHeader(g, hdr) {
		return nil, &MalformedSection{
			Kind:   KindNonSubmitters,
			Row:    int(s.Start),
			Reason: "non-submitters header must start with Team, Name",
		}
	}

	var out []NonSubmission
	from, to := g.RowsUntilBlank(hdr+1, s.End, nil)
	for r := from; r < to; r++ {
		ns := NonSubmission{
			Team:  g.Cell(r, 0),
			Name:  g.Cell(r, 1),
			Email: g.Cell(r, 2),
		}
		if ns.Team == "" && ns.Name == "" && ns.Email == "" {
			continue
		}
		out = append(out, ns)
	}
	return out, nil
}
