package teammates

import (
	"regexp"
	"strings"
)

// hyphen, en dash, em dash
var courseSep = regexp.MustCompile(`\s*[-–—]\s*`)

// extractCourse reads course identity from the anchor row. The strategies are
// tried in a fixed order and the first one that applies wins:
//
//  1. split the adjacent cell on dashes into code, title and term;
//  2. if that leaves no code and the cell has a comma, split on commas;
//  3. if the adjacent cell is empty, take code/title/term positionally from
//     it and the two cells after it;
//  4. otherwise, if the anchor cell itself holds "Course, <text>", split the
//     text after the first comma on dashes.
//
// Fields that no strategy fills stay empty.
func extractCourse(g Grid, r Pos) Course {
	b, c, d := g.Cell(r, 1), g.Cell(r, 2), g.Cell(r, 3)
	switch {
	case b != "":
		co := splitCourse(b, courseSep)
		if co.Code == "" && strings.Contains(b, ",") {
			co = splitCourse(b, nil)
		}
		return co
	case c != "" || d != "":
		return Course{Code: b, Title: c, Term: d}
	}

	first := g.Cell(r, 0)
	if i := strings.Index(first, ","); i >= 0 {
		if rest := strings.TrimSpace(first[i+1:]); rest != "" {
			return splitCourse(rest, courseSep)
		}
	}
	return Course{}
}

// splitCourse splits s on sep, or on commas when sep is nil. Parts beyond the
// second are joined back into the term.
func splitCourse(s string, sep *regexp.Regexp) Course {
	var parts []string
	if sep != nil {
		parts = sep.Split(s, -1)
	} else {
		parts = strings.Split(s, ",")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var co Course
	if len(parts) > 0 {
		co.Code = parts[0]
	}
	if len(parts) > 1 {
		co.Title = parts[1]
	}
	if len(parts) > 2 {
		co.Term = strings.TrimSpace(strings.Join(parts[2:], " - "))
	}
	return co
}
