package teammates

import (
	"fmt"
	"strings"
)

const (
	SectionCourse      = "Course"
	SectionSessionName = "Session Name"
)

// StructuralError aborts a parse: a required section is missing.
type StructuralError struct {
	Missing []string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("export does not contain required section(s): %s", strings.Join(e.Missing, ", "))
}

// MalformedSection records a section whose anchor was found but whose header
// row did not match. It is informational; the parse continues.
type MalformedSection struct {
	Kind       SectionKind `json:"kind"`
	Row        int         `json:"row"`
	QuestionNo int         `json:"questionNo,omitempty"`
	Reason     string      `json:"reason"`
}

func (m MalformedSection) Error() string {
	return fmt.Sprintf("%s section at row %d: %s", m.Kind, m.Row+1, m.Reason)
}
