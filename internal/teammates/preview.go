package teammates

// SummaryCount is the number of summary rows extracted for one criterion.
type SummaryCount struct {
	QuestionNo  int `json:"questionNo"`
	SummaryRows int `json:"summaryRows"`
}

// SummaryCounts lists per-criterion summary row counts in document order.
func (d ParsedDocument) SummaryCounts() []SummaryCount {
	out := make([]SummaryCount, 0, len(d.Criteria))
	for _, c := range d.Criteria {
		out = append(out, SummaryCount{QuestionNo: c.QuestionNo, SummaryRows: len(c.SummaryRows)})
	}
	return out
}

// MissingRequired names the identity fields an upload cannot be stored
// without. A document can parse successfully and still miss some of them.
func (d ParsedDocument) MissingRequired() []string {
	var miss []string
	if d.Course.Code == "" {
		miss = append(miss, "Course code")
	}
	if d.Course.Title == "" {
		miss = append(miss, "Course title")
	}
	if d.SessionName == "" {
		miss = append(miss, "Session name")
	}
	return miss
}
