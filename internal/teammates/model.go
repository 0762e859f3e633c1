package teammates

type Course struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Term  string `json:"term"`
}

// ParsedDocument is the result of one parse call. Callers treat it as read-only.
type ParsedDocument struct {
	Course         Course          `json:"course"`
	SessionName    string          `json:"sessionName"`
	Criteria       []Criterion     `json:"criteria"`
	NonSubmissions []NonSubmission `json:"nonSubmissions"`

	// Malformed lists sections whose anchor was found but whose header did
	// not have the expected shape. They yielded zero records.
	Malformed []MalformedSection `json:"malformed,omitempty"`
}

type Criterion struct {
	QuestionNo  int          `json:"questionNo"`
	Label       string       `json:"label"`
	SummaryRows []SummaryRow `json:"summaryRows"`
}

// SummaryRow is one recipient's received scores for one criterion.
// (Team, Recipient) is not unique; duplicates are kept as exported.
type SummaryRow struct {
	Team           string  `json:"team"`
	Recipient      string  `json:"recipient"`
	RecipientEmail string  `json:"recipientEmail,omitempty"`
	TotalPoints    float64 `json:"totalPoints"`
	AveragePoints  Value   `json:"averagePoints"`
	PerIndexScores []Value `json:"perIndexScores"`
}

type NonSubmission struct {
	Team  string `json:"team"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
