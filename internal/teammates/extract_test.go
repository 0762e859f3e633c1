package teammates_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradeassist/internal/teammates"
)

func sampleExport() teammates.Grid {
	return teammates.Grid{
		{"Course", "CS101 - Software Engineering - 2024S1"},
		{""},
		{"Session Name", "  Peer Review 1 "},
		{},
		{"Question 1", "Contribution to the team"},
		{},
		{"Summary Statistics"},
		{},
		{"Team", "Recipient", "Recipient's Email", "Total Points", "Average Points", "Giver 1", "Giver 2", "Giver 3"},
		{"Team A", "Alice", "alice@uni.edu", "300", "100", "100", "", "100", "", ""},
		{"Team A", "Bob", "bob@uni.edu", "270", "90", "No Response", "90", "90"},
		{"Team B", "Cara", "", "110", "110", "110"},
		{"", "", "", "", ""},
		{"Question 2:", "Communication"},
		{"Summary Statistics"},
		{"Team", "Recipient", "Recipient's Email", "Total Points", "Average Points", "Giver 1"},
		{"Team A", "Alice", "alice@uni.edu", "95", "95", "95"},
		{"Team A", "Alice", "alice@uni.edu", "95", "95", "95"},
		{"Team B", "Cara", "", "abc", "", "n/a"},
		{},
		{"Participants who have not responded to any question"},
		{},
		{"Team", "Name", "Email"},
		{"Team A", "Bob", "bob@uni.edu"},
		{"Team B", "Dan", ""},
		{"Team B", "Dan", ""},
	}
}

func TestParseFullExport(t *testing.T) {
	doc, err := teammates.Parse(sampleExport())
	require.NoError(t, err)

	assert.Equal(t, teammates.Course{Code: "CS101", Title: "Software Engineering", Term: "2024S1"}, doc.Course)
	assert.Equal(t, "Peer Review 1", doc.SessionName)
	require.Len(t, doc.Criteria, 2)
	assert.Empty(t, doc.Malformed)

	q1 := doc.Criteria[0]
	assert.Equal(t, 1, q1.QuestionNo)
	assert.Equal(t, "Contribution to the team", q1.Label)
	require.Len(t, q1.SummaryRows, 3)

	alice := q1.SummaryRows[0]
	assert.Equal(t, "Team A", alice.Team)
	assert.Equal(t, "Alice", alice.Recipient)
	assert.Equal(t, "alice@uni.edu", alice.RecipientEmail)
	assert.Equal(t, 300.0, alice.TotalPoints)
	assert.Equal(t, teammates.Num(100), alice.AveragePoints)

	bob := q1.SummaryRows[1]
	assert.Equal(t, []teammates.Value{teammates.Absent, teammates.Num(90), teammates.Num(90)}, bob.PerIndexScores)

	q2 := doc.Criteria[1]
	assert.Equal(t, 2, q2.QuestionNo)
	require.Len(t, q2.SummaryRows, 3, "duplicate rows are preserved")
	assert.Equal(t, q2.SummaryRows[0], q2.SummaryRows[1])

	cara := q2.SummaryRows[2]
	assert.Equal(t, 0.0, cara.TotalPoints, "unparsable total defaults to 0")
	assert.False(t, cara.AveragePoints.Present)
	assert.Empty(t, cara.PerIndexScores)

	assert.Equal(t, []teammates.NonSubmission{
		{Team: "Team A", Name: "Bob", Email: "bob@uni.edu"},
		{Team: "Team B", Name: "Dan"},
		{Team: "Team B", Name: "Dan"},
	}, doc.NonSubmissions)
}

func TestTrailingBlankScoresAreTrimmedInteriorKept(t *testing.T) {
	doc, err := teammates.Parse(sampleExport())
	require.NoError(t, err)

	alice := doc.Criteria[0].SummaryRows[0]
	assert.Equal(t, []teammates.Value{
		teammates.Num(100),
		teammates.Absent,
		teammates.Num(100),
	}, alice.PerIndexScores)
	assert.False(t, alice.PerIndexScores[1].Present)
	assert.Equal(t, 0.0, alice.PerIndexScores[1].Num)
}

func TestParseIsRepeatable(t *testing.T) {
	g := sampleExport()
	first, err := teammates.Parse(g)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := teammates.Parse(g)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMissingRequiredSections(t *testing.T) {
	tests := []struct {
		name    string
		grid    teammates.Grid
		missing []string
	}{
		{
			name:    "empty grid",
			grid:    teammates.Grid{},
			missing: []string{"Course", "Session Name"},
		},
		{
			name:    "no course",
			grid:    teammates.Grid{{"Session Name", "S1"}, {"Question 1", "x"}},
			missing: []string{"Course"},
		},
		{
			name:    "no session",
			grid:    teammates.Grid{{"Course", "CS1 - T - X"}, {"Question 1", "x"}},
			missing: []string{"Session Name"},
		},
		{
			name:    "session before course is not found",
			grid:    teammates.Grid{{"Session Name", "S1"}, {"Course", "CS1 - T - X"}},
			missing: []string{"Session Name"},
		},
		{
			name:    "empty session name",
			grid:    teammates.Grid{{"Course", "CS1 - T - X"}, {"Session Name", "   "}},
			missing: []string{"Session Name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := teammates.Parse(tt.grid)
			require.Error(t, err)
			var se *teammates.StructuralError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.missing, se.Missing)
		})
	}
}

func TestOptionalSectionsMayBeAbsent(t *testing.T) {
	doc, err := teammates.Parse(teammates.Grid{
		{"course:", "CS2 - Algorithms - 2025"},
		{"SESSION   NAME", "Final"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CS2", doc.Course.Code)
	assert.Equal(t, "Final", doc.SessionName)
	assert.Empty(t, doc.Criteria)
	assert.Empty(t, doc.NonSubmissions)
	assert.Empty(t, doc.Malformed)
}

func TestSummaryHeaderMismatchYieldsNoRows(t *testing.T) {
	doc, err := teammates.Parse(teammates.Grid{
		{"Course", "CS1 - T - X"},
		{"Session Name", "S"},
		{"Question 3", "Effort"},
		{"Summary Statistics"},
		{""},
		{"Recipient", "Team", "Total"},
		{"Alice", "Team A", "10"},
	})
	require.NoError(t, err)
	require.Len(t, doc.Criteria, 1)
	assert.Equal(t, 3, doc.Criteria[0].QuestionNo)
	assert.Empty(t, doc.Criteria[0].SummaryRows)
	require.Len(t, doc.Malformed, 1)
	assert.Equal(t, teammates.KindCriterion, doc.Malformed[0].Kind)
	assert.Equal(t, 3, doc.Malformed[0].QuestionNo)
}

func TestCriterionWithoutSummaryMarker(t *testing.T) {
	doc, err := teammates.Parse(teammates.Grid{
		{"Course", "CS1 - T - X"},
		{"Session Name", "S"},
		{"Question 1", "Effort"},
		{"Team", "Recipient", "", "10"},
		{"Team A", "Alice", "", "10"},
	})
	require.NoError(t, err)
	require.Len(t, doc.Criteria, 1)
	assert.Empty(t, doc.Criteria[0].SummaryRows)
	assert.Empty(t, doc.Malformed)
}

func TestSummaryDataStopsAtEmbeddedHeaderAndNextQuestion(t *testing.T) {
	doc, err := teammates.Parse(teammates.Grid{
		{"Course", "CS1 - T - X"},
		{"Session Name", "S"},
		{"Question 1", "Effort"},
		{"Summary Statistics"},
		{"Team", "Recipient", "", "Total", "Avg", "1"},
		{"Team A", "Alice", "", "10", "10", "10"},
		{"Team,Giver", "x"},
		{"Team A", "Bob", "", "10", "10", "10"},
		{"", ""},
		{"Question 2", "Quality"},
		{"Summary Statistics"},
		{"TEAM", "RECIPIENT NAME"},
		{"Team A", "Bob", "", "8", "8", "8"},
		{"question 3", "Attitude"},
	})
	require.NoError(t, err)
	require.Len(t, doc.Criteria, 3)
	require.Len(t, doc.Criteria[0].SummaryRows, 1)
	assert.Equal(t, "Alice", doc.Criteria[0].SummaryRows[0].Recipient)
	require.Len(t, doc.Criteria[1].SummaryRows, 1)
	assert.Equal(t, "Bob", doc.Criteria[1].SummaryRows[0].Recipient)
	assert.Empty(t, doc.Criteria[2].SummaryRows)
}

func TestNonSubmittersWithoutHeader(t *testing.T) {
	doc, err := teammates.Parse(teammates.Grid{
		{"Course", "CS1 - T - X"},
		{"Session Name", "S"},
		{"Participants who have not responded to any question"},
		{"Alice", "Team A"},
	})
	require.NoError(t, err)
	assert.Empty(t, doc.NonSubmissions)
	require.Len(t, doc.Malformed, 1)
	assert.Equal(t, teammates.KindNonSubmitters, doc.Malformed[0].Kind)
}

func TestSummaryCountsAndMissingRequired(t *testing.T) {
	doc, err := teammates.Parse(sampleExport())
	require.NoError(t, err)
	assert.Equal(t, []teammates.SummaryCount{
		{QuestionNo: 1, SummaryRows: 3},
		{QuestionNo: 2, SummaryRows: 3},
	}, doc.SummaryCounts())
	assert.Empty(t, doc.MissingRequired())

	doc, err = teammates.Parse(teammates.Grid{
		{"Course", "", "", ""},
		{"Session Name", "S"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Course code", "Course title"}, doc.MissingRequired())
}
