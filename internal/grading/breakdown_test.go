package grading_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradeassist/internal/grading"
)

func single(t *testing.T, agg grading.StudentAggregate, size int, gm *float64, ns bool, cfg grading.Config) grading.BreakdownRow {
	t.Helper()
	marks := map[string]float64{}
	if gm != nil {
		marks[agg.Team] = *gm
	}
	flags := map[grading.StudentKey]bool{}
	if ns {
		flags[grading.StudentKey{Team: agg.Team, Student: agg.Student}] = true
	}
	rows := grading.Breakdown([]grading.StudentAggregate{agg}, map[string]int{agg.Team: size}, marks, flags, cfg)
	require.Len(t, rows, 1)
	return rows[0]
}

func ptr(v float64) *float64 { return &v }

func TestBreakdownScenarioA(t *testing.T) {
	row := single(t,
		grading.StudentAggregate{Team: "T1", Student: "Alice", AveragePoints: 132.00},
		4, ptr(80), false,
		grading.Config{PAWeightPercent: 40, NumCriteria: 4},
	)
	assert.Equal(t, 1.32, row.PAScore)
	assert.Equal(t, 106, row.WeightedMark)
	assert.Equal(t, 90, row.IndividualMark)
	assert.Equal(t, 90, row.FinalMark)
	assert.False(t, row.PANotSubmitted)
	require.NotNil(t, row.GroupMark)
	assert.Equal(t, 80.0, *row.GroupMark)
}

func TestBreakdownScenarioB(t *testing.T) {
	row := single(t,
		grading.StudentAggregate{Team: "T2", Student: "Bob", AveragePoints: 86.50},
		5, ptr(91), true,
		grading.Config{PAWeightPercent: 30, NumCriteria: 4, PenaltyPercent: 10},
	)
	assert.Equal(t, 1.08, row.PAScore)
	assert.Equal(t, 98, row.WeightedMark)
	assert.Equal(t, 93, row.IndividualMark)
	assert.True(t, row.PANotSubmitted)
	assert.Equal(t, 84, row.FinalMark)
}

func TestPenaltyRoundsBeforeSubtracting(t *testing.T) {
	// 10% of 85 is 8.5, rounded to 9 before subtracting: 76, not round(76.5) = 77.
	row := single(t,
		grading.StudentAggregate{Team: "T", Student: "S", AveragePoints: 100},
		4, ptr(85), true,
		grading.Config{PAWeightPercent: 0, NumCriteria: 4, PenaltyPercent: 10},
	)
	assert.Equal(t, 1.0, row.PAScore)
	assert.Equal(t, 85, row.IndividualMark)
	assert.Equal(t, 76, row.FinalMark)
}

func TestPAScoreSafetyFallback(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		numCriteria int
	}{
		{"zero criteria", 4, 0},
		{"negative criteria", 4, -1},
		{"empty team", 0, 4},
		{"both zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := single(t,
				grading.StudentAggregate{Team: "T", Student: "S", AveragePoints: 250},
				tt.size, ptr(70), false,
				grading.Config{PAWeightPercent: 50, NumCriteria: tt.numCriteria},
			)
			assert.Equal(t, 1.00, row.PAScore)
			assert.Equal(t, 70, row.WeightedMark)
			assert.Equal(t, 70, row.IndividualMark)
		})
	}
}

func TestUnconfiguredGroupMarkIsAbsent(t *testing.T) {
	row := single(t,
		grading.StudentAggregate{Team: "T", Student: "S", AveragePoints: 120},
		4, nil, true,
		grading.Config{PAWeightPercent: 40, NumCriteria: 4, PenaltyPercent: 50},
	)
	assert.Nil(t, row.GroupMark)
	assert.Equal(t, 1.2, row.PAScore)
	assert.Equal(t, 0, row.WeightedMark)
	assert.Equal(t, 0, row.IndividualMark)
	assert.Equal(t, 0, row.FinalMark)
}

func TestZeroGroupMarkIsPresent(t *testing.T) {
	row := single(t,
		grading.StudentAggregate{Team: "T", Student: "S", AveragePoints: 120},
		4, ptr(0), false,
		grading.Config{PAWeightPercent: 40, NumCriteria: 4},
	)
	require.NotNil(t, row.GroupMark)
	assert.Equal(t, 0.0, *row.GroupMark)
}

func TestFinalEqualsIndividualWhenSubmitted(t *testing.T) {
	agg := grading.StudentAggregate{Team: "T", Student: "S", AveragePoints: 97.35}
	for p := 0.0; p <= 100; p += 5 {
		cfg := grading.Config{PAWeightPercent: 25, NumCriteria: 3, PenaltyPercent: p}
		row := single(t, agg, 3, ptr(77), false, cfg)
		assert.Equal(t, row.IndividualMark, row.FinalMark, "penalty %v", p)
	}
}

func TestPAScoreIndependentOfPenaltyAndFlag(t *testing.T) {
	agg := grading.StudentAggregate{Team: "T", Student: "S", AveragePoints: 143.21}
	base := single(t, agg, 5, ptr(65), false, grading.Config{PAWeightPercent: 20, NumCriteria: 6})
	for p := 0.0; p <= 100; p += 10 {
		for _, flagged := range []bool{false, true} {
			row := single(t, agg, 5, ptr(65), flagged, grading.Config{PAWeightPercent: 20, NumCriteria: 6, PenaltyPercent: p})
			assert.Equal(t, base.PAScore, row.PAScore)
		}
	}
}

func TestBreakdownOrderingAndIdempotence(t *testing.T) {
	aggs := []grading.StudentAggregate{
		{Team: "Team B", Student: "Zed", AveragePoints: 100},
		{Team: "Team A", Student: "Mia", AveragePoints: 110},
		{Team: "Team B", Student: "Amy", AveragePoints: 90},
		{Team: "Team A", Student: "Ann", AveragePoints: 90},
	}
	sizes := map[string]int{"Team A": 2, "Team B": 2}
	marks := map[string]float64{"Team A": 75}
	flags := map[grading.StudentKey]bool{{Team: "Team B", Student: "Zed"}: true}
	cfg := grading.Config{PAWeightPercent: 50, NumCriteria: 2, PenaltyPercent: 20}

	first := grading.Breakdown(aggs, sizes, marks, flags, cfg)
	require.Len(t, first, 4)
	var order []string
	for _, r := range first {
		order = append(order, r.Team+"/"+r.Student)
	}
	assert.Equal(t, []string{"Team A/Ann", "Team A/Mia", "Team B/Amy", "Team B/Zed"}, order)
	assert.Equal(t, "Team A", first[0].Team)
	assert.Nil(t, first[2].GroupMark)
	assert.True(t, first[3].PANotSubmitted)

	for i := 0; i < 3; i++ {
		assert.Equal(t, first, grading.Breakdown(aggs, sizes, marks, flags, cfg))
	}
	assert.Equal(t, "Team B", aggs[0].Team, "input is not reordered")
}

func TestBreakdownClampsPercentages(t *testing.T) {
	agg := grading.StudentAggregate{Team: "T", Student: "S", AveragePoints: 132}
	over := single(t, agg, 4, ptr(80), true, grading.Config{PAWeightPercent: 140, NumCriteria: 4, PenaltyPercent: 150})
	full := single(t, agg, 4, ptr(80), true, grading.Config{PAWeightPercent: 100, NumCriteria: 4, PenaltyPercent: 100})
	assert.Equal(t, full, over)
	assert.Equal(t, 0, over.FinalMark)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, grading.DefaultConfig(4).Validate())
	assert.Error(t, grading.Config{PAWeightPercent: 101}.Validate())
	assert.Error(t, grading.Config{PenaltyPercent: -1}.Validate())
	assert.Error(t, grading.Config{NumCriteria: -2}.Validate())
}

func TestClampGroupMark(t *testing.T) {
	assert.Equal(t, 0.0, grading.ClampGroupMark(-4))
	assert.Equal(t, 100.0, grading.ClampGroupMark(120))
	assert.Equal(t, 78.0, grading.ClampGroupMark(77.5))
}
