package grading

import (
	"math"
	"sort"
)

// StudentAggregate is a student's summed per-criterion mean score, rounded
// to 2 decimals.
type StudentAggregate struct {
	Team          string  `json:"team"`
	Student       string  `json:"student"`
	AveragePoints float64 `json:"averagePoints"`
}

type StudentKey struct {
	Team    string
	Student string
}

// BreakdownRow is one student's computed marks.
type BreakdownRow struct {
	Team           string   `json:"team"`
	Student        string   `json:"student"`
	AveragePoints  float64  `json:"averagePoints"`
	PAScore        float64  `json:"paScore"`
	GroupMark      *float64 `json:"groupMark"` // nil when never configured
	WeightedMark   int      `json:"weightedMark"`
	IndividualMark int      `json:"individualMark"`
	PANotSubmitted bool     `json:"paNotSubmitted"`
	FinalMark      int      `json:"finalMark"`
}

// Breakdown computes marks for every aggregate and returns them ordered by
// team, then student. It has no side effects and never fails.
//
// The penalty for a missing peer assessment is taken from the already
// rounded individual mark and is itself rounded before subtraction:
//
//	final = round(individual - round(individual * penalty/100))
//
// This double rounding is intentional and must be kept.
func Breakdown(
	aggs []StudentAggregate,
	teamSizes map[string]int,
	groupMarks map[string]float64,
	notSubmitted map[StudentKey]bool,
	cfg Config,
) []BreakdownRow {
	paW := clampPercent(cfg.PAWeightPercent) / 100
	penalty := clampPercent(cfg.PenaltyPercent) / 100

	out := make([]BreakdownRow, 0, len(aggs))
	for _, a := range aggs {
		row := BreakdownRow{
			Team:          a.Team,
			Student:       a.Student,
			AveragePoints: round2(a.AveragePoints),
			PAScore:       paScore(a.AveragePoints, cfg.NumCriteria, teamSizes[a.Team]),
		}

		gm, configured := groupMarks[a.Team]
		if configured {
			v := gm
			row.GroupMark = &v
		} else {
			gm = 0
		}

		weightedRaw := gm * row.PAScore
		row.WeightedMark = roundInt(weightedRaw)
		row.IndividualMark = roundInt(weightedRaw*paW + gm*(1-paW))

		row.PANotSubmitted = notSubmitted[StudentKey{Team: a.Team, Student: a.Student}]
		row.FinalMark = row.IndividualMark
		if row.PANotSubmitted {
			ind := float64(row.IndividualMark)
			row.FinalMark = roundInt(ind - math.Round(ind*penalty))
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].Student < out[j].Student
	})
	return out
}

// paScore is the student's share of points relative to an even split.
// With no criteria or an empty team it is exactly 1.00.
func paScore(averagePoints float64, numCriteria, teamSize int) float64 {
	if numCriteria <= 0 || teamSize <= 0 {
		return 1
	}
	return round2((averagePoints / float64(numCriteria)) / (100 / float64(teamSize)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundInt rounds half away from zero.
func roundInt(v float64) int {
	return int(math.Round(v))
}
