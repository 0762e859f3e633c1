package grading

import (
	"sort"

	"github.com/mind-engage/gradeassist/internal/teammates"
)

// Aggregate sums, per (team, recipient), the mean of each summary row's
// present per-index scores across all criteria. Rows with no present scores
// contribute 0. Duplicate rows each contribute. Results are rounded to 2
// decimals and ordered by team, then student.
func Aggregate(criteria []teammates.Criterion) []StudentAggregate {
	sums := map[StudentKey]float64{}
	for _, c := range criteria {
		for _, row := range c.SummaryRows {
			k := StudentKey{Team: row.Team, Student: row.Recipient}
			sums[k] += meanPresent(row.PerIndexScores)
		}
	}

	out := make([]StudentAggregate, 0, len(sums))
	for k, v := range sums {
		out = append(out, StudentAggregate{Team: k.Team, Student: k.Student, AveragePoints: round2(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].Student < out[j].Student
	})
	return out
}

func meanPresent(vals []teammates.Value) float64 {
	var sum float64
	n := 0
	for _, v := range vals {
		if v.Present {
			sum += v.Num
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// TeamSizes counts distinct recipients per team across all criteria.
func TeamSizes(criteria []teammates.Criterion) map[string]int {
	seen := map[StudentKey]struct{}{}
	sizes := map[string]int{}
	for _, c := range criteria {
		for _, row := range c.SummaryRows {
			k := StudentKey{Team: row.Team, Student: row.Recipient}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			sizes[row.Team]++
		}
	}
	return sizes
}

// NotSubmittedSet keys non-submitters by (team, name).
func NotSubmittedSet(ns []teammates.NonSubmission) map[StudentKey]bool {
	out := make(map[StudentKey]bool, len(ns))
	for _, n := range ns {
		out[StudentKey{Team: n.Team, Student: n.Name}] = true
	}
	return out
}
