package gradebook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/gradeassist/internal/grading"
	"github.com/mind-engage/gradeassist/internal/teammates"
)

// BreakdownInput is everything grading.Breakdown needs for one session.
type BreakdownInput struct {
	SessionID    string
	Aggregates   []grading.StudentAggregate
	TeamSizes    map[string]int
	GroupMarks   map[string]float64
	NotSubmitted map[grading.StudentKey]bool
	Config       grading.Config
}

func (in BreakdownInput) Rows() []grading.BreakdownRow {
	return grading.Breakdown(in.Aggregates, in.TeamSizes, in.GroupMarks, in.NotSubmitted, in.Config)
}

func (s *SQLStore) LoadBreakdownInput(ctx context.Context, ownerID, sessionID string) (BreakdownInput, error) {
	if err := s.requireOwned(ctx, ownerID, sessionID); err != nil {
		return BreakdownInput{}, err
	}
	crit, err := s.LoadCriteria(ctx, sessionID)
	if err != nil {
		return BreakdownInput{}, err
	}
	ns, err := s.LoadNonSubmissions(ctx, sessionID)
	if err != nil {
		return BreakdownInput{}, err
	}
	marks, err := s.loadGroupMarks(ctx, sessionID)
	if err != nil {
		return BreakdownInput{}, err
	}
	cfg, err := s.loadConfig(ctx, sessionID, len(crit))
	if err != nil {
		return BreakdownInput{}, err
	}
	return BreakdownInput{
		SessionID:    sessionID,
		Aggregates:   grading.Aggregate(crit),
		TeamSizes:    grading.TeamSizes(crit),
		GroupMarks:   marks,
		NotSubmitted: grading.NotSubmittedSet(ns),
		Config:       cfg,
	}, nil
}

// LoadCriteria rebuilds the session's criteria with their summary rows in
// the order they were exported.
func (s *SQLStore) LoadCriteria(ctx context.Context, sessionID string) ([]teammates.Criterion, error) {
	points, err := s.loadPoints(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT c.id, c.question_no, c.label,
		       ss.id, ss.team, ss.recipient, ss.recipient_email, ss.total_points, ss.average_points
		FROM criteria c LEFT JOIN summary_stats ss ON ss.criteria_id = c.id
		WHERE c.session_id=$1
		ORDER BY c.position, ss.seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load criteria: %w", err)
	}
	defer rows.Close()

	out := []teammates.Criterion{}
	lastID := ""
	for rows.Next() {
		var (
			critID, label                 string
			qno                           int
			sumID, team, recipient, email sql.NullString
			total, avg                    sql.NullFloat64
		)
		if err := rows.Scan(&critID, &qno, &label, &sumID, &team, &recipient, &email, &total, &avg); err != nil {
			return nil, err
		}
		if critID != lastID {
			out = append(out, teammates.Criterion{QuestionNo: qno, Label: label, SummaryRows: []teammates.SummaryRow{}})
			lastID = critID
		}
		if !sumID.Valid {
			continue
		}
		c := &out[len(out)-1]
		scores := points[sumID.String]
		if scores == nil {
			scores = []teammates.Value{}
		}
		c.SummaryRows = append(c.SummaryRows, teammates.SummaryRow{
			Team:           team.String,
			Recipient:      recipient.String,
			RecipientEmail: email.String,
			TotalPoints:    total.Float64,
			AveragePoints:  valueOf(avg),
			PerIndexScores: scores,
		})
	}
	return out, rows.Err()
}

func (s *SQLStore) loadPoints(ctx context.Context, sessionID string) (map[string][]teammates.Value, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT p.summary_id, p.idx, p.value
		FROM summary_points p
		JOIN summary_stats ss ON ss.id = p.summary_id
		JOIN criteria c ON c.id = ss.criteria_id
		WHERE c.session_id=$1
		ORDER BY p.summary_id, p.idx`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	defer rows.Close()

	out := map[string][]teammates.Value{}
	for rows.Next() {
		var (
			id  string
			idx int
			v   sql.NullFloat64
		)
		if err := rows.Scan(&id, &idx, &v); err != nil {
			return nil, err
		}
		vals := out[id]
		for len(vals) < idx {
			vals = append(vals, teammates.Absent)
		}
		out[id] = append(vals, valueOf(v))
	}
	return out, rows.Err()
}

func (s *SQLStore) LoadNonSubmissions(ctx context.Context, sessionID string) ([]teammates.NonSubmission, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT team, name, email FROM pa_not_submitted
		WHERE session_id=$1 ORDER BY team, name`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load non-submitters: %w", err)
	}
	defer rows.Close()

	out := []teammates.NonSubmission{}
	for rows.Next() {
		var (
			ns    teammates.NonSubmission
			email sql.NullString
		)
		if err := rows.Scan(&ns.Team, &ns.Name, &email); err != nil {
			return nil, err
		}
		ns.Email = email.String
		out = append(out, ns)
	}
	return out, rows.Err()
}

func (s *SQLStore) loadGroupMarks(ctx context.Context, sessionID string) (map[string]float64, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT team, group_mark FROM group_marks WHERE session_id=$1`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load group marks: %w", err)
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var (
			team string
			mark float64
		)
		if err := rows.Scan(&team, &mark); err != nil {
			return nil, err
		}
		out[team] = mark
	}
	return out, rows.Err()
}

// loadConfig falls back to the defaults when the session has no stored config.
func (s *SQLStore) loadConfig(ctx context.Context, sessionID string, numCriteria int) (grading.Config, error) {
	var cfg grading.Config
	err := s.DB.QueryRowContext(ctx, `
		SELECT pa_weight, num_criteria, penalty_percent
		FROM grading_configs WHERE session_id=$1`, sessionID).
		Scan(&cfg.PAWeightPercent, &cfg.NumCriteria, &cfg.PenaltyPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return grading.DefaultConfig(numCriteria), nil
	}
	if err != nil {
		return grading.Config{}, fmt.Errorf("load grading config: %w", err)
	}
	return cfg, nil
}
