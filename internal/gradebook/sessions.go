package gradebook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/gradeassist/internal/grading"
	"github.com/mind-engage/gradeassist/internal/teammates"
)

type SessionSummary struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Course    teammates.Course `json:"course"`
	CreatedAt int64            `json:"createdAt"`
}

// SessionOwned reports whether sessionID exists and belongs to ownerID.
func (s *SQLStore) SessionOwned(ctx context.Context, ownerID, sessionID string) (bool, error) {
	var one int
	err := s.DB.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE id=$1 AND owner_user_id=$2`, sessionID, ownerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) requireOwned(ctx context.Context, ownerID, sessionID string) error {
	ok, err := s.SessionOwned(ctx, ownerID, sessionID)
	if err != nil {
		return fmt.Errorf("check session owner: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ListSessions returns the owner's sessions, newest first.
func (s *SQLStore) ListSessions(ctx context.Context, ownerID string) ([]SessionSummary, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT s.id, s.name, s.created_at, c.code, c.title, c.term
		FROM sessions s JOIN courses c ON c.id = s.course_id
		WHERE s.owner_user_id=$1
		ORDER BY s.created_at DESC, s.id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SessionSummary{}
	for rows.Next() {
		var ss SessionSummary
		if err := rows.Scan(&ss.ID, &ss.Name, &ss.CreatedAt, &ss.Course.Code, &ss.Course.Title, &ss.Course.Term); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// SummaryCounts lists stored summary rows per criterion in export order.
func (s *SQLStore) SummaryCounts(ctx context.Context, sessionID string) ([]teammates.SummaryCount, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT c.question_no, COUNT(ss.id)
		FROM criteria c LEFT JOIN summary_stats ss ON ss.criteria_id = c.id
		WHERE c.session_id=$1
		GROUP BY c.id, c.question_no, c.position
		ORDER BY c.position`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []teammates.SummaryCount{}
	for rows.Next() {
		var sc teammates.SummaryCount
		if err := rows.Scan(&sc.QuestionNo, &sc.SummaryRows); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// UpsertGroupMark stores the team's mark clamped to 0..100 and rounded.
// It returns the stored value.
func (s *SQLStore) UpsertGroupMark(ctx context.Context, ownerID, sessionID, team string, mark float64) (float64, error) {
	if err := s.requireOwned(ctx, ownerID, sessionID); err != nil {
		return 0, err
	}
	mark = grading.ClampGroupMark(mark)
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO group_marks (session_id, team, group_mark, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (session_id, team)
		DO UPDATE SET group_mark=EXCLUDED.group_mark, updated_at=EXCLUDED.updated_at`,
		sessionID, team, mark, s.now())
	if err != nil {
		return 0, fmt.Errorf("upsert group mark: %w", err)
	}
	return mark, nil
}

func (s *SQLStore) UpsertGradingConfig(ctx context.Context, ownerID, sessionID string, cfg grading.Config) error {
	if err := s.requireOwned(ctx, ownerID, sessionID); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO grading_configs (session_id, pa_weight, num_criteria, penalty_percent)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (session_id)
		DO UPDATE SET pa_weight=EXCLUDED.pa_weight,
		              num_criteria=EXCLUDED.num_criteria,
		              penalty_percent=EXCLUDED.penalty_percent`,
		sessionID, cfg.PAWeightPercent, cfg.NumCriteria, cfg.PenaltyPercent)
	if err != nil {
		return fmt.Errorf("upsert grading config: %w", err)
	}
	return nil
}
