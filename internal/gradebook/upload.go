package gradebook

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mind-engage/gradeassist/internal/grading"
	"github.com/mind-engage/gradeassist/internal/teammates"
)

// SaveUpload stores a parsed export as a new session of the owner's course.
// The course is matched on (owner, code, term) and its title refreshed.
// Criteria repeating a question number within the export are merged.
func (s *SQLStore) SaveUpload(ctx context.Context, ownerID string, doc teammates.ParsedDocument, cfg grading.Config) (string, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()

	var courseID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO courses (id, owner_user_id, code, title, term, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (owner_user_id, code, term)
		DO UPDATE SET title=EXCLUDED.title
		RETURNING id`,
		uuid.NewString(), ownerID, doc.Course.Code, doc.Course.Title, doc.Course.Term, now).
		Scan(&courseID)
	if err != nil {
		return "", fmt.Errorf("upsert course: %w", err)
	}

	sessionID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, course_id, owner_user_id, name, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		sessionID, courseID, ownerID, doc.SessionName, now); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	seq := map[string]int{} // criteria id -> next summary seq
	for pos, c := range doc.Criteria {
		var critID string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO criteria (id, session_id, question_no, label, position)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (session_id, question_no)
			DO UPDATE SET label=EXCLUDED.label
			RETURNING id`,
			uuid.NewString(), sessionID, c.QuestionNo, c.Label, pos).
			Scan(&critID)
		if err != nil {
			return "", fmt.Errorf("upsert criterion %d: %w", c.QuestionNo, err)
		}
		for _, row := range c.SummaryRows {
			if err := insertSummaryRow(ctx, tx, critID, seq[critID], row); err != nil {
				return "", fmt.Errorf("criterion %d: %w", c.QuestionNo, err)
			}
			seq[critID]++
		}
	}

	for _, ns := range doc.NonSubmissions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pa_not_submitted (session_id, team, name, email)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (session_id, team, name)
			DO UPDATE SET email=EXCLUDED.email`,
			sessionID, ns.Team, ns.Name, nullString(ns.Email)); err != nil {
			return "", fmt.Errorf("insert non-submitter: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO grading_configs (session_id, pa_weight, num_criteria, penalty_percent)
		VALUES ($1,$2,$3,$4)`,
		sessionID, cfg.PAWeightPercent, cfg.NumCriteria, cfg.PenaltyPercent); err != nil {
		return "", fmt.Errorf("insert grading config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return sessionID, nil
}

func insertSummaryRow(ctx context.Context, tx *sql.Tx, critID string, seq int, row teammates.SummaryRow) error {
	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO summary_stats (id, criteria_id, seq, team, recipient, recipient_email, total_points, average_points)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, critID, seq, row.Team, row.Recipient, nullString(row.RecipientEmail),
		row.TotalPoints, nullValue(row.AveragePoints)); err != nil {
		return fmt.Errorf("insert summary row: %w", err)
	}
	for idx, v := range row.PerIndexScores {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO summary_points (summary_id, idx, value) VALUES ($1,$2,$3)`,
			id, idx, nullValue(v)); err != nil {
			return fmt.Errorf("insert summary point %d: %w", idx, err)
		}
	}
	return nil
}

func nullValue(v teammates.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Num, Valid: v.Present}
}

func valueOf(n sql.NullFloat64) teammates.Value {
	if !n.Valid {
		return teammates.Absent
	}
	return teammates.Num(n.Float64)
}
