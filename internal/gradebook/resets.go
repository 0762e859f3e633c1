package gradebook

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidResetToken covers unknown, used and expired reset tokens alike.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreatePasswordReset issues a single-use reset token for the account behind
// email, valid for ttl. Earlier unused tokens of that account are retired.
// ErrNotFound is returned when no account has the email.
func (s *SQLStore) CreatePasswordReset(ctx context.Context, email string, ttl time.Duration) (string, User, error) {
	u, err := s.UserByEmail(ctx, email)
	if err != nil {
		return "", User{}, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", User{}, fmt.Errorf("reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE password_resets SET used_at=$2 WHERE user_id=$1 AND used_at IS NULL`, u.ID, now); err != nil {
		return "", User{}, fmt.Errorf("retire reset tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO password_resets (id, user_id, token_hash, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), u.ID, hashToken(token), now, now+int64(ttl/time.Second)); err != nil {
		return "", User{}, fmt.Errorf("insert reset token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", User{}, err
	}
	return token, u, nil
}

// ResetPassword consumes token and stores passwordHash for its account.
func (s *SQLStore) ResetPassword(ctx context.Context, token, passwordHash string) (string, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	var id, userID string
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id FROM password_resets
		WHERE token_hash=$1 AND used_at IS NULL AND expires_at > $2`,
		hashToken(token), now).Scan(&id, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidResetToken
	}
	if err != nil {
		return "", fmt.Errorf("load reset token: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash=$2 WHERE id=$1`, userID, passwordHash); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE password_resets SET used_at=$2 WHERE id=$1`, id, now); err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return userID, nil
}
