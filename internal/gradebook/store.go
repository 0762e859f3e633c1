// Package gradebook persists parsed peer-assessment exports, instructor
// inputs and user accounts, and rebuilds breakdown inputs from them.
package gradebook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrLastAdmin  = errors.New("cannot demote or disable the last active admin")
)

const (
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type SQLStore struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, Now: time.Now}
}

func (s *SQLStore) now() int64 {
	if s.Now == nil {
		return time.Now().Unix()
	}
	return s.Now().Unix()
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
	Active       bool   `json:"active"`
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *SQLStore) CreateUser(ctx context.Context, email, firstName, lastName, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         RoleInstructor,
		PasswordHash: passwordHash,
		Active:       true,
	}

	var exists int
	err := s.DB.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email=$1`, u.Email).Scan(&exists)
	switch {
	case err == nil:
		return User{}, ErrEmailTaken
	case !errors.Is(err, sql.ErrNoRows):
		return User{}, fmt.Errorf("check email: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, password_hash, role, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,1,$7)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role, s.now())
	if isUniqueViolation(err) {
		return User{}, ErrEmailTaken
	}
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// EnsureAdmin creates or refreshes the bootstrap account: it is made an active
// admin and its password hash is replaced. Other fields are left alone.
func (s *SQLStore) EnsureAdmin(ctx context.Context, email, passwordHash string) (User, error) {
	email = NormalizeEmail(email)
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, is_active, created_at)
		VALUES ($1,$2,$3,$4,1,$5)
		ON CONFLICT (email) DO UPDATE SET
		  password_hash=excluded.password_hash, role=excluded.role, is_active=1`,
		uuid.NewString(), email, passwordHash, RoleAdmin, s.now())
	if err != nil {
		return User{}, fmt.Errorf("upsert admin: %w", err)
	}
	return s.UserByEmail(ctx, email)
}

func (s *SQLStore) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.userWhere(ctx, "email", NormalizeEmail(email))
}

func (s *SQLStore) UserByID(ctx context.Context, id string) (User, error) {
	return s.userWhere(ctx, "id", id)
}

// userWhere loads one user by a unique column. col is never user input.
func (s *SQLStore) userWhere(ctx context.Context, col, v string) (User, error) {
	var (
		u      User
		active int
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, password_hash, role, is_active
		FROM users WHERE `+col+`=$1`, v).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("load user: %w", err)
	}
	u.Active = active != 0
	return u, nil
}

// UserUpdate holds the account fields an admin may change. Nil fields are
// left as they are.
type UserUpdate struct {
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

// UpdateUser applies upd and returns the updated user. The last active admin
// cannot lose the role or be disabled.
func (s *SQLStore) UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		role   string
		active int
	)
	err = tx.QueryRowContext(ctx, `SELECT role, is_active FROM users WHERE id=$1`, id).Scan(&role, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("load user: %w", err)
	}

	newRole, newActive := role, active != 0
	if upd.Role != nil {
		newRole = *upd.Role
	}
	if upd.Active != nil {
		newActive = *upd.Active
	}

	wasAdmin := role == RoleAdmin && active != 0
	if wasAdmin && (newRole != RoleAdmin || !newActive) {
		var admins int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM users WHERE role=$1 AND is_active=1`, RoleAdmin).Scan(&admins); err != nil {
			return User{}, fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			return User{}, ErrLastAdmin
		}
	}

	activeInt := 0
	if newActive {
		activeInt = 1
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET role=$2, is_active=$3 WHERE id=$1`, id, newRole, activeInt); err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return User{}, err
	}
	return s.UserByID(ctx, id)
}

// ListUsers returns all users ordered by email, optionally only those with role.
func (s *SQLStore) ListUsers(ctx context.Context, role string) ([]User, error) {
	q := `SELECT id, email, first_name, last_name, role, is_active FROM users`
	var args []any
	if role != "" {
		q += ` WHERE role=$1`
		args = append(args, role)
	}
	rows, err := s.DB.QueryContext(ctx, q+` ORDER BY email`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var (
			u      User
			active int
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &active); err != nil {
			return nil, err
		}
		u.Active = active != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET password_hash=$2 WHERE id=$1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
