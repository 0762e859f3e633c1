package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/gradeassist/internal/gradebook"
)

// AdminStore upserts the bootstrap admin account.
type AdminStore interface {
	EnsureAdmin(ctx context.Context, email, passwordHash string) (gradebook.User, error)
}

// BootstrapAdmin makes sure the configured account exists as an active admin,
// so a fresh deployment has someone who can manage users. passHash must be a
// bcrypt hash; plain passwords are never accepted from config.
func BootstrapAdmin(ctx context.Context, store AdminStore, email, passHash string) (gradebook.User, error) {
	email = gradebook.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return gradebook.User{}, fmt.Errorf("admin email %q is not an email address", email)
	}
	if passHash == "" {
		return gradebook.User{}, errors.New("admin password hash is required")
	}
	if _, err := bcrypt.Cost([]byte(passHash)); err != nil {
		return gradebook.User{}, fmt.Errorf("admin password hash is not bcrypt: %w", err)
	}
	return store.EnsureAdmin(ctx, email, passHash)
}
