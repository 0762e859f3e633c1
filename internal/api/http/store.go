package http

import (
	"context"
	"errors"

	"github.com/mind-engage/gradeassist/internal/gradebook"
	"github.com/mind-engage/gradeassist/internal/grading"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
	"github.com/mind-engage/gradeassist/internal/syncx"
	"github.com/mind-engage/gradeassist/internal/teammates"
)

// SessionStore is the persistence used by the session handlers.
type SessionStore interface {
	SaveUpload(ctx context.Context, ownerID string, doc teammates.ParsedDocument, cfg grading.Config) (string, error)
	SessionOwned(ctx context.Context, ownerID, sessionID string) (bool, error)
	ListSessions(ctx context.Context, ownerID string) ([]gradebook.SessionSummary, error)
	SummaryCounts(ctx context.Context, sessionID string) ([]teammates.SummaryCount, error)
	UpsertGroupMark(ctx context.Context, ownerID, sessionID, team string, mark float64) (float64, error)
	UpsertGradingConfig(ctx context.Context, ownerID, sessionID string, cfg grading.Config) error
	LoadBreakdownInput(ctx context.Context, ownerID, sessionID string) (gradebook.BreakdownInput, error)
}

type EventLog interface {
	Append(ctx context.Context, e syncx.Event) error
	ByKey(ctx context.Context, key string) ([]syncx.Event, error)
}

type UserAdmin interface {
	UpdateUser(ctx context.Context, id string, upd gradebook.UserUpdate) (gradebook.User, error)
	ListUsers(ctx context.Context, role string) ([]gradebook.User, error)
}

type AccountStore interface {
	UserByID(ctx context.Context, id string) (gradebook.User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
}

// sessionErr hides whether a session exists when the caller does not own it.
func sessionErr(err error) error {
	if errors.Is(err, gradebook.ErrNotFound) {
		return srvcerror.ErrNotFound("session").SetDebug(err)
	}
	return err
}
