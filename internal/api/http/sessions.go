package http

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"

	auth "github.com/mind-engage/gradeassist/internal/auth/middleware"
	"github.com/mind-engage/gradeassist/internal/grading"
	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
	"github.com/mind-engage/gradeassist/internal/syncx"
)

// GET /api/sessions
func ListSessionsHandler(store SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, err := store.ListSessions(ctx, auth.SubjectFromContext(ctx))
		if err != nil {
			httpjson.HandleError(httplog.LogEntry(ctx), w, err)
			return
		}
		httpjson.WriteSuccessJson(w, list)
	}
}

type breakdownResponse struct {
	SessionID      string                 `json:"sessionId"`
	PAWeight       float64                `json:"paWeight"`
	NumCriteria    int                    `json:"numCriteria"`
	PenaltyPercent float64                `json:"penaltyPercent"`
	Rows           []grading.BreakdownRow `json:"rows"`
}

// GET /api/sessions/{sessionID}/breakdown
func BreakdownHandler(store SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := chi.URLParam(r, "sessionID")
		in, err := store.LoadBreakdownInput(ctx, auth.SubjectFromContext(ctx), sessionID)
		if err != nil {
			httpjson.HandleError(httplog.LogEntry(ctx), w, sessionErr(err))
			return
		}
		httpjson.WriteSuccessJson(w, breakdownResponse{
			SessionID:      sessionID,
			PAWeight:       in.Config.PAWeightPercent,
			NumCriteria:    in.Config.NumCriteria,
			PenaltyPercent: in.Config.PenaltyPercent,
			Rows:           in.Rows(),
		})
	}
}

// POST /api/sessions/{sessionID}/group-marks  { "team", "groupMark" }
//
// The mark is rounded and clamped to 0..100 before it is stored.
func GroupMarkHandler(store SessionStore, events EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := httplog.LogEntry(ctx)
		sessionID := chi.URLParam(r, "sessionID")

		var req struct {
			Team      string   `json:"team"`
			GroupMark *float64 `json:"groupMark"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("bad json"))
			return
		}
		team := strings.TrimSpace(req.Team)
		if team == "" || req.GroupMark == nil || math.IsNaN(*req.GroupMark) {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("team and groupMark (0-100) are required"))
			return
		}

		stored, err := store.UpsertGroupMark(ctx, auth.SubjectFromContext(ctx), sessionID, team, *req.GroupMark)
		if err != nil {
			httpjson.HandleError(logger, w, sessionErr(err))
			return
		}
		audit(r, events, syncx.TypeGroupMarkSet, sessionID, map[string]any{"team": team, "groupMark": stored})

		httpjson.WriteSuccessJson(w, map[string]any{
			"sessionId": sessionID,
			"team":      team,
			"groupMark": stored,
		})
	}
}

// PUT /api/sessions/{sessionID}/config  { "paWeight", "numCriteria", "penaltyPercent" }
func ConfigHandler(store SessionStore, events EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := httplog.LogEntry(ctx)
		sessionID := chi.URLParam(r, "sessionID")

		var req struct {
			PAWeight       *float64 `json:"paWeight"`
			NumCriteria    *int     `json:"numCriteria"`
			PenaltyPercent *float64 `json:"penaltyPercent"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("bad json"))
			return
		}
		if req.PAWeight == nil || req.NumCriteria == nil || req.PenaltyPercent == nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("paWeight, numCriteria and penaltyPercent are required"))
			return
		}
		cfg := grading.Config{
			PAWeightPercent: *req.PAWeight,
			NumCriteria:     *req.NumCriteria,
			PenaltyPercent:  *req.PenaltyPercent,
		}
		if err := cfg.Validate(); err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest(err.Error()))
			return
		}

		if err := store.UpsertGradingConfig(ctx, auth.SubjectFromContext(ctx), sessionID, cfg); err != nil {
			httpjson.HandleError(logger, w, sessionErr(err))
			return
		}
		audit(r, events, syncx.TypeGradingConfigSet, sessionID, cfg)
		httpjson.WriteSuccessJson(w, cfg)
	}
}

// GET /api/sessions/{sessionID}/events
func SessionEventsHandler(events EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, err := events.ByKey(ctx, chi.URLParam(r, "sessionID"))
		if err != nil {
			httpjson.HandleError(httplog.LogEntry(ctx), w, err)
			return
		}
		httpjson.WriteSuccessJson(w, list)
	}
}

// audit records a change after it was committed. Failures are logged only.
func audit(r *http.Request, events EventLog, typ, sessionID string, data any) {
	ctx := r.Context()
	ev, err := syncx.NewEvent(typ, sessionID, data)
	if err == nil {
		err = events.Append(ctx, ev)
	}
	if err != nil {
		httplog.LogEntry(ctx).Warn("record event", "type", typ, "session_id", sessionID, "error", err)
	}
}
