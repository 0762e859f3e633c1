package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"

	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
	"github.com/mind-engage/gradeassist/internal/storage"
)

// GET /api/sessions/{sessionID}/export
// Streams back the raw export archived at upload time.
func ExportHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := httplog.LogEntry(ctx)
		sessionID := chi.URLParam(r, "sessionID")

		rc, err := blobs.Get(ctx, storage.ExportKey(sessionID))
		if errors.Is(err, storage.ErrNotFound) {
			httpjson.HandleError(logger, w, srvcerror.ErrNotFound("export").SetDebug(err))
			return
		}
		if err != nil {
			httpjson.HandleError(logger, w, fmt.Errorf("open export: %w", err))
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sessionID+".csv"))
		if _, err := io.Copy(w, rc); err != nil {
			logger.Warn("stream export", "session_id", sessionID, "error", err)
		}
	}
}
