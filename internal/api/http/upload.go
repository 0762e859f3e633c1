package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/wailsapp/mimetype"

	auth "github.com/mind-engage/gradeassist/internal/auth/middleware"
	"github.com/mind-engage/gradeassist/internal/csvgrid"
	"github.com/mind-engage/gradeassist/internal/grading"
	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
	"github.com/mind-engage/gradeassist/internal/storage"
	"github.com/mind-engage/gradeassist/internal/syncx"
	"github.com/mind-engage/gradeassist/internal/teammates"
)

type UploadOptions struct {
	MaxBytes              int64
	DefaultPAWeight       float64
	DefaultPenaltyPercent float64
}

type uploadResponse struct {
	SessionID      string                       `json:"sessionId,omitempty"`
	Course         teammates.Course             `json:"course"`
	SessionName    string                       `json:"sessionName"`
	StatsCounts    []teammates.SummaryCount     `json:"statsCounts"`
	NonSubmissions int                          `json:"nonSubmissions"`
	Malformed      []teammates.MalformedSection `json:"malformed,omitempty"`
	Config         grading.Config               `json:"config"`
}

// POST /upload[?preview=1]  multipart: file, paWeight, numCriteria, penaltyPercent
//
// A preview parses and validates the export and reports what would be stored.
// Otherwise the export is stored as a new session and archived.
func UploadHandler(store SessionStore, blobs storage.BlobStore, events EventLog, opts UploadOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := httplog.LogEntry(ctx)
		preview := r.URL.Query().Get("preview") == "1"

		r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBytes)
		if err := r.ParseMultipartForm(opts.MaxBytes); err != nil {
			httpjson.HandleError(logger, w, formError(err, opts.MaxBytes))
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			httpjson.HandleError(logger, w, srvcerror.ErrBadRequest("file is required"))
			return
		}
		defer f.Close()
		raw, err := io.ReadAll(f)
		if err != nil {
			httpjson.HandleError(logger, w, formError(err, opts.MaxBytes))
			return
		}

		doc, err := parseExport(raw)
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}
		cfg, err := uploadConfig(r, opts, len(doc.Criteria))
		if err != nil {
			httpjson.HandleError(logger, w, err)
			return
		}

		resp := uploadResponse{
			Course:         doc.Course,
			SessionName:    doc.SessionName,
			StatsCounts:    doc.SummaryCounts(),
			NonSubmissions: len(doc.NonSubmissions),
			Malformed:      doc.Malformed,
			Config:         cfg,
		}
		for _, m := range doc.Malformed {
			logger.Warn("malformed export section", "kind", m.Kind, "row", m.Row, "reason", m.Reason)
		}
		if preview {
			httpjson.WriteSuccessJson(w, resp)
			return
		}

		owner := auth.SubjectFromContext(ctx)
		sessionID, err := store.SaveUpload(ctx, owner, doc, cfg)
		if err != nil {
			httpjson.HandleError(logger, w, fmt.Errorf("save upload: %w", err))
			return
		}
		resp.SessionID = sessionID
		if counts, err := store.SummaryCounts(ctx, sessionID); err == nil {
			resp.StatsCounts = counts
		} else {
			logger.Warn("reload summary counts", "session_id", sessionID, "error", err)
		}

		// The session is already committed; archive and audit failures are logged only.
		if _, err := blobs.Put(ctx, storage.ExportKey(sessionID), bytes.NewReader(raw)); err != nil {
			logger.Warn("archive export", "session_id", sessionID, "error", err)
		}
		ev, err := syncx.NewEvent(syncx.TypeExportUploaded, sessionID, map[string]any{
			"owner":       owner,
			"fileName":    hdr.Filename,
			"course":      doc.Course,
			"sessionName": doc.SessionName,
			"criteria":    len(doc.Criteria),
		})
		if err == nil {
			err = events.Append(ctx, ev)
		}
		if err != nil {
			logger.Warn("record upload event", "session_id", sessionID, "error", err)
		}

		logger.Info("export uploaded", "session_id", sessionID, "criteria", len(doc.Criteria), "bytes", len(raw))
		httpjson.WriteJson(w, http.StatusCreated, resp)
	}
}

func parseExport(raw []byte) (teammates.ParsedDocument, error) {
	if mt := mimetype.Detect(raw); !isText(mt) {
		return teammates.ParsedDocument{}, srvcerror.New(srvcerror.ErrCodeUnsupportedMedia,
			fmt.Sprintf("expected a CSV export, got %s", mt.String())).
			SetHttpStatusCode(http.StatusUnsupportedMediaType)
	}
	grid, err := csvgrid.Decode(bytes.NewReader(raw))
	if err != nil {
		return teammates.ParsedDocument{}, srvcerror.New(srvcerror.ErrCodeInvalidExport, "file is not a readable CSV export").
			SetHttpStatusCode(http.StatusBadRequest).SetDebug(err)
	}
	doc, err := teammates.Parse(grid)
	var se *teammates.StructuralError
	if errors.As(err, &se) {
		return teammates.ParsedDocument{}, srvcerror.New(srvcerror.ErrCodeInvalidExport, se.Error()).
			SetHttpStatusCode(http.StatusBadRequest)
	}
	if err != nil {
		return teammates.ParsedDocument{}, err
	}
	if miss := doc.MissingRequired(); len(miss) > 0 {
		return teammates.ParsedDocument{}, srvcerror.New(srvcerror.ErrCodeMissingFields,
			"CSV is missing required fields: "+strings.Join(miss, ", ")).
			SetHttpStatusCode(http.StatusBadRequest)
	}
	return doc, nil
}

// isText reports whether the sniffed type is text/plain or one of its
// descendants (text/csv, text/tab-separated-values, ...).
func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// uploadConfig reads the optional grading fields of the form. Empty fields
// take the server defaults; numCriteria defaults to the number of criteria.
func uploadConfig(r *http.Request, opts UploadOptions, numCriteria int) (grading.Config, error) {
	cfg := grading.Config{
		PAWeightPercent: opts.DefaultPAWeight,
		NumCriteria:     numCriteria,
		PenaltyPercent:  opts.DefaultPenaltyPercent,
	}
	var err error
	if cfg.PAWeightPercent, err = formFloat(r, "paWeight", cfg.PAWeightPercent); err != nil {
		return cfg, err
	}
	if cfg.PenaltyPercent, err = formFloat(r, "penaltyPercent", cfg.PenaltyPercent); err != nil {
		return cfg, err
	}
	if v := strings.TrimSpace(r.FormValue("numCriteria")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, srvcerror.ErrBadRequest("numCriteria must be an integer")
		}
		cfg.NumCriteria = n
	}
	if err := cfg.Validate(); err != nil {
		return cfg, srvcerror.ErrBadRequest(err.Error())
	}
	return cfg, nil
}

func formFloat(r *http.Request, key string, def float64) (float64, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, srvcerror.ErrBadRequest(key + " must be a number")
	}
	return f, nil
}

func formError(err error, limit int64) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return srvcerror.New(srvcerror.ErrCodeUploadTooLarge, fmt.Sprintf("file exceeds %d bytes", limit)).
			SetHttpStatusCode(http.StatusRequestEntityTooLarge)
	}
	return srvcerror.ErrBadRequest("expected a multipart form with a file field").SetDebug(err)
}
