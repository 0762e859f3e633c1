package httpjson_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradeassist/internal/httpjson"
	"github.com/mind-engage/gradeassist/internal/srvcerror"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func decode(t *testing.T, rec *httptest.ResponseRecorder) httpjson.JsonResponse {
	t.Helper()
	var resp httpjson.JsonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleServiceError(t *testing.T) {
	rec := httptest.NewRecorder()
	httpjson.HandleError(quiet, rec, srvcerror.ErrBadRequest("file is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "file is required", resp.ErrMsg)
	assert.Equal(t, srvcerror.ErrCodeBadRequest, resp.ErrCode)
}

func TestHandlePlainErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	httpjson.HandleError(quiet, rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.NotContains(t, resp.ErrMsg, "password")
}

func TestWriteJsonStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	httpjson.WriteJson(rec, http.StatusCreated, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "success", decode(t, rec).Status)
}
