package srvcerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsToInternalStatus(t *testing.T) {
	e := New("x", "boom")
	assert.Equal(t, http.StatusInternalServerError, e.HttpStatusCode())
	assert.Equal(t, "boom", e.Error())
	assert.Equal(t, "x", e.ErrorCode())
}

func TestWrappedServiceErrorIsFound(t *testing.T) {
	cause := errors.New("sql: connection refused")
	err := fmt.Errorf("list sessions: %w", ErrNotFound("session").SetDebug(cause))

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.HttpStatusCode())
	assert.Equal(t, "session not found", se.Error())
	assert.ErrorIs(t, err, cause)
}
