package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, ErrRateLimitExceeded.WithDetail("retry in 3s"))

	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Nil(t, body["data"])
	require.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])
	require.Equal(t, "retry in 3s", body["detail"])
}

func TestWriteError_Generic(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, stderrors.New("db password=hunter2"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "hunter2")
}

func TestWithDetail_DoesNotMutateCatalog(t *testing.T) {
	_ = ErrNotFound.WithDetail("x")
	require.Empty(t, ErrNotFound.Detail)
}
