package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	req := require.New(t)
	handler := Handler()

	// Given a browser asking for the root page
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	// Then the embedded client is served
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Header().Get("Content-Type"), "text/html")
	req.Contains(rec.Body.String(), `new WebSocket(`)

	// And unknown paths are not found
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	req.Equal(http.StatusNotFound, rec.Code)

	// And writes are refused
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	req.Equal(http.StatusMethodNotAllowed, rec.Code)
}
