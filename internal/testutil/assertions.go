package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// AssertEmptyNotFound asserts a 404 response with an empty body.
func AssertEmptyNotFound(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusNotFound, rec.Code, "status mismatch")
	assert.Empty(t, rec.Body.String(), "expected empty body")
}

// AssertRedirectRoot asserts a 302 redirect to "/".
func AssertRedirectRoot(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusFound, rec.Code, "status mismatch")
	assert.Equal(t, "/", rec.Header().Get("Location"), "redirect location mismatch")
}

// AssertClosed asserts that ch is closed within timeout.
func AssertClosed(t *testing.T, ch <-chan struct{}, timeout time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Errorf("channel not closed after %v", timeout)
	}
}

// AssertOpen asserts that ch is not closed.
func AssertOpen(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Error("channel unexpectedly closed")
	default:
	}
}
