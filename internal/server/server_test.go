package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thqm-go/thqm/internal/auth"
	"github.com/thqm-go/thqm/internal/testutil"
)

// newTestServer creates a server writing selections to a buffer.
func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	cfg := &Config{
		Addr:         "127.0.0.1:0",
		Page:         []byte(testutil.SamplePage),
		Assets:       testutil.SampleAssets(),
		HiddenAssets: []string{"index.html"},
		Output:       &out,
	}
	if mutate != nil {
		mutate(cfg)
	}

	server, err := NewServer(cfg)
	require.NoError(t, err)
	return server, &out
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, httptest.NewRequest(http.MethodGet, target, nil))
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewServer(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config is required")
	})

	t.Run("defaults", func(t *testing.T) {
		server, err := NewServer(&Config{})
		require.NoError(t, err)
		assert.NotNil(t, server.Handler())
		assert.Empty(t, server.ListenAddr())
		assert.Empty(t, server.Reason())
		testutil.AssertOpen(t, server.Done())
	})
}

func TestServePage(t *testing.T) {
	server, out := newTestServer(t, nil)

	rec := get(t, server, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, testutil.SamplePage, rec.Body.String())
	assert.Empty(t, out.String())
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"query", "/?select=foo", "foo\n"},
		{"query with spaces", "/?select=suspend+now", "suspend now\n"},
		{"query empty value", "/?select=", "\n"},
		{"query newline kept verbatim", "/?select=a%0Ab", "a\nb\n"},
		{"path", "/select/foo", "foo\n"},
		{"path escaped space", "/select/suspend%20now", "suspend now\n"},
		{"path escaped slash", "/select/a%2Fb", "a/b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, out := newTestServer(t, nil)

			rec := get(t, server, tt.target)
			testutil.AssertRedirectRoot(t, rec)
			assert.Equal(t, tt.want, out.String())
			testutil.AssertOpen(t, server.Done())
		})
	}
}

func TestSelect_Repeated(t *testing.T) {
	server, out := newTestServer(t, nil)

	for _, entry := range testutil.SampleEntries() {
		rec := get(t, server, "/select/"+url.PathEscape(entry))
		testutil.AssertRedirectRoot(t, rec)
	}
	assert.Equal(t, "firefox\nterminal\nsuspend now\nlock\n", out.String())
}

func TestSelect_Oneshot(t *testing.T) {
	server, out := newTestServer(t, func(c *Config) { c.Oneshot = true })

	rec := get(t, server, "/?select=foo")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "foo\n", out.String())
	testutil.AssertClosed(t, server.Done(), time.Second)
	assert.Equal(t, "oneshot selection", server.Reason())

	// Later selections are not reported
	rec = get(t, server, "/select/bar")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "foo\n", out.String())
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"query", "/?cmd=shutdown"},
		{"path", "/cmd/shutdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, out := newTestServer(t, nil)

			rec := get(t, server, tt.target)
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Empty(t, rec.Body.String())
			testutil.AssertClosed(t, server.Done(), time.Second)
			assert.Equal(t, "shutdown command", server.Reason())
			assert.Empty(t, out.String())
		})
	}
}

func TestCommand_Unknown(t *testing.T) {
	for _, target := range []string{"/?cmd=reboot", "/cmd/reboot", "/?cmd=", "/cmd/SHUTDOWN"} {
		t.Run(target, func(t *testing.T) {
			server, _ := newTestServer(t, nil)

			testutil.AssertEmptyNotFound(t, get(t, server, target))
			testutil.AssertOpen(t, server.Done())
		})
	}
}

func TestCommand_ShutdownDisabled(t *testing.T) {
	server, _ := newTestServer(t, func(c *Config) { c.NoShutdown = true })

	testutil.AssertEmptyNotFound(t, get(t, server, "/?cmd=shutdown"))
	testutil.AssertEmptyNotFound(t, get(t, server, "/cmd/shutdown"))
	testutil.AssertOpen(t, server.Done())
}

func TestCommandTakesPrecedenceOverSelect(t *testing.T) {
	server, out := newTestServer(t, nil)

	testutil.AssertEmptyNotFound(t, get(t, server, "/?select=foo&cmd=reboot"))
	assert.Empty(t, out.String())

	rec := get(t, server, "/?select=foo&cmd=shutdown")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, out.String())
	testutil.AssertClosed(t, server.Done(), time.Second)
}

func TestStaticAssets(t *testing.T) {
	tests := []struct {
		target      string
		contentType string
		body        string
	}{
		{"/style.css", "text/css; charset=utf-8", "body { color: red; }"},
		{"/js/app.js", "javascript", "console.log('thqm');"},
		{"/img/icon.svg", "image/svg+xml", `<svg xmlns="http://www.w3.org/2000/svg"></svg>`},
		{"/fonts/README", "text/plain; charset=utf-8", "plain text"},
		{"/js/../style.css", "text/css; charset=utf-8", "body { color: red; }"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			server, _ := newTestServer(t, nil)

			rec := get(t, server, tt.target)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestStaticAssets_NotFound(t *testing.T) {
	targets := []string{
		"/missing.css",
		"/js",
		"/nested/dir",
		"/index.html", // hidden template
		"/select/",
		"/cmd/",
		"/select/a/b",
		"/cmd/shutdown/now",
		"/../../etc/passwd",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			server, out := newTestServer(t, nil)

			testutil.AssertEmptyNotFound(t, get(t, server, target))
			assert.Empty(t, out.String())
			testutil.AssertOpen(t, server.Done())
		})
	}
}

func TestNonGetMethods(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			server, out := newTestServer(t, nil)

			for _, target := range []string{"/", "/?select=foo", "/select/foo", "/cmd/shutdown", "/style.css"} {
				rec := do(t, server, httptest.NewRequest(method, target, nil))
				testutil.AssertEmptyNotFound(t, rec)
			}
			assert.Empty(t, out.String())
			testutil.AssertOpen(t, server.Done())
		})
	}
}

func TestNoAssets(t *testing.T) {
	server, _ := newTestServer(t, func(c *Config) { c.Assets = nil })
	testutil.AssertEmptyNotFound(t, get(t, server, "/style.css"))
}

func TestAuth(t *testing.T) {
	creds := auth.Credentials{Login: "user", Password: "hunter2"}

	t.Run("no credentials", func(t *testing.T) {
		server, out := newTestServer(t, func(c *Config) { c.Credentials = creds })

		for _, target := range []string{"/", "/?select=foo", "/cmd/shutdown", "/style.css", "/missing"} {
			rec := get(t, server, target)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
			assert.Equal(t, `Basic realm="thqm"`, rec.Header().Get("WWW-Authenticate"))
		}
		assert.Empty(t, out.String())
		testutil.AssertOpen(t, server.Done())
	})

	t.Run("wrong password", func(t *testing.T) {
		server, out := newTestServer(t, func(c *Config) { c.Credentials = creds })

		req := httptest.NewRequest(http.MethodGet, "/?select=foo", nil)
		req.SetBasicAuth("user", "wrong")
		rec := do(t, server, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, out.String())
	})

	t.Run("correct credentials", func(t *testing.T) {
		server, out := newTestServer(t, func(c *Config) { c.Credentials = creds })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("user", "hunter2")
		rec := do(t, server, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, testutil.SamplePage, rec.Body.String())

		req = httptest.NewRequest(http.MethodGet, "/?select=foo", nil)
		req.SetBasicAuth("user", "hunter2")
		testutil.AssertRedirectRoot(t, do(t, server, req))
		assert.Equal(t, "foo\n", out.String())
	})

	t.Run("login without password disables auth", func(t *testing.T) {
		server, _ := newTestServer(t, func(c *Config) {
			c.Credentials = auth.Credentials{Login: "user"}
		})
		assert.Equal(t, http.StatusOK, get(t, server, "/").Code)
	})
}

// failOnceWriter fails its first write and buffers the rest.
type failOnceWriter struct {
	bytes.Buffer
	failed bool
}

func (f *failOnceWriter) Write(p []byte) (int, error) {
	if !f.failed {
		f.failed = true
		return 0, errors.New("broken pipe")
	}
	return f.Buffer.Write(p)
}

func TestSelect_OneshotRetriesAfterFailedReport(t *testing.T) {
	out := &failOnceWriter{}
	server, err := NewServer(&Config{Oneshot: true, Output: out})
	require.NoError(t, err)

	rec := get(t, server, "/?select=foo")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	testutil.AssertOpen(t, server.Done())

	rec = get(t, server, "/?select=bar")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "bar\n", out.String())
	testutil.AssertClosed(t, server.Done(), time.Second)
	assert.Equal(t, "oneshot selection", server.Reason())
}

type flushWriter struct {
	bytes.Buffer
	flushes int
}

func (f *flushWriter) Flush() error {
	f.flushes++
	return nil
}

func TestSelect_FlushesBufferedOutput(t *testing.T) {
	out := &flushWriter{}
	server, err := NewServer(&Config{Output: out})
	require.NoError(t, err)

	testutil.AssertRedirectRoot(t, get(t, server, "/select/foo"))
	assert.Equal(t, "foo\n", out.String())
	assert.Equal(t, 1, out.flushes)
}

func TestRun_Shutdown(t *testing.T) {
	server, out := newTestServer(t, nil)

	ctx, cancel := testutil.ContextWithTestDeadline(t, 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(ctx) }()

	require.Eventually(t, func() bool { return server.ListenAddr() != "" }, 5*time.Second, 10*time.Millisecond)
	base := "http://" + server.ListenAddr()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	resp, err := client.Get(base + "/select/foo")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp, err = client.Get(base + "/cmd/shutdown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("server did not stop after shutdown command")
	}
	assert.Equal(t, "foo\n", out.String())
}

func TestRun_ContextCancel(t *testing.T) {
	server, _ := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(ctx) }()

	require.Eventually(t, func() bool { return server.ListenAddr() != "" }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
	assert.Empty(t, server.Reason())
}

func TestRun_AlreadyStarted(t *testing.T) {
	server, _ := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(ctx) }()
	require.Eventually(t, func() bool { return server.ListenAddr() != "" }, 5*time.Second, 10*time.Millisecond)

	err := server.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	cancel()
	require.NoError(t, <-errCh)
}

func TestRun_ListenError(t *testing.T) {
	server, _ := newTestServer(t, func(c *Config) { c.Addr = "127.0.0.1:99999" })

	err := server.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
