package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	authed := func(r *http.Request) bool { return r.Header.Get("Authorization") == "Bearer tok-9" }
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "jwt", Value: "tok-9", Path: "/"})
		_, _ = w.Write([]byte(`{"message":"Login successful"}`))
	})
	mux.HandleFunc("GET /report/history", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"statusCode":401,"message":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"s-2","url":"https://example.com","userId":"u","status":"COMPLETED","createdAt":"2026-03-01T12:00:00Z"}]`))
	})
	mux.HandleFunc("POST /report/scan", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id":"s-3","url":"https://example.org","userId":"u","createdAt":"2026-03-01T12:00:00Z"}`))
	})
	mux.HandleFunc("GET /report/s-3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"s-3","status":"COMPLETED","url":"https://example.org","report":{
			"performanceScore":91,"accessibilityScore":80,"bestPracticesScore":100,"seoScore":45,
			"aiSuggestions":{"issues":[{"title":"Slow LCP","description":"Largest paint is late","severity":"high"}],
			"recommendations":[],"metaTagsDetails":[{"name":"Meta Description","value":"ok","status":"good"}],
			"contentDetails":[],"technicalDetails":[]},"suggestionSource":"fallback"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, srvURL, session string, args ...string) (string, error) {
	t.Helper()
	text.DisableColors()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--api", srvURL, "--session-file", session}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginThenHistory(t *testing.T) {
	srv := fakeServer(t)
	session := filepath.Join(t.TempDir(), "nested", "session")

	_, err := runCLI(t, srv.URL, session, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")

	out, err := runCLI(t, srv.URL, session, "login", "-e", "A@Example.com", "-p", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as a@example.com")

	saved, err := os.ReadFile(session)
	require.NoError(t, err)
	assert.Equal(t, "tok-9", strings.TrimSpace(string(saved)))

	out, err = runCLI(t, srv.URL, session, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.com")
	assert.Contains(t, out, "Analysis complete")

	out, err = runCLI(t, srv.URL, session, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	_, err = os.Stat(session)
	assert.True(t, os.IsNotExist(err))
}

func TestScanWaitsForReport(t *testing.T) {
	srv := fakeServer(t)
	session := filepath.Join(t.TempDir(), "session")
	require.NoError(t, os.WriteFile(session, []byte("tok-9\n"), 0o600))

	out, err := runCLI(t, srv.URL, session, "scan", "example.org", "--interval", "1ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Scan s-3 queued for https://example.org")
	assert.Contains(t, out, "Slow LCP")
	assert.Contains(t, out, "Meta Description")
	assert.Contains(t, out, "91")
	assert.Contains(t, out, "(suggestions generated without AI)")
}
