package pagespeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/seoscan/internal/domain/lighthouse"
)

func TestAudit_Success(t *testing.T) {
	fixture, err := os.ReadFile("../../domain/lighthouse/testdata/pagespeed.json")
	require.NoError(t, err)

	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, APIKey: "k-123", Strategy: "mobile"}, srv.Client(), nil)
	p, err := c.Audit(context.Background(), "https://example.com")
	require.NoError(t, err)

	scores, err := p.Scores()
	require.NoError(t, err)
	assert.Equal(t, 87, scores.Performance)

	q := got.URL.Query()
	assert.Equal(t, "https://example.com", q.Get("url"))
	assert.Equal(t, "k-123", q.Get("key"))
	assert.Equal(t, "mobile", q.Get("strategy"))
	assert.Equal(t, []string{"PERFORMANCE", "ACCESSIBILITY", "BEST_PRACTICES", "SEO"}, q["category"])
}

func TestAudit_UnexpectedStatusRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "API key secret-key is invalid"}}`))
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, APIKey: "secret-key"}, srv.Client(), nil)
	_, err := c.Audit(context.Background(), "https://example.com")

	require.ErrorIs(t, err, lighthouse.ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "400")
	assert.NotContains(t, err.Error(), "secret-key")
	assert.Contains(t, err.Error(), "[REDACTED]")
}

func TestAudit_MalformedBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":          "<html>oops</html>",
		"no lighthouse key": `{"id": "https://example.com"}`,
		"wrong type":        `{"lighthouseResult": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := New(Config{Endpoint: srv.URL}, srv.Client(), nil).Audit(context.Background(), "https://example.com")
			assert.ErrorIs(t, err, lighthouse.ErrMalformedPayload)
		})
	}
}

func TestAudit_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Timeout: 30 * time.Millisecond}, srv.Client(), nil)
	_, err := c.Audit(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, lighthouse.ErrTimeout)
}

func TestAudit_TransportErrorRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	c := New(Config{Endpoint: endpoint, APIKey: "secret-key"}, nil, nil)
	_, err := c.Audit(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, lighthouse.ErrTimeout)
	assert.NotContains(t, err.Error(), "secret-key")
}
