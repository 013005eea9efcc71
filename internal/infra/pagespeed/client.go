// Package pagespeed calls the PageSpeed Insights v5 API.
package pagespeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bryanwahyu/seoscan/internal/domain/lighthouse"
	"github.com/bryanwahyu/seoscan/internal/logger"
)

const (
	DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	DefaultTimeout  = 60 * time.Second

	maxBodyBytes   = 32 << 20
	maxErrSnippet  = 500
	redactedAPIKey = "[REDACTED]"
)

var categories = []string{"PERFORMANCE", "ACCESSIBILITY", "BEST_PRACTICES", "SEO"}

type Config struct {
	Endpoint string
	APIKey   string
	// Strategy is "mobile" or "desktop"; empty lets the API decide.
	Strategy string
	Timeout  time.Duration
}

// Client performs one bounded audit request per call. It never retries.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

func New(cfg Config, httpClient *http.Client, log logger.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, log: log}
}

// Audit fetches the Lighthouse report for target.
func (c *Client) Audit(ctx context.Context, target string) (*lighthouse.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(target), nil)
	if err != nil {
		return nil, fmt.Errorf("build pagespeed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d: %s", lighthouse.ErrUnexpectedStatus, resp.StatusCode, c.snippet(body))
	}

	payload, err := lighthouse.Parse(body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("pagespeed audit fetched",
		logger.String("url", target),
		logger.Int("bytes", len(body)),
		logger.Duration("took", time.Since(started)),
	)
	return payload, nil
}

func (c *Client) requestURL(target string) string {
	q := url.Values{}
	q.Set("url", target)
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}
	for _, cat := range categories {
		q.Add("category", cat)
	}
	if c.cfg.Strategy != "" {
		q.Set("strategy", c.cfg.Strategy)
	}
	return c.cfg.Endpoint + "?" + q.Encode()
}

func (c *Client) transportError(ctx context.Context, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w after %s", lighthouse.ErrTimeout, c.cfg.Timeout)
	}
	return fmt.Errorf("pagespeed request: %s", c.redact(err.Error()))
}

// snippet trims the body for error messages and strips the API key.
func (c *Client) snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrSnippet {
		s = s[:maxErrSnippet]
	}
	return c.redact(s)
}

func (c *Client) redact(s string) string {
	if c.cfg.APIKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, c.cfg.APIKey, redactedAPIKey)
	return strings.ReplaceAll(s, url.QueryEscape(c.cfg.APIKey), redactedAPIKey)
}
