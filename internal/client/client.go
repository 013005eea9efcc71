// Package client talks to the seoscan HTTP API and polls scans to completion.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	"github.com/bryanwahyu/seoscan/internal/domain/scans"
	"github.com/bryanwahyu/seoscan/internal/domain/users"
)

const (
	DefaultBaseURL = "http://localhost:3001"
	defaultTimeout = 10 * time.Second
	sessionCookie  = "jwt"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

// Submission is the answer to POST /report/scan.
type Submission struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ScanReport is the answer to GET /report/{id}. Report is nil until the scan
// is COMPLETED.
type ScanReport struct {
	ID     string          `json:"id"`
	Status scans.Status    `json:"status"`
	URL    string          `json:"url"`
	Report *reports.Report `json:"report"`
}

// Client is safe for concurrent use.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// New creates a client for baseURL. token may be empty; once a signup or
// login succeeds the session cookie is kept in the client's jar.
func New(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:  u,
		http:  &http.Client{Timeout: defaultTimeout, Jar: jar},
		token: token,
	}, nil
}

// Token returns the current session token, from the jar when available.
func (c *Client) Token() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == sessionCookie && ck.Value != "" {
			return ck.Value
		}
	}
	return c.token
}

func (c *Client) Signup(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/signup", map[string]string{"email": email, "password": password}, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.token = ""
	return err
}

func (c *Client) Profile(ctx context.Context) (*users.User, error) {
	var u users.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Submit requests a scan of target.
func (c *Client) Submit(ctx context.Context, target string) (*Submission, error) {
	var s Submission
	if err := c.do(ctx, http.MethodPost, "/report/scan", map[string]string{"url": target}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Report fetches a scan and, once completed, its report.
func (c *Client) Report(ctx context.Context, id string) (*ScanReport, error) {
	var r ScanReport
	if err := c.do(ctx, http.MethodGet, "/report/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// History lists the caller's scans, newest first.
func (c *Client) History(ctx context.Context) ([]scans.Scan, error) {
	var list []scans.Scan
	if err := c.do(ctx, http.MethodGet, "/report/history", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
