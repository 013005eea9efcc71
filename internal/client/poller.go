package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/seoscan/internal/domain/scans"
)

// ErrPollTimeout means the attempt budget ran out before a terminal status.
var ErrPollTimeout = errors.New("scan did not finish in time")

// PollerConfig bounds polling. Zero fields take the defaults.
type PollerConfig struct {
	Interval       time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultPollerConfig polls every 5s for up to 60 attempts (five minutes).
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:       5 * time.Second,
		MaxAttempts:    60,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

func (c PollerConfig) withDefaults() PollerConfig {
	d := DefaultPollerConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	return c
}

// Backoff returns the wait after the n-th consecutive failure (n >= 1).
func (c PollerConfig) Backoff(failures int) time.Duration {
	d := c.InitialBackoff
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	if d > c.MaxBackoff {
		return c.MaxBackoff
	}
	return d
}

// State is what the poller knows about one scan.
type State struct {
	ScanID   string
	Status   scans.Status
	Result   *ScanReport
	Attempts int
	Failures int
	LastErr  error
}

// Done reports whether the last known status is terminal.
func (s State) Done() bool { return s.Status.IsTerminal() }

// ReportFetcher is satisfied by *Client.
type ReportFetcher interface {
	Report(ctx context.Context, id string) (*ScanReport, error)
}

type Poller struct {
	Fetcher ReportFetcher
	Config  PollerConfig
	// OnUpdate, when set, sees every state change. It is never called after
	// the context passed to Run is done.
	OnUpdate func(State)
}

// Run fetches the scan immediately and keeps fetching until it reaches a
// terminal status, the attempt budget runs out (ErrPollTimeout) or ctx is
// done (ctx.Err()). The last known state is always returned.
func (p *Poller) Run(ctx context.Context, scanID string) (State, error) {
	cfg := p.Config.withDefaults()
	st := State{ScanID: scanID}

	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.Attempts++
		res, err := p.Fetcher.Report(ctx, scanID)
		// a request that finished after cancellation is stale
		if ctx.Err() != nil {
			return st, ctx.Err()
		}

		var wait time.Duration
		if err == nil && !res.Status.Valid() {
			err = fmt.Errorf("unknown scan status %q", res.Status)
		}
		if err != nil {
			st.Failures++
			st.LastErr = err
			wait = cfg.Backoff(st.Failures)
		} else {
			st.Failures = 0
			st.LastErr = nil
			st.Status = res.Status
			st.Result = res
			wait = cfg.Interval
		}
		p.notify(st)

		if st.Done() {
			return st, nil
		}
		if st.Attempts >= cfg.MaxAttempts {
			return st, ErrPollTimeout
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return st, ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *Poller) notify(st State) {
	if p.OnUpdate != nil {
		p.OnUpdate(st)
	}
}
