package scans

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/seoscan/internal/domain/lighthouse"
	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	"github.com/bryanwahyu/seoscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/seoscan/internal/domain/scans"
)

func fixture(t *testing.T) *lighthouse.Payload {
	t.Helper()
	data, err := os.ReadFile("../../domain/lighthouse/testdata/pagespeed.json")
	require.NoError(t, err)
	return lighthouse.MustParse(data)
}

// memRepo enforces the same transition rules as the SQL stores.
type memRepo struct {
	mu      sync.Mutex
	scans   map[domain.ScanID]*domain.Scan
	reports map[domain.ScanID]*reports.Report

	completeErr   error
	transitionErr map[domain.Status]error
}

func newMemRepo() *memRepo {
	return &memRepo{
		scans:         map[domain.ScanID]*domain.Scan{},
		reports:       map[domain.ScanID]*reports.Report{},
		transitionErr: map[domain.Status]error{},
	}
}

func (r *memRepo) Create(_ context.Context, s *domain.Scan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.scans[s.ID] = &cp
	return nil
}

func (r *memRepo) Transition(_ context.Context, id domain.ScanID, to domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transitionErr[to]; err != nil {
		return err
	}
	s, ok := r.scans[id]
	if !ok || !domain.CanTransition(s.Status, to) {
		return domain.ErrInvalidTransition
	}
	s.Status = to
	return nil
}

func (r *memRepo) Complete(_ context.Context, rep *reports.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completeErr != nil {
		return r.completeErr
	}
	s, ok := r.scans[domain.ScanID(rep.ScanID)]
	if !ok || s.Status != domain.StatusProcessing {
		return domain.ErrInvalidTransition
	}
	if _, dup := r.reports[s.ID]; dup {
		return errors.New("duplicate report")
	}
	s.Status = domain.StatusCompleted
	r.reports[s.ID] = rep
	return nil
}

func (r *memRepo) GetForUser(_ context.Context, id domain.ScanID, userID string) (*domain.ScanWithReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scans[id]
	if !ok || s.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &domain.ScanWithReport{Scan: *s, Report: r.reports[id]}, nil
}

func (r *memRepo) History(_ context.Context, userID string) ([]*domain.Scan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Scan
	for _, s := range r.scans {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) FailStale(_ context.Context, before time.Time, skip []domain.ScanID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	held := make(map[domain.ScanID]bool, len(skip))
	for _, id := range skip {
		held[id] = true
	}
	var n int64
	for _, s := range r.scans {
		if !s.Status.IsTerminal() && s.UpdatedAt.Before(before) && !held[s.ID] {
			s.Status = domain.StatusFailed
			n++
		}
	}
	return n, nil
}

func (r *memRepo) status(id domain.ScanID) domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans[id].Status
}

func (r *memRepo) report(id domain.ScanID) *reports.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[id]
}

type fakeAuditor struct {
	payload *lighthouse.Payload
	err     error
	panics  bool
}

func (a *fakeAuditor) Audit(context.Context, string) (*lighthouse.Payload, error) {
	if a.panics {
		panic("auditor exploded")
	}
	return a.payload, a.err
}

type fakeSuggester struct {
	out    reports.Suggestions
	err    error
	panics bool
}

func (s *fakeSuggester) Suggest(context.Context, *lighthouse.Payload) (reports.Suggestions, error) {
	if s.panics {
		panic("suggester exploded")
	}
	return s.out, s.err
}

type errorLog struct {
	mu   sync.Mutex
	rows []*scanerrors.ScanError
}

func (e *errorLog) Save(_ context.Context, se *scanerrors.ScanError) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, se)
	return nil
}

func (e *errorLog) ListByScan(context.Context, string, int) ([]*scanerrors.ScanError, error) {
	return nil, nil
}

func (e *errorLog) phases() []scanerrors.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []scanerrors.Phase
	for _, r := range e.rows {
		out = append(out, r.Phase)
	}
	return out
}

type refusingDispatcher struct{}

func (refusingDispatcher) Dispatch(string, domain.Task) error { return errors.New("closed") }

type countingRecorder struct {
	mu       sync.Mutex
	finished map[domain.Status]int
	sources  map[reports.Source]int
}

func newRecorder() *countingRecorder {
	return &countingRecorder{finished: map[domain.Status]int{}, sources: map[reports.Source]int{}}
}

func (c *countingRecorder) ScanFinished(s domain.Status) {
	c.mu.Lock()
	c.finished[s]++
	c.mu.Unlock()
}

func (c *countingRecorder) SuggestionSource(s reports.Source) {
	c.mu.Lock()
	c.sources[s]++
	c.mu.Unlock()
}

type memArtifacts struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *memArtifacts) PutJSON(_ context.Context, key string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "s3://bucket/" + key, nil
}
