package scans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/seoscan/internal/application"
	"github.com/bryanwahyu/seoscan/internal/domain/lighthouse"
	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	"github.com/bryanwahyu/seoscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/seoscan/internal/domain/scans"
	"github.com/bryanwahyu/seoscan/internal/infra/worker"
)

type harness struct {
	svc      *Service
	repo     *memRepo
	auditor  *fakeAuditor
	suggest  *fakeSuggester
	errs     *errorLog
	metrics  *countingRecorder
	pool     *worker.Pool
	archives *memArtifacts
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		repo:     newMemRepo(),
		auditor:  &fakeAuditor{payload: fixture(t)},
		suggest:  &fakeSuggester{out: reports.Suggestions{Issues: []reports.Issue{{Title: "from ai", Severity: "high"}}}},
		errs:     &errorLog{},
		metrics:  newRecorder(),
		pool:     worker.New(2, nil),
		archives: &memArtifacts{},
	}
	h.svc = &Service{
		Repo:       h.repo,
		Auditor:    h.auditor,
		Suggester:  h.suggest,
		Artifacts:  h.archives,
		Errors:     h.errs,
		Dispatcher: h.pool,
		Metrics:    h.metrics,
		Clock:      application.FixedClock{T: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	return h
}

func (h *harness) submit(t *testing.T) *domain.Scan {
	t.Helper()
	scan, err := h.svc.Submit(context.Background(), "https://example.com", "user-1")
	require.NoError(t, err)
	h.pool.Wait()
	return scan
}

func TestSubmit_ReturnsPendingScanOwnedByCaller(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.auditor.payload = fixture(t)
	blocking := &blockingAuditor{release: release, payload: h.auditor.payload}
	h.svc.Auditor = blocking

	scan, err := h.svc.Submit(context.Background(), " https://example.com ", "user-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, scan.Status)
	assert.Equal(t, "user-1", scan.UserID)
	assert.Equal(t, "https://example.com", scan.URL)
	assert.NotEmpty(t, scan.ID)

	close(release)
	h.pool.Wait()
	assert.Equal(t, domain.StatusCompleted, h.repo.status(scan.ID))
}

type blockingAuditor struct {
	release chan struct{}
	payload *lighthouse.Payload
}

func (b *blockingAuditor) Audit(ctx context.Context, _ string) (*lighthouse.Payload, error) {
	select {
	case <-b.release:
		return b.payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSubmit_RejectsEmptyInput(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Submit(context.Background(), "  ", "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = h.svc.Submit(context.Background(), "https://example.com", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, h.repo.scans)
}

func TestSubmit_DispatchRefusedMarksFailed(t *testing.T) {
	h := newHarness(t)
	h.svc.Dispatcher = refusingDispatcher{}

	_, err := h.svc.Submit(context.Background(), "https://example.com", "user-1")
	require.Error(t, err)

	require.Len(t, h.repo.scans, 1)
	for id := range h.repo.scans {
		assert.Equal(t, domain.StatusFailed, h.repo.status(id))
	}
	assert.Equal(t, []scanerrors.Phase{scanerrors.PhaseDispatch}, h.errs.phases())
}

func TestRunAnalysis_CompletesWithAISuggestions(t *testing.T) {
	h := newHarness(t)
	scan := h.submit(t)

	assert.Equal(t, domain.StatusCompleted, h.repo.status(scan.ID))
	rep := h.repo.report(scan.ID)
	require.NotNil(t, rep)
	assert.Equal(t, 87, rep.Performance)
	assert.Equal(t, 45, rep.Accessibility)
	assert.Equal(t, 100, rep.BestPractices)
	assert.Equal(t, 92, rep.SEO)
	assert.Equal(t, reports.SourceAI, rep.SuggestionSource)
	assert.Equal(t, "from ai", rep.Suggestions.Issues[0].Title)
	assert.NotNil(t, rep.Suggestions.Recommendations)
	assert.NotEmpty(t, rep.LighthouseResult)

	assert.Equal(t, []string{"scans/" + string(scan.ID) + "/lighthouse.json"}, h.archives.keys)
	assert.Equal(t, 1, h.metrics.finished[domain.StatusCompleted])
	assert.Equal(t, 1, h.metrics.sources[reports.SourceAI])
	assert.Empty(t, h.errs.phases())
}

func TestRunAnalysis_AuditFailureLeavesNoReport(t *testing.T) {
	h := newHarness(t)
	h.auditor.err = lighthouse.ErrTimeout
	scan := h.submit(t)

	assert.Equal(t, domain.StatusFailed, h.repo.status(scan.ID))
	assert.Nil(t, h.repo.report(scan.ID))
	assert.Equal(t, []scanerrors.Phase{scanerrors.PhaseAudit}, h.errs.phases())
	assert.Equal(t, 1, h.metrics.finished[domain.StatusFailed])
}

func TestRunAnalysis_SuggestionFailuresFallBack(t *testing.T) {
	cases := map[string]*fakeSuggester{
		"error":  {err: errors.New("model returned prose")},
		"panic":  {panics: true},
		"absent": nil,
	}
	for name, sug := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			if sug == nil {
				h.svc.Suggester = nil
			} else {
				h.svc.Suggester = sug
			}
			scan := h.submit(t)

			assert.Equal(t, domain.StatusCompleted, h.repo.status(scan.ID))
			rep := h.repo.report(scan.ID)
			require.NotNil(t, rep)
			assert.Equal(t, reports.SourceFallback, rep.SuggestionSource)
			assert.Equal(t, "Improve Performance", rep.Suggestions.Recommendations[0].Title)
			assert.Equal(t, 1, h.metrics.sources[reports.SourceFallback])
		})
	}
}

func TestRunAnalysis_CustomFallback(t *testing.T) {
	h := newHarness(t)
	h.suggest.err = errors.New("quota")
	h.svc.Fallback = func(*lighthouse.Payload) reports.Suggestions {
		return reports.Suggestions{Issues: []reports.Issue{{Title: "custom"}}}
	}
	scan := h.submit(t)

	rep := h.repo.report(scan.ID)
	require.NotNil(t, rep)
	assert.Equal(t, "custom", rep.Suggestions.Issues[0].Title)
	assert.NotNil(t, rep.Suggestions.TechnicalDetails)
}

func TestRunAnalysis_MissingCategoryFails(t *testing.T) {
	h := newHarness(t)
	h.auditor.payload = lighthouse.MustParse([]byte(`{"lighthouseResult": {"categories": {"performance": {"score": 0.5}}}}`))
	scan := h.submit(t)

	assert.Equal(t, domain.StatusFailed, h.repo.status(scan.ID))
	assert.Nil(t, h.repo.report(scan.ID))
	assert.Equal(t, []scanerrors.Phase{scanerrors.PhaseScores}, h.errs.phases())
}

func TestRunAnalysis_PersistFailureMarksFailed(t *testing.T) {
	h := newHarness(t)
	h.repo.completeErr = errors.New("deadlock")
	scan := h.submit(t)

	assert.Equal(t, domain.StatusFailed, h.repo.status(scan.ID))
	assert.Nil(t, h.repo.report(scan.ID))
	assert.Equal(t, []scanerrors.Phase{scanerrors.PhasePersist}, h.errs.phases())
}

func TestRunAnalysis_RecoversAuditorPanic(t *testing.T) {
	h := newHarness(t)
	h.auditor.panics = true
	scan := h.submit(t)

	assert.Equal(t, domain.StatusFailed, h.repo.status(scan.ID))
	assert.Equal(t, []scanerrors.Phase{scanerrors.PhasePanic}, h.errs.phases())
}

func TestRunAnalysis_ArchiveFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.archives.err = errors.New("bucket gone")
	scan := h.submit(t)
	assert.Equal(t, domain.StatusCompleted, h.repo.status(scan.ID))
}

func TestRunAnalysis_FailedWriteFailureDoesNotPanic(t *testing.T) {
	h := newHarness(t)
	h.auditor.err = errors.New("boom")
	h.repo.transitionErr[domain.StatusFailed] = errors.New("db down")
	scan := h.submit(t)

	assert.Equal(t, domain.StatusProcessing, h.repo.status(scan.ID))
	assert.Equal(t, 0, h.metrics.finished[domain.StatusFailed])
}

func TestRunAnalysis_TerminalScanIsLeftAlone(t *testing.T) {
	h := newHarness(t)
	scan := h.submit(t)
	require.Equal(t, domain.StatusCompleted, h.repo.status(scan.ID))

	err := h.svc.RunAnalysis(context.Background(), scan.ID, scan.URL)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusCompleted, h.repo.status(scan.ID))
}

func TestGet_OwnershipScoped(t *testing.T) {
	h := newHarness(t)
	scan := h.submit(t)

	got, err := h.svc.Get(context.Background(), scan.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.Report)

	_, err = h.svc.Get(context.Background(), scan.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.svc.Get(context.Background(), "missing", "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_PendingHasNoReport(t *testing.T) {
	h := newHarness(t)
	scan := &domain.Scan{ID: "p1", URL: "https://example.com", UserID: "user-1", Status: domain.StatusPending}
	require.NoError(t, h.repo.Create(context.Background(), scan))

	got, err := h.svc.Get(context.Background(), "p1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.Report)
}

func TestHistory_NewestFirst(t *testing.T) {
	h := newHarness(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []domain.ScanID{"old", "mid", "new"} {
		require.NoError(t, h.repo.Create(context.Background(), &domain.Scan{
			ID: id, UserID: "user-1", Status: domain.StatusPending, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, h.repo.Create(context.Background(), &domain.Scan{ID: "other", UserID: "user-2", CreatedAt: base}))

	got, err := h.svc.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.ScanID("new"), got[0].ID)
	assert.Equal(t, domain.ScanID("old"), got[2].ID)
}

func TestFailStale(t *testing.T) {
	h := newHarness(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, h.repo.Create(ctx, &domain.Scan{ID: "stuck", UserID: "u", Status: domain.StatusProcessing, UpdatedAt: now.Add(-time.Hour)}))
	require.NoError(t, h.repo.Create(ctx, &domain.Scan{ID: "fresh", UserID: "u", Status: domain.StatusPending, UpdatedAt: now.Add(-time.Minute)}))
	require.NoError(t, h.repo.Create(ctx, &domain.Scan{ID: "done", UserID: "u", Status: domain.StatusCompleted, UpdatedAt: now.Add(-time.Hour)}))

	n, err := h.svc.FailStale(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, domain.StatusFailed, h.repo.status("stuck"))
	assert.Equal(t, domain.StatusPending, h.repo.status("fresh"))
	assert.Equal(t, domain.StatusCompleted, h.repo.status("done"))
	assert.Equal(t, 1, h.metrics.finished[domain.StatusFailed])
}

func TestFailStale_SparesScansQueuedInPool(t *testing.T) {
	h := newHarness(t)
	h.pool = worker.New(1, nil)
	h.svc.Dispatcher = h.pool
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, h.pool.Dispatch("busy", func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	h.svc.Clock = application.FixedClock{T: now.Add(-11 * time.Minute)}
	queued, err := h.svc.Submit(ctx, "https://example.com", "user-1")
	require.NoError(t, err)
	require.NoError(t, h.repo.Create(ctx, &domain.Scan{ID: "lost", UserID: "u", Status: domain.StatusPending, UpdatedAt: now.Add(-time.Hour)}))

	h.svc.Clock = application.FixedClock{T: now}
	n, err := h.svc.FailStale(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, domain.StatusFailed, h.repo.status("lost"))
	assert.Equal(t, domain.StatusPending, h.repo.status(queued.ID))

	close(release)
	h.pool.Wait()
	assert.Equal(t, domain.StatusCompleted, h.repo.status(queued.ID))
	assert.NotNil(t, h.repo.report(queued.ID))
}
