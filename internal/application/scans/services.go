package scans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/seoscan/internal/application"
	aiapp "github.com/bryanwahyu/seoscan/internal/application/ai"
	"github.com/bryanwahyu/seoscan/internal/domain/lighthouse"
	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	"github.com/bryanwahyu/seoscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/seoscan/internal/domain/scans"
	"github.com/bryanwahyu/seoscan/internal/logger"
)

// failWriteTimeout bounds the best-effort FAILED write, which runs on a fresh
// context because the analysis context may already be done.
const failWriteTimeout = 10 * time.Second

// Recorder receives analysis outcomes for metrics.
type Recorder interface {
	ScanFinished(status domain.Status)
	SuggestionSource(src reports.Source)
}

// Service implements use-cases untuk Scan.
// Safe for concurrent use; each scan is written only by its own RunAnalysis.
type Service struct {
	Repo       domain.Repository
	Auditor    domain.Auditor
	Suggester  domain.Suggester
	Fallback   func(*lighthouse.Payload) reports.Suggestions
	Artifacts  domain.ArtifactStore
	Errors     scanerrors.Repository
	Dispatcher domain.Dispatcher
	Metrics    Recorder
	Clock      application.Clock
	Logger     logger.Logger

	// AnalysisTimeout bounds one RunAnalysis end to end. Zero means no limit
	// beyond the per-call timeouts of the clients.
	AnalysisTimeout time.Duration
}

//
// ==== USE CASES ====
//

// Submit creates a PENDING scan for userID and schedules its analysis. It
// returns as soon as the scan row exists.
func (s *Service) Submit(ctx context.Context, url, userID string) (*domain.Scan, error) {
	url = strings.TrimSpace(url)
	if url == "" || strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: url and user are required", domain.ErrInvalidInput)
	}

	now := s.now()
	scan := &domain.Scan{
		ID:        domain.ScanID(uuid.NewString()),
		URL:       url,
		UserID:    userID,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("create scan: %w", err)
	}

	id, target := scan.ID, scan.URL
	err := s.Dispatcher.Dispatch(string(id), func(ctx context.Context) {
		_ = s.RunAnalysis(ctx, id, target)
	})
	if err != nil {
		log := s.log().With(logger.String("scan_id", string(id)))
		s.recordError(id, scanerrors.PhaseDispatch, err)
		s.markFailed(id, log)
		return nil, fmt.Errorf("dispatch analysis: %w", err)
	}

	s.log().Info("scan submitted",
		logger.String("scan_id", string(id)),
		logger.String("user_id", userID),
		logger.String("url", target),
	)
	return scan, nil
}

// RunAnalysis audits url, obtains suggestions (falling back when the model
// fails) and stores the report. Any failure after the scan has entered
// PROCESSING leaves it FAILED; panics are recovered.
func (s *Service) RunAnalysis(ctx context.Context, id domain.ScanID, url string) (err error) {
	log := s.log().With(logger.String("scan_id", string(id)))
	started := time.Now()
	claimed := false

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
			s.recordError(id, scanerrors.PhasePanic, err)
		}
		if err == nil {
			return
		}
		log.Warn("scan analysis failed", logger.Error(err))
		// A scan we never claimed belongs to someone else or is already
		// terminal; leave it alone.
		if claimed || !errors.Is(err, domain.ErrInvalidTransition) {
			s.markFailed(id, log)
		}
	}()

	if s.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AnalysisTimeout)
		defer cancel()
	}

	if err := s.Repo.Transition(ctx, id, domain.StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	claimed = true
	log.Info("scan processing")

	payload, err := s.Auditor.Audit(ctx, url)
	if err != nil {
		s.recordError(id, scanerrors.PhaseAudit, err)
		return fmt.Errorf("audit: %w", err)
	}

	scores, err := payload.Scores()
	if err != nil {
		s.recordError(id, scanerrors.PhaseScores, err)
		return fmt.Errorf("extract scores: %w", err)
	}

	suggestions, source := s.suggest(ctx, id, payload, log)

	s.archive(ctx, id, payload, log)

	report := &reports.Report{
		ID:               reports.ReportID(uuid.NewString()),
		ScanID:           string(id),
		Scores:           scores,
		LighthouseResult: payload.Raw(),
		Suggestions:      suggestions,
		SuggestionSource: source,
		CreatedAt:        s.now(),
	}
	if err := s.Repo.Complete(ctx, report); err != nil {
		s.recordError(id, scanerrors.PhasePersist, err)
		return fmt.Errorf("complete scan: %w", err)
	}

	if s.Metrics != nil {
		s.Metrics.ScanFinished(domain.StatusCompleted)
		s.Metrics.SuggestionSource(source)
	}
	log.Info("scan completed",
		logger.String("suggestion_source", string(source)),
		logger.Int("performance", scores.Performance),
		logger.Int("seo", scores.SEO),
		logger.Duration("took", time.Since(started)),
	)
	return nil
}

// Get ambil 1 scan (plus report) milik userID.
func (s *Service) Get(ctx context.Context, id domain.ScanID, userID string) (*domain.ScanWithReport, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, domain.ErrNotFound
	}
	return s.Repo.GetForUser(ctx, id, userID)
}

// History returns the user's scans, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]*domain.Scan, error) {
	return s.Repo.History(ctx, userID)
}

// FailStale marks scans stuck before `olderThan` ago as FAILED. Analyses lost
// to a restart never finish on their own. Scans the dispatcher still holds,
// including ones queued behind a busy pool, are left to their own
// RunAnalysis.
func (s *Service) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	var skip []domain.ScanID
	if t, ok := s.Dispatcher.(domain.InFlightTracker); ok {
		for _, key := range t.InFlightKeys() {
			skip = append(skip, domain.ScanID(key))
		}
	}
	n, err := s.Repo.FailStale(ctx, s.now().Add(-olderThan), skip)
	if err != nil {
		return 0, fmt.Errorf("fail stale scans: %w", err)
	}
	if n > 0 {
		s.log().Warn("stale scans marked failed", logger.Int64("count", n))
		if s.Metrics != nil {
			for i := int64(0); i < n; i++ {
				s.Metrics.ScanFinished(domain.StatusFailed)
			}
		}
	}
	return n, nil
}

// suggest never fails: model errors, unparseable replies and panics all end
// in the deterministic fallback.
func (s *Service) suggest(ctx context.Context, id domain.ScanID, p *lighthouse.Payload, log logger.Logger) (out reports.Suggestions, src reports.Source) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("suggester panicked: %v", r)
			log.Warn("using fallback suggestions", logger.Error(err))
			s.recordError(id, scanerrors.PhaseSuggest, err)
			out, src = s.fallback(p), reports.SourceFallback
		}
	}()

	if s.Suggester == nil {
		return s.fallback(p), reports.SourceFallback
	}
	got, err := s.Suggester.Suggest(ctx, p)
	if err != nil {
		log.Warn("using fallback suggestions", logger.Error(err))
		s.recordError(id, scanerrors.PhaseSuggest, err)
		return s.fallback(p), reports.SourceFallback
	}
	return got.Normalize(), reports.SourceAI
}

func (s *Service) fallback(p *lighthouse.Payload) reports.Suggestions {
	gen := s.Fallback
	if gen == nil {
		gen = aiapp.Fallback
	}
	return gen(p).Normalize()
}

// archive uploads the raw audit document; failures are logged only.
func (s *Service) archive(ctx context.Context, id domain.ScanID, p *lighthouse.Payload, log logger.Logger) {
	if s.Artifacts == nil {
		return
	}
	key := fmt.Sprintf("scans/%s/lighthouse.json", id)
	url, err := s.Artifacts.PutJSON(ctx, key, p.Raw())
	if err != nil {
		log.Warn("archive lighthouse payload", logger.Error(err))
		return
	}
	log.Debug("lighthouse payload archived", logger.String("artifact_url", url))
}

// markFailed is best effort. When even this write fails the scan would stay
// stuck, so it is reported at error level for operators.
func (s *Service) markFailed(id domain.ScanID, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), failWriteTimeout)
	defer cancel()

	if err := s.Repo.Transition(ctx, id, domain.StatusFailed); err != nil {
		log.Error("could not mark scan failed", logger.Error(err))
		return
	}
	if s.Metrics != nil {
		s.Metrics.ScanFinished(domain.StatusFailed)
	}
}

func (s *Service) recordError(id domain.ScanID, phase scanerrors.Phase, cause error) {
	if s.Errors == nil || cause == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), failWriteTimeout)
	defer cancel()

	e := &scanerrors.ScanError{
		ScanID:    string(id),
		Phase:     phase,
		Message:   cause.Error(),
		CreatedAt: s.now(),
	}
	if err := s.Errors.Save(ctx, e); err != nil {
		s.log().Warn("save scan error",
			logger.String("scan_id", string(id)),
			logger.Error(err),
		)
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s *Service) log() logger.Logger {
	if s.Logger == nil {
		return logger.NewNop()
	}
	return s.Logger
}
