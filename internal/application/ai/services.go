package ai

import (
	"context"
	"fmt"

	domain "github.com/bryanwahyu/seoscan/internal/domain/ai"
	"github.com/bryanwahyu/seoscan/internal/domain/lighthouse"
	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	"github.com/bryanwahyu/seoscan/internal/logger"
)

// Service turns an audit payload into suggestions through a language model.
type Service struct {
	client domain.Client
	log    logger.Logger
}

func NewService(client domain.Client, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{client: client, log: log}
}

// Suggest asks the model for suggestions and parses its reply. Any error is
// returned untouched so the caller can fall back.
func (s *Service) Suggest(ctx context.Context, p *lighthouse.Payload) (reports.Suggestions, error) {
	text, err := s.client.Complete(ctx, SystemPrompt(), UserPrompt(p))
	if err != nil {
		return reports.Suggestions{}, fmt.Errorf("ai complete: %w", err)
	}
	out, err := ExtractSuggestions(text)
	if err != nil {
		s.log.Debug("unparseable ai reply", logger.Int("length", len(text)))
		return reports.Suggestions{}, err
	}
	return out, nil
}
