package ai

import (
	"context"
	"time"

	"github.com/bryanwahyu/draft-analyzer/internal/domain/ai"
)

// Service bounds every completion call with a timeout. It never retries.
type Service struct {
	client  ai.Client
	timeout time.Duration
}

func NewService(client ai.Client, timeout time.Duration) *Service {
	return &Service{client: client, timeout: timeout}
}

// Analyze runs one completion. The caller's cancellation is ignored so an
// accepted request runs to completion or failure; only the timeout applies.
func (s *Service) Analyze(ctx context.Context, in ai.DraftInput) (string, error) {
	ctx = context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.client.Analyze(ctx, in)
}
