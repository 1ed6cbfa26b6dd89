package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.ProviderProbe = (*Probe)(nil)

// DefaultProbeTimeout bounds a single provider ping.
const DefaultProbeTimeout = 5 * time.Second

// Probe builds a short-lived adapter from settings and pings it.
type Probe struct {
	timeout time.Duration
}

// NewProbe returns a Probe. A non-positive timeout uses DefaultProbeTimeout.
func NewProbe(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Probe{timeout: timeout}
}

func (p *Probe) ProbeEmbedding(ctx context.Context, s *domain.EmbeddingSettings) error {
	svc, err := NewEmbedder(ctx, s)
	if err != nil || svc == nil {
		return err
	}
	return p.ping(ctx, svc)
}

func (p *Probe) ProbeLLM(ctx context.Context, s *domain.LLMSettings) error {
	svc, err := NewLLM(ctx, s)
	if err != nil || svc == nil {
		return err
	}
	return p.ping(ctx, svc)
}

type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

func (p *Probe) ping(ctx context.Context, svc pinger) error {
	defer svc.Close() //nolint:errcheck
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return svc.Ping(ctx)
}
