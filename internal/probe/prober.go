package probe

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// Prober fans a check battery out across goroutines. Checks are independent
// and share no mutable state, so the whole battery costs roughly the slowest
// single timeout instead of the sum.
type Prober struct {
	Logger      *zap.Logger
	DNS         Checker
	TCP         Checker
	HTTP        Checker
	Concurrency int
}

func NewProber(logger *zap.Logger, dns, tcp, http Checker, concurrency int) *Prober {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Prober{
		Logger:      logger,
		DNS:         dns,
		TCP:         tcp,
		HTTP:        http,
		Concurrency: concurrency,
	}
}

// Run executes every spec and returns one result per spec. If the context is
// cancelled mid-battery, nil is returned: abandoned cycles report nothing.
func (p *Prober) Run(ctx context.Context, specs []domain.CheckSpec) []domain.CheckResult {
	results := make([]domain.CheckResult, len(specs))

	sem := make(chan struct{}, p.Concurrency)
	var wg sync.WaitGroup

	for i, spec := range specs {
		if ctx.Err() != nil {
			break
		}
		i, spec := i, spec
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()

			results[i] = p.checkerFor(spec.Category).Check(ctx, spec)

			p.Logger.Debug("check_done",
				zap.String("category", string(spec.Category)),
				zap.String("name", spec.Name),
				zap.Bool("success", results[i].Success),
				zap.Float64("latency_ms", results[i].LatencyMS),
				zap.String("reason", results[i].Reason),
			)
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return results
}

func (p *Prober) checkerFor(c domain.Category) Checker {
	switch c {
	case domain.CategoryDNS:
		return p.DNS
	case domain.CategoryTCP:
		return p.TCP
	default:
		return p.HTTP
	}
}
