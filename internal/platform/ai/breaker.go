package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerAnalyzer wraps an Analyzer with a circuit breaker so a flapping
// model endpoint fails fast instead of holding up every upload.
type BreakerAnalyzer struct {
	inner   Analyzer
	breaker *gobreaker.CircuitBreaker[*Result]
}

// NewBreakerAnalyzer wraps the given analyzer. The breaker opens after five
// consecutive failures and probes again after 30 seconds.
func NewBreakerAnalyzer(inner Analyzer) *BreakerAnalyzer {
	settings := gobreaker.Settings{
		Name:        "document-analysis",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerAnalyzer{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*Result](settings),
	}
}

func (b *BreakerAnalyzer) AnalyzeDocument(ctx context.Context, doc Document) (*Result, error) {
	result, err := b.breaker.Execute(func() (*Result, error) {
		return b.inner.AnalyzeDocument(ctx, doc)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, err
	}
	return result, nil
}
