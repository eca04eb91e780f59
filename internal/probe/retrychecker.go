package probe

import (
	"context"
	"time"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// RetryChecker re-runs an inner checker on failure. Used for HTTP checks,
// where a single dropped connection should not depress the category ratio.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, spec domain.CheckSpec) domain.CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last domain.CheckResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, spec)
		if last.Success || ctx.Err() != nil {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	return last
}
