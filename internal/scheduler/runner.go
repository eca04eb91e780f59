package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uplinkwatch/internal/actuator"
	"github.com/hamed0406/uplinkwatch/internal/domain"
	"github.com/hamed0406/uplinkwatch/internal/health"
	"github.com/hamed0406/uplinkwatch/internal/notify"
	"github.com/hamed0406/uplinkwatch/internal/probe"
	"github.com/hamed0406/uplinkwatch/internal/recovery"
	"github.com/hamed0406/uplinkwatch/internal/repo"
)

// Runner drives the monitoring cycles: probe, evaluate, govern, actuate,
// validate. One cycle runs to completion before the next starts — the single
// loop goroutine is what gives the governor its single-writer guarantee.
type Runner struct {
	Logger      *zap.Logger
	Specs       []domain.CheckSpec
	Prober      *probe.Prober
	Evaluator   health.Evaluator
	Governor    *recovery.Governor
	Cycler      *actuator.Cycler
	Assessments repo.AssessmentStore
	Notifier    notify.Notifier

	Interval        time.Duration
	ValidationDelay time.Duration

	// OnAssessment, when set, observes every published assessment
	// (websocket push). Called from the cycle goroutine; keep it fast.
	OnAssessment func(domain.HealthAssessment)

	mu          sync.RWMutex
	latest      *domain.HealthAssessment
	lastVerdict domain.Verdict

	kick     chan struct{}
	initKick sync.Once
}

// Run starts the loop. It does an immediate pass, then runs each tick and
// each manual trigger. Stops when ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	if r.Interval <= 0 {
		r.Logger.Info("runner_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("runner_stopped")
			return
		case <-t.C:
			r.runOnce(ctx)
		case <-r.kickCh():
			r.runOnce(ctx)
		}
	}
}

// Trigger requests one extra cycle as soon as the current one finishes.
// Used by the API's check endpoint and by the offline-transition fast path.
func (r *Runner) Trigger() {
	select {
	case r.kickCh() <- struct{}{}:
	default:
	}
}

// Latest returns the most recently completed assessment, if any.
func (r *Runner) Latest() (domain.HealthAssessment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return domain.HealthAssessment{}, false
	}
	return *r.latest, true
}

func (r *Runner) kickCh() chan struct{} {
	r.initKick.Do(func() { r.kick = make(chan struct{}, 1) })
	return r.kick
}

func (r *Runner) runOnce(ctx context.Context) {
	a, ok := r.assess(ctx)
	if !ok {
		return
	}

	transitioned := r.publish(a)

	if a.Online() {
		d := r.Governor.Consider(ctx, a, a.CheckedAt)
		if d.Reason == domain.ReasonRecoveryConfirmed {
			r.emit(ctx, notify.EventRecoverySucceeded,
				fmt.Sprintf("Uplink back online, confidence %.1f%%", a.Percent()))
		}
		return
	}

	if transitioned {
		// fast follow-up so a flapping uplink is confirmed quickly
		r.Trigger()
	}

	d := r.Governor.Consider(ctx, a, a.CheckedAt)
	switch d.Kind {
	case domain.DecisionDeny:
		detail := "Recovery denied: " + d.Reason
		if !d.NextEligible.IsZero() {
			detail += ", next eligible " + d.NextEligible.Format(time.RFC3339)
		}
		r.emit(ctx, notify.EventRecoveryDenied, detail)

	case domain.DecisionAuthorize:
		r.emit(ctx, notify.EventRecoveryAttempted,
			fmt.Sprintf("Power-cycling modem, confidence %.1f%%", a.Percent()))
		r.recover(ctx)
	}
}

// assess runs the battery and evaluates it. ok is false when the cycle was
// abandoned (shutdown mid-probe).
func (r *Runner) assess(ctx context.Context) (domain.HealthAssessment, bool) {
	results := r.Prober.Run(ctx, r.Specs)
	if results == nil {
		return domain.HealthAssessment{}, false
	}
	a := r.Evaluator.Evaluate(results, time.Now().UTC())
	r.Logger.Info("cycle_assessed",
		zap.String("verdict", string(a.Verdict)),
		zap.Float64("confidence", a.Percent()),
		zap.Int("failed_checks", len(a.Failed)),
	)
	return a, true
}

// publish stores the assessment and reports whether the verdict changed.
func (r *Runner) publish(a domain.HealthAssessment) bool {
	r.mu.Lock()
	prev := r.lastVerdict
	r.latest = &a
	r.lastVerdict = a.Verdict
	r.mu.Unlock()

	if err := r.Assessments.Append(context.Background(), &a); err != nil {
		r.Logger.Warn("assessment_append_failed", zap.Error(err))
	}
	if r.OnAssessment != nil {
		r.OnAssessment(a)
	}

	transitioned := prev != "" && prev != a.Verdict
	if transitioned {
		r.emit(context.Background(), notify.EventStatusChange,
			fmt.Sprintf("Uplink %s (confidence %.1f%%)", a.Verdict, a.Percent()))
	}
	return transitioned
}

// recover runs the authorized power cycle and the post-recovery validation
// probe. A validation that is still (or inconclusively) offline changes
// nothing: the attempt is already counted and the next cycle continues from
// there.
func (r *Runner) recover(ctx context.Context) {
	if err := r.Cycler.Cycle(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.Logger.Warn("recovery_unconfirmed", zap.Error(err))
	}

	r.Governor.BeginValidation()

	select {
	case <-ctx.Done():
		return
	case <-time.After(r.ValidationDelay):
	}

	a, ok := r.assess(ctx)
	if !ok {
		return
	}
	r.publish(a)

	if !a.Online() {
		// attempt already counted; the next scheduled cycle decides whether
		// another one is allowed
		r.Logger.Warn("recovery_validation_still_offline",
			zap.Float64("confidence", a.Percent()),
		)
		return
	}

	d := r.Governor.Consider(ctx, a, a.CheckedAt)
	if d.Reason == domain.ReasonRecoveryConfirmed {
		r.emit(ctx, notify.EventRecoverySucceeded,
			fmt.Sprintf("Uplink back online after power cycle, confidence %.1f%%", a.Percent()))
	}
}

func (r *Runner) emit(ctx context.Context, t notify.EventType, detail string) {
	if r.Notifier == nil {
		return
	}
	ev := notify.Event{Type: t, Timestamp: time.Now().UTC(), Detail: detail}
	if err := r.Notifier.Send(ctx, ev); err != nil {
		r.Logger.Warn("notify_failed", zap.String("event", string(t)), zap.Error(err))
	}
}
