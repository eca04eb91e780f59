package recovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uplinkwatch/internal/domain"
	"github.com/hamed0406/uplinkwatch/internal/repo"
)

// Governor decides whether an offline verdict may trigger a recovery action.
// It never actuates anything itself: it authorizes, denies, and records, so
// the rate limit holds even when the actuator misbehaves.
//
// The scheduler guarantees single-writer access: one cycle completes before
// the next starts. Within a cycle, state writes are compute-the-full-new-
// state-then-persist, so a crash can never leave a half-updated count.
type Governor struct {
	Logger      *zap.Logger
	Store       repo.StateStore
	Target      string
	MaxAttempts int
	Window      time.Duration

	mu    sync.Mutex
	phase domain.Phase
}

func NewGovernor(logger *zap.Logger, store repo.StateStore, target string, maxAttempts int, window time.Duration) *Governor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if window <= 0 {
		window = 2 * time.Hour
	}
	return &Governor{
		Logger:      logger,
		Store:       store,
		Target:      target,
		MaxAttempts: maxAttempts,
		Window:      window,
		phase:       domain.PhaseIdle,
	}
}

// Consider maps one verdict onto a recovery decision.
//
// Online: back to Idle. If a recovery was pending validation, this verdict
// confirms it worked — the attempt counter resets to zero (the only early
// reset; otherwise attempts age out of the window naturally).
//
// Offline: prune the window, then either authorize (and persist the new
// attempt before reporting success) or deny with the next-eligible time.
// Any store failure fails closed: an uncounted recovery is worse than a
// delayed one.
func (g *Governor) Consider(ctx context.Context, a domain.HealthAssessment, now time.Time) domain.Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if a.Online() {
		return g.confirmHealthy(ctx, now)
	}

	g.setPhase(domain.PhaseEvaluating)

	st, err := g.Store.Load(ctx, g.Target)
	if err != nil {
		g.Logger.Error("recovery_state_load_failed", zap.Error(err))
		g.setPhase(domain.PhaseCoolingDown)
		return domain.Decision{Kind: domain.DecisionDeny, Reason: domain.DenyStateUnavailable}
	}
	if st == nil {
		st = &domain.RecoveryState{}
	}

	st.Prune(now, g.Window)

	if len(st.Attempts) >= g.MaxAttempts {
		next := st.Attempts[0].Add(g.Window)
		g.setPhase(domain.PhaseCoolingDown)
		g.Logger.Warn("recovery_denied",
			zap.Int("attempts_in_window", len(st.Attempts)),
			zap.Time("next_eligible", next),
		)
		return domain.Decision{
			Kind:         domain.DecisionDeny,
			Reason:       domain.DenyCooldownActive,
			NextEligible: next,
		}
	}

	st.Attempts = append(st.Attempts, now)
	st.LastAttempt = now
	st.PendingValidation = true

	if err := g.Store.Save(ctx, g.Target, *st); err != nil {
		g.Logger.Error("recovery_state_save_failed", zap.Error(err))
		g.setPhase(domain.PhaseCoolingDown)
		return domain.Decision{Kind: domain.DecisionDeny, Reason: domain.DenyStateUnavailable}
	}

	g.setPhase(domain.PhaseRecovering)
	g.Logger.Info("recovery_authorized",
		zap.Int("attempt", len(st.Attempts)),
		zap.Int("max_attempts", g.MaxAttempts),
	)
	return domain.Decision{Kind: domain.DecisionAuthorize}
}

func (g *Governor) confirmHealthy(ctx context.Context, now time.Time) domain.Decision {
	st, err := g.Store.Load(ctx, g.Target)
	if err != nil {
		// nothing to authorize here, so an unreadable store is not fatal;
		// the reset retries on the next online verdict
		g.Logger.Warn("recovery_state_load_failed", zap.Error(err))
		g.setPhase(domain.PhaseIdle)
		return domain.Decision{Kind: domain.DecisionAlreadyHealthy}
	}

	if st != nil && st.PendingValidation && len(st.Attempts) > 0 {
		if err := g.Store.Save(ctx, g.Target, domain.RecoveryState{}); err != nil {
			g.Logger.Warn("recovery_reset_failed", zap.Error(err))
		} else {
			g.Logger.Info("recovery_confirmed", zap.Time("at", now))
			g.setPhase(domain.PhaseIdle)
			return domain.Decision{
				Kind:   domain.DecisionAlreadyHealthy,
				Reason: domain.ReasonRecoveryConfirmed,
			}
		}
	} else if st != nil && st.PendingValidation {
		st.PendingValidation = false
		if err := g.Store.Save(ctx, g.Target, *st); err != nil {
			g.Logger.Warn("recovery_reset_failed", zap.Error(err))
		}
	}

	g.setPhase(domain.PhaseIdle)
	return domain.Decision{Kind: domain.DecisionAlreadyHealthy}
}

// BeginValidation marks the window between actuation and the trusted
// re-probe. Called by the cycle runner after the power cycle completes.
func (g *Governor) BeginValidation() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setPhase(domain.PhaseValidating)
}

// Snapshot returns the externally visible view of the governor. It reads
// through the store so restarts show the persisted truth.
func (g *Governor) Snapshot(ctx context.Context, now time.Time) (domain.RecoverySnapshot, error) {
	g.mu.Lock()
	phase := g.phase
	g.mu.Unlock()

	snap := domain.RecoverySnapshot{Phase: phase}

	st, err := g.Store.Load(ctx, g.Target)
	if err != nil {
		return snap, err
	}
	if st == nil {
		return snap, nil
	}

	st.Prune(now, g.Window)
	snap.AttemptsInWindow = len(st.Attempts)
	if !st.LastAttempt.IsZero() {
		la := st.LastAttempt
		snap.LastAttempt = &la
	}
	if len(st.Attempts) >= g.MaxAttempts {
		ne := st.Attempts[0].Add(g.Window)
		snap.NextEligible = &ne
	}
	return snap, nil
}

// setPhase assumes g.mu is held.
func (g *Governor) setPhase(p domain.Phase) {
	if g.phase != p {
		g.Logger.Debug("governor_phase",
			zap.String("from", string(g.phase)),
			zap.String("to", string(p)),
		)
		g.phase = p
	}
}
