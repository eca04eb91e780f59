package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uplinkwatch/internal/domain"
	"github.com/hamed0406/uplinkwatch/internal/repo/memory"
)

var (
	online  = domain.HealthAssessment{Verdict: domain.VerdictOnline, Score: 1.0}
	offline = domain.HealthAssessment{Verdict: domain.VerdictOffline, Score: 0.0}
	t0      = time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
)

func newGovernor(t *testing.T) (*Governor, *memory.Store) {
	t.Helper()
	store := memory.New()
	g := NewGovernor(zap.NewNop(), store, "uplink", 3, 2*time.Hour)
	return g, store
}

func TestConsider_FirstOfflineAuthorizes(t *testing.T) {
	g, store := newGovernor(t)
	ctx := context.Background()

	d := g.Consider(ctx, offline, t0)
	if d.Kind != domain.DecisionAuthorize {
		t.Fatalf("want authorize, got %+v", d)
	}

	st, _ := store.Load(ctx, "uplink")
	if st == nil || len(st.Attempts) != 1 || !st.PendingValidation {
		t.Fatalf("attempt not recorded: %+v", st)
	}
	if !st.Attempts[0].Equal(t0) || !st.LastAttempt.Equal(t0) {
		t.Fatalf("timestamps wrong: %+v", st)
	}
}

func TestConsider_RateLimitThenWindowExpiry(t *testing.T) {
	g, _ := newGovernor(t)
	ctx := context.Background()

	// 3 attempts at t=0, t=30min, t=90min, all authorized
	for _, at := range []time.Time{t0, t0.Add(30 * time.Minute), t0.Add(90 * time.Minute)} {
		if d := g.Consider(ctx, offline, at); d.Kind != domain.DecisionAuthorize {
			t.Fatalf("attempt at %v should authorize, got %+v", at, d)
		}
	}

	// 4th offline at t=100min: all 3 still in window -> deny
	d := g.Consider(ctx, offline, t0.Add(100*time.Minute))
	if d.Kind != domain.DecisionDeny || d.Reason != domain.DenyCooldownActive {
		t.Fatalf("want cooldown deny, got %+v", d)
	}
	wantNext := t0.Add(2 * time.Hour) // earliest attempt + window
	if !d.NextEligible.Equal(wantNext) {
		t.Fatalf("want next eligible %v, got %v", wantNext, d.NextEligible)
	}

	// t=125min: the t=0 attempt aged out -> prune to 2, authorize again
	d = g.Consider(ctx, offline, t0.Add(125*time.Minute))
	if d.Kind != domain.DecisionAuthorize {
		t.Fatalf("want authorize after window expiry, got %+v", d)
	}

	snap, err := g.Snapshot(ctx, t0.Add(125*time.Minute))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.AttemptsInWindow != 3 { // 30min, 90min, 125min
		t.Fatalf("want 3 attempts in window, got %d", snap.AttemptsInWindow)
	}
}

func TestConsider_OnlineAfterPendingRecoveryResets(t *testing.T) {
	g, store := newGovernor(t)
	ctx := context.Background()

	if d := g.Consider(ctx, offline, t0); d.Kind != domain.DecisionAuthorize {
		t.Fatalf("setup authorize failed: %+v", d)
	}

	// next cycle sees online: success clears the slate even with 1 of 3 used
	d := g.Consider(ctx, online, t0.Add(5*time.Minute))
	if d.Kind != domain.DecisionAlreadyHealthy {
		t.Fatalf("want already healthy, got %+v", d)
	}
	st, _ := store.Load(ctx, "uplink")
	if st == nil || len(st.Attempts) != 0 || st.PendingValidation {
		t.Fatalf("success must reset attempts: %+v", st)
	}
}

func TestConsider_OnlineWithoutPendingKeepsAttempts(t *testing.T) {
	g, store := newGovernor(t)
	ctx := context.Background()

	// an attempt whose validation already concluded (pending cleared)
	seed := domain.RecoveryState{
		Attempts:    []time.Time{t0},
		LastAttempt: t0,
	}
	if err := store.Save(ctx, "uplink", seed); err != nil {
		t.Fatal(err)
	}

	g.Consider(ctx, online, t0.Add(10*time.Minute))

	st, _ := store.Load(ctx, "uplink")
	if len(st.Attempts) != 1 {
		t.Fatalf("online with no pending recovery must not reset the window: %+v", st)
	}
}

func TestConsider_ContinuedOfflineKeepsCounting(t *testing.T) {
	g, store := newGovernor(t)
	ctx := context.Background()

	g.Consider(ctx, offline, t0)
	// validation was inconclusive / still offline; next cycle is another
	// offline verdict and consumes attempt 2
	d := g.Consider(ctx, offline, t0.Add(10*time.Minute))
	if d.Kind != domain.DecisionAuthorize {
		t.Fatalf("want second authorize, got %+v", d)
	}
	st, _ := store.Load(ctx, "uplink")
	if len(st.Attempts) != 2 {
		t.Fatalf("want 2 recorded attempts, got %+v", st)
	}
}

// failingStore wraps the memory store and fails on demand.
type failingStore struct {
	*memory.Store
	failLoad bool
	failSave bool
}

var errStore = errors.New("store down")

func (f *failingStore) Load(ctx context.Context, target string) (*domain.RecoveryState, error) {
	if f.failLoad {
		return nil, errStore
	}
	return f.Store.Load(ctx, target)
}

func (f *failingStore) Save(ctx context.Context, target string, st domain.RecoveryState) error {
	if f.failSave {
		return errStore
	}
	return f.Store.Save(ctx, target, st)
}

func TestConsider_StoreFailureFailsClosed(t *testing.T) {
	ctx := context.Background()

	fs := &failingStore{Store: memory.New(), failLoad: true}
	g := NewGovernor(zap.NewNop(), fs, "uplink", 3, 2*time.Hour)
	d := g.Consider(ctx, offline, t0)
	if d.Kind != domain.DecisionDeny || d.Reason != domain.DenyStateUnavailable {
		t.Fatalf("load failure must deny with state unavailable, got %+v", d)
	}

	fs = &failingStore{Store: memory.New(), failSave: true}
	g = NewGovernor(zap.NewNop(), fs, "uplink", 3, 2*time.Hour)
	d = g.Consider(ctx, offline, t0)
	if d.Kind != domain.DecisionDeny || d.Reason != domain.DenyStateUnavailable {
		t.Fatalf("save failure must deny (never an uncounted recovery), got %+v", d)
	}
	// and nothing may have been recorded as authorized
	st, _ := fs.Store.Load(ctx, "uplink")
	if st != nil && len(st.Attempts) > 0 {
		t.Fatalf("no attempt may be visible after failed save: %+v", st)
	}
}

func TestSnapshot_PhasesAndNextEligible(t *testing.T) {
	g, _ := newGovernor(t)
	ctx := context.Background()

	snap, err := g.Snapshot(ctx, t0)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Phase != domain.PhaseIdle || snap.AttemptsInWindow != 0 {
		t.Fatalf("fresh governor snapshot wrong: %+v", snap)
	}

	g.Consider(ctx, offline, t0)
	g.BeginValidation()
	snap, _ = g.Snapshot(ctx, t0)
	if snap.Phase != domain.PhaseValidating || snap.AttemptsInWindow != 1 {
		t.Fatalf("validating snapshot wrong: %+v", snap)
	}
	if snap.NextEligible != nil {
		t.Fatalf("below the limit there is no next-eligible gate: %+v", snap)
	}

	g.Consider(ctx, offline, t0.Add(1*time.Minute))
	g.Consider(ctx, offline, t0.Add(2*time.Minute))
	g.Consider(ctx, offline, t0.Add(3*time.Minute)) // denied
	snap, _ = g.Snapshot(ctx, t0.Add(3*time.Minute))
	if snap.Phase != domain.PhaseCoolingDown {
		t.Fatalf("want cooling down, got %+v", snap)
	}
	if snap.NextEligible == nil || !snap.NextEligible.Equal(t0.Add(2*time.Hour)) {
		t.Fatalf("next eligible wrong: %+v", snap.NextEligible)
	}
}
