package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uplinkwatch/internal/actuator"
	"github.com/hamed0406/uplinkwatch/internal/domain"
	"github.com/hamed0406/uplinkwatch/internal/health"
	"github.com/hamed0406/uplinkwatch/internal/notify"
	"github.com/hamed0406/uplinkwatch/internal/probe"
	"github.com/hamed0406/uplinkwatch/internal/recovery"
	"github.com/hamed0406/uplinkwatch/internal/repo/memory"
)

// --- fakes ---

// scriptedChecker returns success/failure per call according to a script;
// past the script's end it repeats the last entry.
type scriptedChecker struct {
	mu     sync.Mutex
	script []bool
	i      int
}

func (s *scriptedChecker) Check(ctx context.Context, spec domain.CheckSpec) domain.CheckResult {
	s.mu.Lock()
	ok := false
	if len(s.script) > 0 {
		idx := s.i
		if idx >= len(s.script) {
			idx = len(s.script) - 1
		}
		ok = s.script[idx]
		s.i++
	}
	s.mu.Unlock()
	return domain.CheckResult{
		Category:  spec.Category,
		Name:      spec.Name,
		Success:   ok,
		CheckedAt: time.Now().UTC(),
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Send(ctx context.Context, ev notify.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recordingNotifier) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type recordingActuator struct {
	mu       sync.Mutex
	commands []bool
}

func (a *recordingActuator) SetPower(ctx context.Context, on bool) error {
	a.mu.Lock()
	a.commands = append(a.commands, on)
	a.mu.Unlock()
	return nil
}

func (a *recordingActuator) GetPower(ctx context.Context) (actuator.PowerState, error) {
	return actuator.PowerOn, nil
}

func specs() []domain.CheckSpec {
	return []domain.CheckSpec{
		{Category: domain.CategoryDNS, Name: "d1"},
		{Category: domain.CategoryTCP, Name: "t1"},
		{Category: domain.CategoryHTTP, Name: "h1"},
	}
}

func newRunner(chk probe.Checker, nt notify.Notifier, act actuator.Actuator) (*Runner, *memory.Store) {
	log := zap.NewNop()
	store := memory.New()
	return &Runner{
		Logger:          log,
		Specs:           specs(),
		Prober:          probe.NewProber(log, chk, chk, chk, 2),
		Evaluator:       health.NewEvaluator(health.DefaultWeights, 0.60),
		Governor:        recovery.NewGovernor(log, store, "uplink", 3, 2*time.Hour),
		Cycler:          actuator.NewCycler(log, act, time.Millisecond),
		Assessments:     store,
		Notifier:        nt,
		Interval:        time.Hour, // ticks irrelevant; tests call runOnce
		ValidationDelay: time.Millisecond,
	}, store
}

// --- tests ---

func TestRunner_HealthyCycle_PublishesLatest(t *testing.T) {
	chk := &scriptedChecker{script: []bool{true}}
	nt := &recordingNotifier{}
	r, store := newRunner(chk, nt, &recordingActuator{})

	r.runOnce(context.Background())

	a, ok := r.Latest()
	if !ok || !a.Online() || a.Score < 0.999 {
		t.Fatalf("latest wrong: %+v ok=%v", a, ok)
	}
	if stored, _ := store.Latest(context.Background()); stored == nil {
		t.Fatal("assessment not appended to store")
	}
	if len(nt.types()) != 0 {
		t.Fatalf("healthy first cycle should notify nothing, got %v", nt.types())
	}
}

func TestRunner_OfflineCycle_RecoversAndValidates(t *testing.T) {
	// every check fails during the main battery, then succeeds during the
	// post-recovery validation battery (3 checks per pass)
	chk := &scriptedChecker{script: []bool{
		false, false, false, // cycle 1: offline
		true, true, true, // validation: online
	}}
	nt := &recordingNotifier{}
	act := &recordingActuator{}
	r, store := newRunner(chk, nt, act)

	r.runOnce(context.Background())

	// power was cycled off then on
	act.mu.Lock()
	cmds := append([]bool(nil), act.commands...)
	act.mu.Unlock()
	if len(cmds) != 2 || cmds[0] != false || cmds[1] != true {
		t.Fatalf("want off,on; got %v", cmds)
	}

	// validation reset the attempt counter
	st, _ := store.Load(context.Background(), "uplink")
	if st == nil || len(st.Attempts) != 0 {
		t.Fatalf("confirmed recovery must reset attempts: %+v", st)
	}

	// attempted, then the validation flips the verdict (status_change),
	// then the confirmed success
	types := nt.types()
	wantSeq := []notify.EventType{
		notify.EventRecoveryAttempted,
		notify.EventStatusChange,
		notify.EventRecoverySucceeded,
	}
	if len(types) != len(wantSeq) {
		t.Fatalf("want %v, got %v", wantSeq, types)
	}
	for i := range wantSeq {
		if types[i] != wantSeq[i] {
			t.Fatalf("want %v, got %v", wantSeq, types)
		}
	}

	// latest reflects the validation pass
	if a, _ := r.Latest(); !a.Online() {
		t.Fatalf("latest should be the validation assessment: %+v", a)
	}
}

func TestRunner_DeniedRecoveryNotifies(t *testing.T) {
	chk := &scriptedChecker{script: []bool{false}} // permanently offline
	nt := &recordingNotifier{}
	act := &recordingActuator{}
	r, store := newRunner(chk, nt, act)
	ctx := context.Background()

	// exhaust the window
	for i := 0; i < 3; i++ {
		r.runOnce(ctx)
	}
	st, _ := store.Load(ctx, "uplink")
	if st == nil || len(st.Attempts) != 3 {
		t.Fatalf("want 3 recorded attempts, got %+v", st)
	}

	before := len(nt.types())
	r.runOnce(ctx) // 4th offline: deny
	types := nt.types()
	if len(types) != before+1 || types[len(types)-1] != notify.EventRecoveryDenied {
		t.Fatalf("want a recovery_denied event, got %v", types)
	}

	// denied cycle must not touch the actuator again
	act.mu.Lock()
	n := len(act.commands)
	act.mu.Unlock()
	if n != 6 { // 3 authorized cycles x (off,on)
		t.Fatalf("denied attempt actuated the plug: %d commands", n)
	}
}

func TestRunner_StatusChangeOnTransition(t *testing.T) {
	// online first, then offline
	chk := &scriptedChecker{script: []bool{
		true, true, true, // cycle 1
		false, false, false, // cycle 2 (plus validation repeats failure)
	}}
	nt := &recordingNotifier{}
	r, _ := newRunner(chk, nt, &recordingActuator{})
	ctx := context.Background()

	r.runOnce(ctx)
	r.runOnce(ctx)

	types := nt.types()
	if len(types) == 0 || types[0] != notify.EventStatusChange {
		t.Fatalf("want status_change first on transition, got %v", types)
	}
}

func TestRunner_OnAssessmentHookSeesEveryPublish(t *testing.T) {
	chk := &scriptedChecker{script: []bool{true}}
	r, _ := newRunner(chk, nil, &recordingActuator{})

	var mu sync.Mutex
	var seen []domain.Verdict
	r.OnAssessment = func(a domain.HealthAssessment) {
		mu.Lock()
		seen = append(seen, a.Verdict)
		mu.Unlock()
	}

	r.runOnce(context.Background())
	r.runOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("hook should fire per publish, got %d", len(seen))
	}
}

func TestRunner_RunLoopAndTrigger(t *testing.T) {
	chk := &scriptedChecker{script: []bool{true}}
	r, store := newRunner(chk, nil, &recordingActuator{})
	r.Interval = time.Hour // only the immediate pass and the trigger fire

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// wait for the immediate pass
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := r.Latest(); ok || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, ok := r.Latest(); !ok {
		t.Fatal("immediate pass did not run")
	}

	r.Trigger()
	deadline = time.Now().Add(2 * time.Second)
	for {
		hist, _ := store.History(context.Background(), 10)
		if len(hist) >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	hist, _ := store.History(context.Background(), 10)
	if len(hist) < 2 {
		t.Fatalf("trigger did not run a cycle; history=%d", len(hist))
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}
