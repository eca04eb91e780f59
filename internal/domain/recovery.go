package domain

import "time"

// RecoveryState is the only cross-cycle mutable state in the system. The
// attempt list is the source of truth: after every prune it holds exactly
// the attempts inside the trailing window, so count-within-window is
// len(Attempts) by construction. Persisted externally; mutated only by the
// recovery governor.
type RecoveryState struct {
	Attempts          []time.Time `json:"attempts"`
	LastAttempt       time.Time   `json:"last_attempt"`
	PendingValidation bool        `json:"pending_validation"`
}

// Prune drops attempts whose timestamp fell out of the trailing window.
func (s *RecoveryState) Prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	kept := s.Attempts[:0]
	for _, t := range s.Attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.Attempts = kept
}

// Phase names the governor's position in its state machine.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseEvaluating  Phase = "evaluating"
	PhaseCoolingDown Phase = "cooling_down"
	PhaseRecovering  Phase = "recovering"
	PhaseValidating  Phase = "validating"
)

// RecoverySnapshot is the read-only view of the governor exposed on the API.
type RecoverySnapshot struct {
	Phase            Phase      `json:"phase"`
	AttemptsInWindow int        `json:"attempts_in_window"`
	LastAttempt      *time.Time `json:"last_attempt,omitempty"`
	NextEligible     *time.Time `json:"next_eligible,omitempty"`
}

// DecisionKind enumerates the governor's possible answers.
type DecisionKind string

const (
	DecisionAuthorize      DecisionKind = "authorize"
	DecisionDeny           DecisionKind = "deny"
	DecisionAlreadyHealthy DecisionKind = "already_healthy"
)

// Decision reasons.
const (
	DenyCooldownActive   = "cooldown active"
	DenyStateUnavailable = "state unavailable"

	// ReasonRecoveryConfirmed rides on an AlreadyHealthy decision when the
	// online verdict validated a pending recovery and reset the counter.
	ReasonRecoveryConfirmed = "recovery confirmed"
)

// Decision is the governor's answer to one offline (or online) verdict.
type Decision struct {
	Kind         DecisionKind `json:"kind"`
	Reason       string       `json:"reason,omitempty"`
	NextEligible time.Time    `json:"next_eligible,omitempty"`
}
