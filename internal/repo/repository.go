package repo

import (
	"context"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// Ports (interfaces) — swap in any persistence adapter later.

// StateStore persists the governor's recovery state. It must survive process
// restarts; the governor fails closed when it is unavailable.
type StateStore interface {
	// Load returns nil, nil if no state has been stored for the target yet.
	Load(ctx context.Context, target string) (*domain.RecoveryState, error)
	// Save replaces the state for the target as a single atomic unit.
	Save(ctx context.Context, target string, st domain.RecoveryState) error
}

// AssessmentStore keeps per-cycle assessments for the read surface.
type AssessmentStore interface {
	Append(ctx context.Context, a *domain.HealthAssessment) error
	Latest(ctx context.Context) (*domain.HealthAssessment, error)
	History(ctx context.Context, limit int) ([]domain.HealthAssessment, error)
}
