package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

func (s *Store) Load(ctx context.Context, target string) (*domain.RecoveryState, error) {
	const q = `SELECT attempts, last_attempt, pending_validation
	             FROM recovery_state WHERE target=$1`
	var (
		attempts    []time.Time
		lastAttempt *time.Time
		pending     bool
	)
	err := s.pool.QueryRow(ctx, q, target).Scan(&attempts, &lastAttempt, &pending)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load recovery state: %w", err)
	}
	st := &domain.RecoveryState{
		Attempts:          attempts,
		PendingValidation: pending,
	}
	if lastAttempt != nil {
		st.LastAttempt = *lastAttempt
	}
	return st, nil
}

func (s *Store) Save(ctx context.Context, target string, st domain.RecoveryState) error {
	const q = `
		INSERT INTO recovery_state (target, attempts, last_attempt, pending_validation)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (target)
		DO UPDATE SET attempts=EXCLUDED.attempts,
		              last_attempt=EXCLUDED.last_attempt,
		              pending_validation=EXCLUDED.pending_validation
	`
	var last *time.Time
	if !st.LastAttempt.IsZero() {
		last = &st.LastAttempt
	}
	attempts := st.Attempts
	if attempts == nil {
		attempts = []time.Time{}
	}
	if _, err := s.pool.Exec(ctx, q, target, attempts, last, st.PendingValidation); err != nil {
		return fmt.Errorf("save recovery state: %w", err)
	}
	return nil
}
