package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

func (s *Store) Append(ctx context.Context, a *domain.HealthAssessment) error {
	categories, err := json.Marshal(a.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	var failed []byte
	if len(a.Failed) > 0 {
		if failed, err = json.Marshal(a.Failed); err != nil {
			return fmt.Errorf("marshal failed checks: %w", err)
		}
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (verdict, score, categories, failed, checked_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(a.Verdict), a.Score, categories, failed, a.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) (*domain.HealthAssessment, error) {
	rows, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) History(ctx context.Context, limit int) ([]domain.HealthAssessment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT verdict, score, categories, failed, checked_at
		   FROM assessments
		  ORDER BY checked_at DESC, id DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var out []domain.HealthAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssessment(rows pgx.Rows) (domain.HealthAssessment, error) {
	var (
		a          domain.HealthAssessment
		verdict    string
		categories []byte
		failed     []byte
	)
	if err := rows.Scan(&verdict, &a.Score, &categories, &failed, &a.CheckedAt); err != nil {
		return a, fmt.Errorf("scan assessment: %w", err)
	}
	a.Verdict = domain.Verdict(verdict)
	if err := json.Unmarshal(categories, &a.Categories); err != nil {
		return a, fmt.Errorf("unmarshal categories: %w", err)
	}
	if len(failed) > 0 {
		if err := json.Unmarshal(failed, &a.Failed); err != nil {
			return a, fmt.Errorf("unmarshal failed checks: %w", err)
		}
	}
	return a, nil
}
