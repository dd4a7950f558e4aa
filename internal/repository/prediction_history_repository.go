// Package repository persists prediction run history to PostgreSQL.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/prop-scout/internal/database"
	"github.com/yourusername/prop-scout/internal/models"
)

// PredictionHistoryRepository stores every successful refresh run so model
// output can be checked against results after the fact.
type PredictionHistoryRepository struct {
	db *database.DB
}

// NewPredictionHistoryRepository creates a new history repository
func NewPredictionHistoryRepository(db *database.DB) *PredictionHistoryRepository {
	return &PredictionHistoryRepository{db: db}
}

// InitSchema creates the history tables if they do not exist.
func (r *PredictionHistoryRepository) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS prediction_runs (
			run_id       UUID PRIMARY KEY,
			domain       TEXT NOT NULL,
			season       TEXT NOT NULL,
			week         INT NOT NULL DEFAULT 0,
			generated_at TIMESTAMPTZ NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS predictions (
			id            UUID PRIMARY KEY,
			run_id        UUID NOT NULL REFERENCES prediction_runs(run_id) ON DELETE CASCADE,
			fixture_id    TEXT NOT NULL,
			type          TEXT NOT NULL,
			subject_id    TEXT NOT NULL,
			subject_label TEXT NOT NULL,
			stat_key      TEXT NOT NULL,
			side          TEXT NOT NULL,
			line          DOUBLE PRECISION NOT NULL,
			probability   DOUBLE PRECISION NOT NULL,
			fair_odds     DOUBLE PRECISION NOT NULL,
			season_avg    DOUBLE PRECISION NOT NULL,
			recent_avg    DOUBLE PRECISION NOT NULL,
			sigma         DOUBLE PRECISION NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_prediction_runs_domain ON prediction_runs(domain, generated_at DESC);
	`
	if _, err := r.db.GetPool().Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// SaveRun inserts one refresh run and all of its predictions.
func (r *PredictionHistoryRepository) SaveRun(ctx context.Context, result *models.DomainResult) error {
	tx, err := r.db.GetPool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO prediction_runs (run_id, domain, season, week, generated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, result.RunID, result.Domain, result.Season, result.Week, result.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to insert prediction run: %w", err)
	}

	for _, fixture := range result.Fixtures {
		for _, p := range fixture.Picks {
			_, err = tx.Exec(ctx, `
				INSERT INTO predictions (id, run_id, fixture_id, type, subject_id, subject_label,
				                         stat_key, side, line, probability, fair_odds,
				                         season_avg, recent_avg, sigma)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			`, p.ID, result.RunID, fixture.FixtureID, p.Type, p.SubjectID, p.SubjectLabel,
				p.StatKey, p.Side, p.Line, p.Probability, p.FairOdds,
				p.SeasonAvg, p.RecentAvg, p.Sigma)
			if err != nil {
				return fmt.Errorf("failed to insert prediction: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit prediction run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run ID and timestamp for a domain.
func (r *PredictionHistoryRepository) LatestRun(ctx context.Context, domain string) (uuid.UUID, time.Time, error) {
	var runID uuid.UUID
	var generatedAt time.Time

	err := r.db.GetPool().QueryRow(ctx, `
		SELECT run_id, generated_at FROM prediction_runs
		WHERE domain = $1 ORDER BY generated_at DESC LIMIT 1
	`, domain).Scan(&runID, &generatedAt)
	if err == pgx.ErrNoRows {
		return uuid.Nil, time.Time{}, nil
	}
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("failed to query latest run: %w", err)
	}
	return runID, generatedAt, nil
}
