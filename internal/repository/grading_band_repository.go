package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/database"
)

// GradingBandRepository persists the grading scale.
type GradingBandRepository struct {
	db *sqlx.DB
}

// NewGradingBandRepository constructs the repository.
func NewGradingBandRepository(db *sqlx.DB) *GradingBandRepository {
	return &GradingBandRepository{db: db}
}

// List returns the bands ordered by descending minimum score.
func (r *GradingBandRepository) List(ctx context.Context) ([]models.GradingBand, error) {
	bands := []models.GradingBand{}
	const query = `SELECT id, min_score, max_score, grade, descriptor, comment FROM grading_bands ORDER BY min_score DESC`
	if err := r.db.SelectContext(ctx, &bands, query); err != nil {
		return nil, fmt.Errorf("list grading bands: %w", err)
	}
	return bands, nil
}

// Replace swaps the whole scale in one transaction. Bands without an ID get a new one.
func (r *GradingBandRepository) Replace(ctx context.Context, bands []models.GradingBand) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM grading_bands`); err != nil {
			return fmt.Errorf("clear grading bands: %w", err)
		}
		const insert = `INSERT INTO grading_bands (id, min_score, max_score, grade, descriptor, comment) VALUES ($1, $2, $3, $4, $5, $6)`
		for i := range bands {
			if bands[i].ID == "" {
				bands[i].ID = uuid.NewString()
			}
			b := bands[i]
			if _, err := tx.ExecContext(ctx, insert, b.ID, b.MinScore, b.MaxScore, b.Grade, b.Descriptor, b.Comment); err != nil {
				return fmt.Errorf("insert grading band %s: %w", b.Grade, err)
			}
		}
		return nil
	})
}

// Count returns how many bands are stored.
func (r *GradingBandRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM grading_bands`); err != nil {
		return 0, fmt.Errorf("count grading bands: %w", err)
	}
	return n, nil
}
