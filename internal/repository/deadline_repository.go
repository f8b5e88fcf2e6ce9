package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/database"
)

// DeadlineRepository persists marks entry deadlines.
type DeadlineRepository struct {
	db *sqlx.DB
}

// NewDeadlineRepository constructs the repository.
func NewDeadlineRepository(db *sqlx.DB) *DeadlineRepository {
	return &DeadlineRepository{db: db}
}

// LatestActive returns the active deadline with the latest date, or sql.ErrNoRows.
func (r *DeadlineRepository) LatestActive(ctx context.Context) (*models.Deadline, error) {
	var d models.Deadline
	const query = `SELECT id, term, year, deadline_date, is_active, created_at FROM deadlines WHERE is_active = TRUE ORDER BY deadline_date DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &d, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get active deadline: %w", err)
	}
	return &d, nil
}

// Create stores d as the only active deadline.
func (r *DeadlineRepository) Create(ctx context.Context, d *models.Deadline) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.IsActive = true
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE deadlines SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
			return fmt.Errorf("deactivate deadlines: %w", err)
		}
		const insert = `INSERT INTO deadlines (id, term, year, deadline_date, is_active, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.ExecContext(ctx, insert, d.ID, d.Term, d.Year, d.DeadlineDate, d.IsActive, d.CreatedAt); err != nil {
			return fmt.Errorf("insert deadline: %w", err)
		}
		return nil
	})
}
