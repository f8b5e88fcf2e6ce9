package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// StreamRepository reads the streams configured per class level.
type StreamRepository struct {
	db *sqlx.DB
}

// NewStreamRepository constructs the repository.
func NewStreamRepository(db *sqlx.DB) *StreamRepository {
	return &StreamRepository{db: db}
}

// ListByClass returns the stream names of a class level in alphabetical order.
func (r *StreamRepository) ListByClass(ctx context.Context, level models.ClassLevel) ([]string, error) {
	streams := []string{}
	const query = `SELECT stream_name FROM streams WHERE class_level = $1 ORDER BY stream_name ASC`
	if err := r.db.SelectContext(ctx, &streams, query, string(level)); err != nil {
		return nil, fmt.Errorf("list streams for %s: %w", level, err)
	}
	return streams, nil
}

// Create adds a stream to a class level.
func (r *StreamRepository) Create(ctx context.Context, level models.ClassLevel, name string) error {
	const query = `INSERT INTO streams (class_level, stream_name) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, string(level), name); err != nil {
		return fmt.Errorf("create stream %s/%s: %w", level, name, err)
	}
	return nil
}
