package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// SubjectRepository reads the subject catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns every catalog subject ordered by code.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	subjects := []models.Subject{}
	if err := r.db.SelectContext(ctx, &subjects, `SELECT code, display_name FROM subjects ORDER BY code ASC`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// Seed inserts subjects that are not yet present. Existing display names are left untouched.
func (r *SubjectRepository) Seed(ctx context.Context, subjects []models.Subject) error {
	for _, subject := range subjects {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO subjects (code, display_name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`, subject.Code, subject.DisplayName); err != nil {
			return fmt.Errorf("seed subject %s: %w", subject.Code, err)
		}
	}
	return nil
}

// Create inserts a single catalog subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	const query = `INSERT INTO subjects (code, display_name) VALUES (:code, :display_name)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}
