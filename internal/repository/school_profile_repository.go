package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// SchoolProfileRepository reads the school letterhead.
type SchoolProfileRepository struct {
	db *sqlx.DB
}

// NewSchoolProfileRepository constructs the repository.
func NewSchoolProfileRepository(db *sqlx.DB) *SchoolProfileRepository {
	return &SchoolProfileRepository{db: db}
}

// Latest returns the most recently created profile, or sql.ErrNoRows.
func (r *SchoolProfileRepository) Latest(ctx context.Context) (*models.SchoolProfile, error) {
	var profile models.SchoolProfile
	const query = `SELECT COALESCE(school_name, '') AS school_name, COALESCE(school_email, '') AS school_email,
        COALESCE(school_motto, '') AS school_motto, COALESCE(school_address, '') AS school_address,
        COALESCE(school_box, '') AS school_box, COALESCE(school_contacts, '') AS school_contacts,
        COALESCE(school_logo, '') AS school_logo
        FROM school_profiles ORDER BY id DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &profile, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get school profile: %w", err)
	}
	return &profile, nil
}
