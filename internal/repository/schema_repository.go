package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/pkg/database"
)

// SchemaRepository applies DDL statements.
type SchemaRepository struct {
	db *sqlx.DB
}

// NewSchemaRepository creates a schema repository.
func NewSchemaRepository(db *sqlx.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// Apply runs statements in order inside one transaction. Postgres DDL is transactional, so a
// failed statement leaves the schema untouched.
func (r *SchemaRepository) Apply(ctx context.Context, statements []string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
