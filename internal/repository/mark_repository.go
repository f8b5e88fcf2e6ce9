package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/schema"
	"github.com/noah-isme/sma-records-api/pkg/database"
)

// BatchError identifies the row that aborted a batch merge.
type BatchError struct {
	Table         string
	Row           int
	StudentNumber int64
	Err           error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upsert %s student %d (row %d): %v", e.Table, e.StudentNumber, e.Row, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// MarkRepository persists class mark records in the per-level wide tables.
type MarkRepository struct {
	db     *sqlx.DB
	layout *schema.Layout
	now    func() time.Time
}

// NewMarkRepository creates a mark repository for the given score layout.
func NewMarkRepository(db *sqlx.DB, layout *schema.Layout) *MarkRepository {
	return &MarkRepository{db: db, layout: layout, now: func() time.Time { return time.Now().UTC() }}
}

func (r *MarkRepository) selectColumns() string {
	cols := append([]string{}, schema.DescriptiveColumns...)
	cols = append(cols, r.layout.ScoreColumnNames()...)
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

// ListRecords returns the records of one stream/year/term ordered by student number.
func (r *MarkRepository) ListRecords(ctx context.Context, level models.ClassLevel, stream string, year int, term string) ([]models.MarkRecord, error) {
	table, err := schema.TableName(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE stream = $1 AND year = $2 AND term = $3 ORDER BY std_no ASC`, r.selectColumns(), table)
	rows, err := r.db.QueryxContext(ctx, query, stream, year, term)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", table, err)
	}
	defer rows.Close()

	records := []models.MarkRecord{}
	for rows.Next() {
		record, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s record: %w", table, err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s records: %w", table, err)
	}
	return records, nil
}

// FindRecord returns the record for a natural key within a stream. It returns sql.ErrNoRows
// when no record matches.
func (r *MarkRepository) FindRecord(ctx context.Context, key models.NaturalKey, stream string) (*models.MarkRecord, error) {
	table, err := schema.TableName(key.ClassLevel)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE std_no = $1 AND stream = $2 AND year = $3 AND term = $4`, r.selectColumns(), table)
	row := r.db.QueryRowxContext(ctx, query, key.StudentNumber, stream, key.Year, key.Term)
	record, err := r.scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find %s record: %w", table, err)
	}
	return record, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *MarkRepository) scan(row rowScanner) (*models.MarkRecord, error) {
	var (
		record    models.MarkRecord
		level     string
		createdAt time.Time
		updatedAt time.Time
	)
	cols := r.layout.Columns()
	scores := make([]sql.NullFloat64, len(cols))
	dest := []interface{}{
		&record.ID, &record.StudentNumber, &record.StudentName, &level, &record.Stream,
		&record.Year, &record.Term, &record.Gender, &record.Section,
	}
	for i := range scores {
		dest = append(dest, &scores[i])
	}
	dest = append(dest, &createdAt, &updatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	record.ClassLevel = models.ClassLevel(level)
	record.CreatedAt = &createdAt
	record.UpdatedAt = &updatedAt
	record.Scores = make(models.Scores, len(cols))
	for i, col := range cols {
		if scores[i].Valid {
			v := scores[i].Float64
			record.Scores[col.Key] = &v
		} else {
			record.Scores[col.Key] = nil
		}
	}
	return &record, nil
}

// MergeBatch upserts records into the level's table inside one transaction. Any failure rolls
// back the whole batch. Under MergePreserve only the score keys present on a record are
// written and blank name, gender or section leave the stored values alone; under MergeReplace
// every column is written and omitted keys become NULL.
func (r *MarkRepository) MergeBatch(ctx context.Context, level models.ClassLevel, records []models.MarkRecord, mode models.MergeMode) (int, error) {
	table, err := schema.TableName(level)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	applied := 0
	err = database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range records {
			query, args := r.upsertStatement(table, level, records[i], mode)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return &BatchError{Table: table, Row: i + 1, StudentNumber: records[i].StudentNumber, Err: err}
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

func (r *MarkRepository) upsertStatement(table string, level models.ClassLevel, record models.MarkRecord, mode models.MergeMode) (string, []interface{}) {
	now := r.now()
	columns := []string{"id", "std_no", "std_name", "class_level", "stream", "year", "term", "gender", "section"}
	args := []interface{}{
		uuid.NewString(), record.StudentNumber, record.StudentName, string(level), record.Stream,
		record.Year, record.Term, record.Gender, record.Section,
	}
	updates := []string{"class_level", "stream"}
	if mode == models.MergeReplace {
		updates = append(updates, "std_name", "gender", "section")
	} else {
		// blank descriptive fields keep the stored value
		for _, f := range []struct{ col, val string }{
			{"std_name", record.StudentName},
			{"gender", record.Gender},
			{"section", record.Section},
		} {
			if f.val != "" {
				updates = append(updates, f.col)
			}
		}
	}

	scoreCols := r.layout.Columns()
	if mode != models.MergeReplace {
		scoreCols = r.layout.Ordered(record.Scores)
	}
	for _, col := range scoreCols {
		columns = append(columns, col.Name)
		updates = append(updates, col.Name)
		if v := record.Scores[col.Key]; v != nil {
			args = append(args, *v)
		} else {
			args = append(args, nil)
		}
	}
	columns = append(columns, "created_at", "updated_at")
	args = append(args, now, now)
	updates = append(updates, "updated_at")

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sets := make([]string, len(updates))
	for i, col := range updates {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
        ON CONFLICT (std_no, year, term)
        DO UPDATE SET %s`, table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "))
	return query, args
}

// Archive moves the record for key into the archive table with a reason. It returns
// sql.ErrNoRows when the record does not exist.
func (r *MarkRepository) Archive(ctx context.Context, key models.NaturalKey, reason string) (*models.ArchivedRecord, error) {
	table, err := schema.TableName(key.ClassLevel)
	if err != nil {
		return nil, err
	}
	copied := append(append([]string{}, schema.DescriptiveColumns[1:]...), r.layout.ScoreColumnNames()...)
	cols := strings.Join(copied, ", ")
	movedAt := r.now()
	archiveID := uuid.NewString()

	var archived *models.ArchivedRecord
	err = database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		insert := fmt.Sprintf(`INSERT INTO %s (id, %s, reason, moved_at)
        SELECT $1, %s, $2, $3 FROM %s WHERE std_no = $4 AND year = $5 AND term = $6`, schema.ArchiveTable, cols, cols, table)
		res, err := tx.ExecContext(ctx, insert, archiveID, reason, movedAt, key.StudentNumber, key.Year, key.Term)
		if err != nil {
			return fmt.Errorf("archive %s record: %w", table, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("archive %s record: %w", table, err)
		} else if n == 0 {
			return sql.ErrNoRows
		}
		del := fmt.Sprintf(`DELETE FROM %s WHERE std_no = $1 AND year = $2 AND term = $3`, table)
		if _, err := tx.ExecContext(ctx, del, key.StudentNumber, key.Year, key.Term); err != nil {
			return fmt.Errorf("delete %s record: %w", table, err)
		}
		archived = &models.ArchivedRecord{
			MarkRecord: models.MarkRecord{ID: archiveID, ClassLevel: key.ClassLevel, StudentNumber: key.StudentNumber, Year: key.Year, Term: key.Term},
			Reason:     reason,
			MovedAt:    movedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return archived, nil
}
