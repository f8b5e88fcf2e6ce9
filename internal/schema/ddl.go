package schema

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// DescriptiveColumns precede the score columns on class and archive tables.
var DescriptiveColumns = []string{"id", "std_no", "std_name", "class_level", "stream", "year", "term", "gender", "section"}

// ScoreColumnNames returns the physical score column names in layout order.
func (l *Layout) ScoreColumnNames() []string {
	names := make([]string, len(l.columns))
	for i, col := range l.columns {
		names[i] = col.Name
	}
	return names
}

func (l *Layout) scoreColumnDefs() string {
	var b strings.Builder
	for _, subject := range l.subjects {
		b.WriteString("    ")
		for i, slot := range models.Slots {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strings.ToLower(models.ScoreKey(subject, slot)))
			b.WriteString(" DOUBLE PRECISION")
		}
		b.WriteString(",\n")
	}
	return b.String()
}

const descriptiveDefs = `    id UUID PRIMARY KEY,
    std_no BIGINT NOT NULL,
    std_name TEXT NOT NULL DEFAULT '',
    class_level TEXT NOT NULL,
    stream TEXT NOT NULL DEFAULT '',
    year INTEGER NOT NULL,
    term TEXT NOT NULL,
    gender TEXT NOT NULL DEFAULT '',
    section TEXT NOT NULL DEFAULT '',
`

// CreateClassTableSQL returns the DDL for one class level's mark table. Uniqueness is on the
// full natural key (student, year, term) within the level.
func (l *Layout) CreateClassTableSQL(level models.ClassLevel) ([]string, error) {
	table, err := TableName(level)
	if err != nil {
		return nil, err
	}
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
%s%s    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT %s_natural_key UNIQUE (std_no, year, term)
)`, table, descriptiveDefs, l.scoreColumnDefs(), table)
	return []string{
		create,
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_scope_idx ON %s (stream, year, term, std_no)", table, table),
	}, nil
}

// AddScoreColumnsSQL returns ALTER statements that bring an existing table up to the layout.
func (l *Layout) AddScoreColumnsSQL(table string) []string {
	stmts := make([]string, 0, len(l.columns))
	for _, col := range l.columns {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s DOUBLE PRECISION", table, col.Name))
	}
	return stmts
}

// CreateArchiveTableSQL returns the DDL for the archive of removed records.
func (l *Layout) CreateArchiveTableSQL() []string {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
%s%s    reason TEXT NOT NULL,
    moved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, ArchiveTable, descriptiveDefs, l.scoreColumnDefs())
	return []string{
		create,
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_student_idx ON %s (std_no, class_level)", ArchiveTable, ArchiveTable),
	}
}

// ReferenceTablesSQL returns the DDL for the shared reference tables.
func ReferenceTablesSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS subjects (
    code TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS grading_bands (
    id UUID PRIMARY KEY,
    min_score DOUBLE PRECISION NOT NULL,
    max_score DOUBLE PRECISION NOT NULL,
    grade TEXT NOT NULL,
    descriptor TEXT NOT NULL DEFAULT '',
    comment TEXT NOT NULL DEFAULT '',
    CHECK (min_score <= max_score),
    UNIQUE (grade)
)`,
		`CREATE TABLE IF NOT EXISTS deadlines (
    id UUID PRIMARY KEY,
    term TEXT,
    year INTEGER,
    deadline_date DATE NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS school_profiles (
    id BIGSERIAL PRIMARY KEY,
    school_name TEXT,
    school_email TEXT,
    school_motto TEXT,
    school_address TEXT,
    school_box TEXT,
    school_contacts TEXT,
    school_logo TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS streams (
    class_level TEXT NOT NULL,
    stream_name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (class_level, stream_name)
)`,
	}
}

// ProvisionSQL returns every statement needed for an empty database, in dependency order.
func (l *Layout) ProvisionSQL() []string {
	stmts := ReferenceTablesSQL()
	for _, level := range models.ClassLevels {
		classStmts, _ := l.CreateClassTableSQL(level)
		table, _ := TableName(level)
		stmts = append(stmts, classStmts...)
		stmts = append(stmts, l.AddScoreColumnsSQL(table)...)
	}
	stmts = append(stmts, l.CreateArchiveTableSQL()...)
	stmts = append(stmts, l.AddScoreColumnsSQL(ArchiveTable)...)
	return stmts
}
