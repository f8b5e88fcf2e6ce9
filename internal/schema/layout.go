// Package schema derives the class mark table layout from the subject list.
//
// Every class level shares one column shape: the descriptive student fields followed by
// seven score columns per subject. Table names come from a closed map keyed by
// models.ClassLevel so request input never reaches SQL text.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// ArchiveTable receives records removed from the class tables.
const ArchiveTable = "left_records"

// ErrUnknownClassLevel is returned for class levels outside models.ClassLevels.
var ErrUnknownClassLevel = errors.New("unknown class level")

var tableNames = map[models.ClassLevel]string{
	models.ClassS1: "class_s1",
	models.ClassS2: "class_s2",
	models.ClassS3: "class_s3",
	models.ClassS4: "class_s4",
	models.ClassS5: "class_s5",
	models.ClassS6: "class_s6",
}

var subjectCodePattern = regexp.MustCompile(`^[A-Za-z]{2,8}$`)

// TableName maps a class level to its physical table.
func TableName(level models.ClassLevel) (string, error) {
	name, ok := tableNames[level]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownClassLevel, level)
	}
	return name, nil
}

// Column is one score column.
type Column struct {
	Key     string      // payload key, e.g. engBOT
	Name    string      // physical column, e.g. engbot
	Subject string      // catalog code, e.g. ENG
	Slot    models.Slot // assessment slot
}

// Layout is the score column set for a list of subjects.
type Layout struct {
	subjects []string
	columns  []Column
	byName   map[string]int
}

// NewLayout builds the layout for the given subject codes. Codes are upper-cased and must be
// 2-8 ASCII letters; duplicates are rejected.
func NewLayout(subjectCodes []string) (*Layout, error) {
	if len(subjectCodes) == 0 {
		return nil, errors.New("schema: at least one subject code is required")
	}
	l := &Layout{byName: make(map[string]int, len(subjectCodes)*len(models.Slots))}
	seen := make(map[string]struct{}, len(subjectCodes))
	for _, raw := range subjectCodes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if !subjectCodePattern.MatchString(code) {
			return nil, fmt.Errorf("schema: invalid subject code %q", raw)
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("schema: duplicate subject code %q", code)
		}
		seen[code] = struct{}{}
		l.subjects = append(l.subjects, code)
		for _, slot := range models.Slots {
			key := models.ScoreKey(code, slot)
			col := Column{Key: key, Name: strings.ToLower(key), Subject: code, Slot: slot}
			l.byName[col.Name] = len(l.columns)
			l.columns = append(l.columns, col)
		}
	}
	return l, nil
}

// Subjects returns the upper-cased subject codes in layout order.
func (l *Layout) Subjects() []string {
	return append([]string(nil), l.subjects...)
}

// Columns returns every score column in layout order.
func (l *Layout) Columns() []Column {
	return append([]Column(nil), l.columns...)
}

// Lookup resolves a payload key case-insensitively ("engBOT", "ENGbot").
func (l *Layout) Lookup(key string) (Column, bool) {
	idx, ok := l.byName[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Column{}, false
	}
	return l.columns[idx], true
}

// Column returns the column for subject code and slot.
func (l *Layout) Column(subjectCode string, slot models.Slot) (Column, bool) {
	return l.Lookup(models.ScoreKey(subjectCode, slot))
}

// index reports the layout position of a physical column name.
func (l *Layout) index(name string) int {
	if idx, ok := l.byName[name]; ok {
		return idx
	}
	return -1
}

// Normalize rewrites scores onto canonical keys. It rejects keys outside the layout and keys
// that name the same column more than once ("engBOT" and "ENGBOT").
func (l *Layout) Normalize(scores models.Scores) (models.Scores, error) {
	out := make(models.Scores, len(scores))
	source := make(map[string]string, len(scores))
	var unknown, repeated []string
	for key, value := range scores {
		col, ok := l.Lookup(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if prev, dup := source[col.Key]; dup {
			pair := []string{prev, key}
			sort.Strings(pair)
			repeated = append(repeated, strings.Join(pair, "/"))
			continue
		}
		source[col.Key] = key
		out[col.Key] = value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown score keys: %s", strings.Join(unknown, ", "))
	}
	if len(repeated) > 0 {
		sort.Strings(repeated)
		return nil, fmt.Errorf("score keys name the same column: %s", strings.Join(repeated, ", "))
	}
	return out, nil
}

// Ordered returns the columns present in scores, in layout order.
func (l *Layout) Ordered(scores models.Scores) []Column {
	present := make([]bool, len(l.columns))
	for key := range scores {
		if idx := l.index(strings.ToLower(key)); idx >= 0 {
			present[idx] = true
		}
	}
	cols := make([]Column, 0, len(scores))
	for i, col := range l.columns {
		if present[i] {
			cols = append(cols, col)
		}
	}
	return cols
}
