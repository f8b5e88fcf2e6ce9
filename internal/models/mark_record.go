package models

import "time"

// Scores maps score keys (see ScoreKey) to values. A key present with a nil value is an
// explicit "no score"; an absent key means the payload did not mention that slot.
type Scores map[string]*float64

// Get returns the score stored for subject/slot, if any.
func (s Scores) Get(subjectCode string, slot Slot) (float64, bool) {
	v, ok := s[ScoreKey(subjectCode, slot)]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// NaturalKey is the logical identity of a mark record.
type NaturalKey struct {
	ClassLevel    ClassLevel `json:"class_level"`
	StudentNumber int64      `json:"student_number"`
	Year          int        `json:"year"`
	Term          string     `json:"term"`
}

// MarkRecord is one student's marks for one term of one year within a class level.
type MarkRecord struct {
	ID            string     `json:"id,omitempty"`
	ClassLevel    ClassLevel `json:"class_level"`
	StudentNumber int64      `json:"student_number"`
	StudentName   string     `json:"student_name"`
	Stream        string     `json:"stream"`
	Year          int        `json:"year"`
	Term          string     `json:"term"`
	Gender        string     `json:"gender,omitempty"`
	Section       string     `json:"section,omitempty"`
	Scores        Scores     `json:"scores"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Key returns the record's natural key.
func (r MarkRecord) Key() NaturalKey {
	return NaturalKey{ClassLevel: r.ClassLevel, StudentNumber: r.StudentNumber, Year: r.Year, Term: r.Term}
}

// ArchivedRecord is a mark record moved out of its class table.
type ArchivedRecord struct {
	MarkRecord
	Reason  string    `json:"reason"`
	MovedAt time.Time `json:"moved_at"`
}

// MergeMode decides what happens to score columns a payload does not mention.
type MergeMode string

const (
	// MergePreserve writes only the score keys present in the payload.
	MergePreserve MergeMode = "preserve"
	// MergeReplace writes every score column, nulling the ones the payload omits.
	MergeReplace MergeMode = "replace"
)
