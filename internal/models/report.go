package models

import "time"

// SubjectGrade is the band a score resolved to.
type SubjectGrade struct {
	Grade      string `json:"grade"`
	Descriptor string `json:"descriptor"`
	Comment    string `json:"comment"`
}

// ReportSubject is one catalog subject on a report card. Ungraded is set when the
// variant slot has no score or no band contains it.
type ReportSubject struct {
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	Score    *float64      `json:"score"`
	Grade    *SubjectGrade `json:"grade,omitempty"`
	Ungraded bool          `json:"ungraded"`
}

// ReportSummary aggregates graded subjects.
type ReportSummary struct {
	SubjectsGraded int      `json:"subjects_graded"`
	Total          float64  `json:"total"`
	Average        *float64 `json:"average,omitempty"`
}

// Report is the assembled, never persisted, report card payload.
type Report struct {
	Variant      ReportVariant   `json:"variant"`
	Record       MarkRecord      `json:"record"`
	School       *SchoolProfile  `json:"school,omitempty"`
	Subjects     []ReportSubject `json:"subjects"`
	GradingBands []GradingBand   `json:"grading_bands"`
	Summary      ReportSummary   `json:"summary"`
	GeneratedAt  time.Time       `json:"generated_at"`
}
