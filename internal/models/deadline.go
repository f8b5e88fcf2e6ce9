package models

import "time"

// Deadline is a cutoff date for marks entry by non-admin callers.
type Deadline struct {
	ID           string    `db:"id" json:"id"`
	Term         *string   `db:"term" json:"term,omitempty"`
	Year         *int      `db:"year" json:"year,omitempty"`
	DeadlineDate time.Time `db:"deadline_date" json:"deadline_date"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DeadlineStatus describes the write window as seen on a given day.
type DeadlineStatus struct {
	Open     bool      `json:"open"`
	Today    string    `json:"today"`
	Deadline *Deadline `json:"deadline,omitempty"`
}
