package models

// GradingBand maps an inclusive score range to a grade.
type GradingBand struct {
	ID         string  `db:"id" json:"id,omitempty"`
	MinScore   float64 `db:"min_score" json:"min_score"`
	MaxScore   float64 `db:"max_score" json:"max_score"`
	Grade      string  `db:"grade" json:"grade"`
	Descriptor string  `db:"descriptor" json:"descriptor"`
	Comment    string  `db:"comment" json:"comment"`
}

// Contains reports whether score falls within [MinScore, MaxScore].
func (b GradingBand) Contains(score float64) bool {
	return score >= b.MinScore && score <= b.MaxScore
}
