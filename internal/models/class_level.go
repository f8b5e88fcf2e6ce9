package models

import "strings"

// ClassLevel identifies one of the six secondary class levels. Each level owns a mark table.
type ClassLevel string

const (
	ClassS1 ClassLevel = "S1"
	ClassS2 ClassLevel = "S2"
	ClassS3 ClassLevel = "S3"
	ClassS4 ClassLevel = "S4"
	ClassS5 ClassLevel = "S5"
	ClassS6 ClassLevel = "S6"
)

// ClassLevels lists every provisioned class level in promotion order.
var ClassLevels = []ClassLevel{ClassS1, ClassS2, ClassS3, ClassS4, ClassS5, ClassS6}

// ParseClassLevel normalises raw input ("s1", " S1 ") and reports whether it names a known level.
func ParseClassLevel(raw string) (ClassLevel, bool) {
	level := ClassLevel(strings.ToUpper(strings.TrimSpace(raw)))
	return level, level.Valid()
}

// Valid reports whether c is one of ClassLevels.
func (c ClassLevel) Valid() bool {
	for _, level := range ClassLevels {
		if c == level {
			return true
		}
	}
	return false
}
