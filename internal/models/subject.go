package models

import "strings"

// Subject is an entry of the subject catalog.
type Subject struct {
	Code        string `db:"code" json:"code"`
	DisplayName string `db:"display_name" json:"display_name"`
}

// Slot is one of the seven assessment points a subject has per term.
type Slot string

const (
	Slot1   Slot = "1"
	Slot2   Slot = "2"
	Slot3   Slot = "3"
	Slot4   Slot = "4"
	SlotBOT Slot = "BOT"
	SlotMOT Slot = "MOT"
	SlotEOT Slot = "EOT"
)

// Slots lists the slots in column order.
var Slots = []Slot{Slot1, Slot2, Slot3, Slot4, SlotBOT, SlotMOT, SlotEOT}

// ReportVariant selects which slot a report card renders. Report cards are normally printed
// for a milestone (BOT, MOT, EOT); the periodic slots 1-4 are accepted for progress reports.
type ReportVariant string

const (
	VariantBOT ReportVariant = "BOT"
	VariantMOT ReportVariant = "MOT"
	VariantEOT ReportVariant = "EOT"
)

// ParseReportVariant accepts any slot name, case-insensitively.
func ParseReportVariant(raw string) (ReportVariant, bool) {
	v := Slot(strings.ToUpper(strings.TrimSpace(raw)))
	for _, slot := range Slots {
		if v == slot {
			return ReportVariant(v), true
		}
	}
	return "", false
}

// Slot returns the milestone slot read by the variant.
func (v ReportVariant) Slot() Slot {
	return Slot(v)
}

// ScoreKey builds the payload key for a subject slot, e.g. ("ENG", SlotBOT) -> "engBOT".
func ScoreKey(subjectCode string, slot Slot) string {
	return strings.ToLower(subjectCode) + string(slot)
}
