package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

// sortBandsDesc returns a copy of bands ordered by descending minimum score.
func sortBandsDesc(bands []models.GradingBand) []models.GradingBand {
	sorted := append([]models.GradingBand(nil), bands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinScore > sorted[j].MinScore
	})
	return sorted
}

// roundMark rounds half up to a whole mark, so 79.5 reads as 80.
func roundMark(score float64) float64 {
	return math.Floor(score + 0.5)
}

// ResolveGrade finds the band for score. Bands are scanned by descending minimum score and
// the first band containing the rounded score wins. ok is false when no band contains it.
func ResolveGrade(score float64, bands []models.GradingBand) (band models.GradingBand, ok bool) {
	mark := roundMark(score)
	for _, b := range sortBandsDesc(bands) {
		if b.Contains(mark) {
			return b, true
		}
	}
	return models.GradingBand{}, false
}

// ValidateBands checks that bands partition 0..100 in whole marks without gaps or overlaps.
func ValidateBands(bands []models.GradingBand) error {
	if len(bands) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one grading band is required")
	}
	for _, b := range bands {
		if b.MinScore != math.Trunc(b.MinScore) || b.MaxScore != math.Trunc(b.MaxScore) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("band %s must use whole marks", b.Grade))
		}
		if b.MinScore < 0 || b.MaxScore > 100 || b.MinScore > b.MaxScore {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("band %s must satisfy 0 <= min <= max <= 100", b.Grade))
		}
	}
	sorted := sortBandsDesc(bands)
	if sorted[0].MaxScore != 100 {
		return appErrors.Clone(appErrors.ErrValidation, "highest band must end at 100")
	}
	if last := sorted[len(sorted)-1]; last.MinScore != 0 {
		return appErrors.Clone(appErrors.ErrValidation, "lowest band must start at 0")
	}
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if next.MaxScore+1 != prev.MinScore {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("bands %s and %s must be contiguous (%v follows %v)", prev.Grade, next.Grade, prev.MinScore, next.MaxScore))
		}
	}
	return nil
}

// DefaultGradingBands is the scale provisioned on a fresh database.
func DefaultGradingBands() []models.GradingBand {
	return []models.GradingBand{
		{MinScore: 80, MaxScore: 100, Grade: "A", Descriptor: "Exceptional", Comment: "Demonstrates an extraordinary level of competency"},
		{MinScore: 70, MaxScore: 79, Grade: "B", Descriptor: "Outstanding", Comment: "Demonstrates a high level of competency"},
		{MinScore: 60, MaxScore: 69, Grade: "C", Descriptor: "Satisfactory", Comment: "Demonstrates an adequate level of competency"},
		{MinScore: 50, MaxScore: 59, Grade: "D", Descriptor: "Basic", Comment: "Demonstrates a minimum level of competency"},
		{MinScore: 0, MaxScore: 49, Grade: "E", Descriptor: "Elementary", Comment: "Demonstrates below the basic level of competency"},
	}
}
