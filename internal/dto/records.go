package dto

import "github.com/noah-isme/sma-records-api/internal/models"

// LoadRecordsQuery captures GET /classes/:level/records filters.
type LoadRecordsQuery struct {
	Stream string `form:"stream" validate:"required,max=32"`
	Year   int    `form:"year" validate:"required,gte=1900,lte=9999"`
	Term   string `form:"term" validate:"required,max=16"`
}

// MarkRecordInput is one row of a marks batch. Scores are keyed "{subjectCode}{slot}", e.g.
// "eng1" or "engBOT"; a key present with null clears that score.
type MarkRecordInput struct {
	StudentNumber int64               `json:"student_number" validate:"required,gt=0"`
	StudentName   string              `json:"student_name" validate:"max=128"`
	Stream        string              `json:"stream" validate:"required,max=32"`
	Year          int                 `json:"year" validate:"required,gte=1900,lte=9999"`
	Term          string              `json:"term" validate:"required,max=16"`
	Gender        string              `json:"gender" validate:"max=16"`
	Section       string              `json:"section" validate:"max=32"`
	Scores        map[string]*float64 `json:"scores"`
}

// SaveRecordsRequest is the POST /classes/:level/records payload.
type SaveRecordsRequest struct {
	Records []MarkRecordInput `json:"records" validate:"required,min=1,dive"`
}

// MergeResult reports how a saved batch was applied.
type MergeResult struct {
	Success   bool `json:"success"`
	Applied   int  `json:"applied"`
	Submitted int  `json:"submitted"`
}

// ReportQuery captures GET /classes/:level/records/:studentNo/report filters.
type ReportQuery struct {
	Stream  string `form:"stream" validate:"required,max=32"`
	Year    int    `form:"year" validate:"required,gte=1900,lte=9999"`
	Term    string `form:"term" validate:"required,max=16"`
	Variant string `form:"variant" validate:"omitempty,oneof=1 2 3 4 BOT MOT EOT bot mot eot"`
}

// ArchiveRequest is the POST /classes/:level/records/:studentNo/archive payload.
type ArchiveRequest struct {
	Year   int    `json:"year" validate:"required,gte=1900,lte=9999"`
	Term   string `json:"term" validate:"required,max=16"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// SetDeadlineRequest is the POST /deadline payload. Date uses YYYY-MM-DD.
type SetDeadlineRequest struct {
	Date string  `json:"deadline_date" validate:"required,datetime=2006-01-02"`
	Term *string `json:"term,omitempty" validate:"omitempty,max=16"`
	Year *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=9999"`
}

// GradingBandInput is one band of a PUT /grading-bands payload.
type GradingBandInput struct {
	MinScore   float64 `json:"min_score" validate:"gte=0,lte=100"`
	MaxScore   float64 `json:"max_score" validate:"gte=0,lte=100"`
	Grade      string  `json:"grade" validate:"required,max=8"`
	Descriptor string  `json:"descriptor" validate:"max=64"`
	Comment    string  `json:"comment" validate:"max=255"`
}

// CreateSubjectRequest is the POST /subjects payload.
type CreateSubjectRequest struct {
	Code        string `json:"code" validate:"required,alpha,min=2,max=8"`
	DisplayName string `json:"display_name" validate:"required,max=128"`
}

// AddStreamRequest is the POST /classes/:level/streams payload.
type AddStreamRequest struct {
	Name string `json:"stream_name" validate:"required,max=32"`
}

// ReplaceBandsRequest is the PUT /grading-bands payload.
type ReplaceBandsRequest struct {
	Bands []GradingBandInput `json:"bands" validate:"required,min=1,dive"`
}

// ToModels converts the payload into grading bands.
func (r ReplaceBandsRequest) ToModels() []models.GradingBand {
	bands := make([]models.GradingBand, len(r.Bands))
	for i, b := range r.Bands {
		bands[i] = models.GradingBand{
			MinScore:   b.MinScore,
			MaxScore:   b.MaxScore,
			Grade:      b.Grade,
			Descriptor: b.Descriptor,
			Comment:    b.Comment,
		}
	}
	return bands
}
