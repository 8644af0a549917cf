package dto

import "github.com/noah-isme/timetable-api/internal/models"

// GenerateTimetableRequest asks for draft timetables of a department's semester.
// An empty level generates every level that does not have a timetable yet.
type GenerateTimetableRequest struct {
	Department string `json:"department" validate:"required,max=120"`
	Level      string `json:"level" validate:"omitempty,max=20"`
	Semester   string `json:"semester" validate:"required,oneof=first second"`
	Seed       int64  `json:"seed" validate:"omitempty,min=0"`
}

// GenerationSummary reports how many courses the run placed.
type GenerationSummary struct {
	TotalCourses        int             `json:"totalCourses"`
	ScheduledCourses    int             `json:"scheduledCourses"`
	UnscheduledCourses  int             `json:"unscheduledCourses"`
	Unscheduled         []string        `json:"unscheduled"`
	SkippedCourses      []string        `json:"skippedCourses,omitempty"`
	Levels              []string        `json:"levels"`
	SkippedLevels       []string        `json:"skippedLevels,omitempty"`
	Semester            models.Semester `json:"semester"`
	TimetablesGenerated int             `json:"timetablesGenerated"`
}

// GenerateTimetableResponse returns the stored drafts with the run summary.
type GenerateTimetableResponse struct {
	Timetables []models.Timetable `json:"timetables"`
	Summary    GenerationSummary  `json:"summary"`
	NextStep   string             `json:"nextStep"`
}

// ShareTimetableRequest hands a draft timetable to course representatives.
type ShareTimetableRequest struct {
	TimetableID  string   `json:"timetableId" validate:"required"`
	CourseRepIDs []string `json:"courseRepIds" validate:"required,min=1,dive,required"`
}

// PublishTimetableRequest makes a shared timetable publicly visible.
type PublishTimetableRequest struct {
	TimetableID string `json:"timetableId" validate:"required"`
}

// TimetableQuery filters timetable listings.
type TimetableQuery struct {
	Semester string `form:"semester" json:"semester" validate:"omitempty,oneof=first second"`
}

// PublicTimetableQuery filters the public listing of published timetables.
type PublicTimetableQuery struct {
	Department string `form:"department" json:"department" validate:"omitempty,max=120"`
	Level      string `form:"level" json:"level" validate:"omitempty,max=20"`
	Semester   string `form:"semester" json:"semester" validate:"omitempty,oneof=first second"`
}

// ExportFormat names a downloadable timetable rendering.
type ExportFormat string

const (
	ExportFormatPDF ExportFormat = "pdf"
	ExportFormatCSV ExportFormat = "csv"
)

// ExportResult carries a rendered timetable document.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}
