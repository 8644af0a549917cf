package dto

import "github.com/noah-isme/timetable-api/internal/models"

// CreateCourseRequest registers a course for a department level and semester.
type CreateCourseRequest struct {
	Code       string `json:"code" validate:"required,max=20"`
	Name       string `json:"name" validate:"required,max=200"`
	Department string `json:"department" validate:"required,max=120"`
	Level      string `json:"level" validate:"required,max=20"`
	Semester   string `json:"semester" validate:"required,oneof=first second"`
	Instructor string `json:"instructor" validate:"omitempty,max=120"`
	ClassSize  int    `json:"classSize" validate:"omitempty,min=1,max=2000"`
}

// CreateCourseResponse returns the stored course. Notification is set when a
// timetable for the same level and semester already exists.
type CreateCourseResponse struct {
	Course       models.Course `json:"course"`
	Notification string        `json:"notification,omitempty"`
}

// CourseQuery filters course listings.
type CourseQuery struct {
	Level    string `form:"level" json:"level" validate:"omitempty,max=20"`
	Semester string `form:"semester" json:"semester" validate:"omitempty,oneof=first second"`
}
