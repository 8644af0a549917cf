package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// TimetableStatus represents the sharing lifecycle of a timetable.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "draft"
	TimetableStatusShared    TimetableStatus = "shared"
	TimetableStatusPublished TimetableStatus = "published"
)

// Timetable is the persisted weekly schedule of one level for a semester.
type Timetable struct {
	ID         string           `db:"id" json:"id"`
	Department string           `db:"department" json:"department"`
	Level      string           `db:"level" json:"level"`
	Semester   Semester         `db:"semester" json:"semester"`
	Status     TimetableStatus  `db:"status" json:"status"`
	CreatedBy  string           `db:"created_by" json:"created_by"`
	SharedWith pq.StringArray   `db:"shared_with" json:"shared_with"`
	Meta       types.JSONText   `db:"meta" json:"meta,omitempty"`
	Entries    []TimetableEntry `db:"-" json:"courses"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// IsSharedWith reports whether userID appears in the share list.
func (t Timetable) IsSharedWith(userID string) bool {
	for _, id := range t.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// TimetableEntry is a single placed course inside a timetable.
type TimetableEntry struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetable_id"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	CourseName  string    `db:"course_name" json:"course_name"`
	Venue       string    `db:"venue" json:"venue"`
	Day         string    `db:"day" json:"day"`
	TimeSlot    string    `db:"time_slot" json:"time"`
	Instructor  string    `db:"instructor" json:"instructor"`
	ClassSize   int       `db:"class_size" json:"class_size"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TimetableMeta is stored alongside a generated timetable.
type TimetableMeta struct {
	Seed        int64    `json:"seed,omitempty"`
	DailyCap    int      `json:"daily_cap"`
	Unscheduled []string `json:"unscheduled,omitempty"`
}

// TimetableFilter narrows timetable listings.
type TimetableFilter struct {
	Department string
	Level      string
	Semester   Semester
	Statuses   []TimetableStatus
	SharedWith string
}

// BookedSlot is a venue/day/time triple already taken by a stored timetable.
type BookedSlot struct {
	Venue      string `db:"venue"`
	Day        string `db:"day"`
	TimeSlot   string `db:"time_slot"`
	CourseCode string `db:"course_code"`
	Level      string `db:"level"`
}
