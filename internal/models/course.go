package models

import "time"

// Semester identifies the half of the academic year a course runs in.
type Semester string

const (
	SemesterFirst  Semester = "first"
	SemesterSecond Semester = "second"
)

// Valid reports whether s is one of the recognised semesters.
func (s Semester) Valid() bool {
	return s == SemesterFirst || s == SemesterSecond
}

// Course is a unit of teaching offered by a department at one level.
type Course struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	Level      string    `db:"level" json:"level"`
	Semester   Semester  `db:"semester" json:"semester"`
	Instructor string    `db:"instructor" json:"instructor"`
	ClassSize  int       `db:"class_size" json:"class_size"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Department string
	Level      string
	Semester   Semester
}
