package scheduler

import "time"

const (
	// DefaultInstructor is used when a course has no instructor on record.
	DefaultInstructor = "TBA"
	// DefaultClassSize is used when a course has no expected enrolment.
	DefaultClassSize = 50
	// StatusDraft is the only status the engine stamps on results.
	StatusDraft = "draft"
)

// Course is the scheduler's read-only view of a course.
type Course struct {
	Code       string
	Name       string
	Level      string
	Semester   string
	Instructor string
	ClassSize  int
}

func (c Course) instructor() string {
	if c.Instructor == "" {
		return DefaultInstructor
	}
	return c.Instructor
}

func (c Course) classSize() int {
	if c.ClassSize <= 0 {
		return DefaultClassSize
	}
	return c.ClassSize
}

// Venue is a room available to the department. Capacity is carried but not
// enforced against class size by the assigner.
type Venue struct {
	Name     string
	Capacity int
}

// Entry is one placed course.
type Entry struct {
	CourseCode string    `json:"courseCode"`
	CourseName string    `json:"courseName"`
	Level      string    `json:"level"`
	Venue      string    `json:"venue"`
	Day        Day       `json:"day"`
	Time       TimeRange `json:"time"`
	Instructor string    `json:"instructor"`
	ClassSize  int       `json:"classSize"`
}

// Booking converts the entry into a ledger booking.
func (e Entry) Booking() Booking {
	return Booking{Venue: e.Venue, Day: e.Day, Time: e.Time, CourseCode: e.CourseCode, Level: e.Level}
}

// Result bundles every entry placed for one (department, level, semester).
type Result struct {
	Department string    `json:"department"`
	Level      string    `json:"level"`
	Semester   string    `json:"semester"`
	Entries    []Entry   `json:"courses"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
