package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleHOD       UserRole = "HOD"
	RoleCourseRep UserRole = "COURSE_REP"
	RoleStudent   UserRole = "STUDENT"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Department   string     `db:"department" json:"department"`
	Level        string     `db:"level" json:"level,omitempty"`
	Verified     bool       `db:"verified" json:"verified"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IsCourseRepOf reports whether the user may receive timetables shared by department.
func (u User) IsCourseRepOf(department string) bool {
	return u.Role == RoleCourseRep && u.Verified && u.Active && u.Department == department
}
