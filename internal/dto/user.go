package dto

// CreateUserRequest registers an account. Heads of department may only create
// course representatives and students of their own department.
type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email,max=200"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	FullName   string `json:"fullName" validate:"required,max=120"`
	Role       string `json:"role" validate:"required,oneof=ADMIN HOD COURSE_REP STUDENT"`
	Department string `json:"department" validate:"required_unless=Role ADMIN,max=120"`
	Level      string `json:"level" validate:"omitempty,max=20"`
}
