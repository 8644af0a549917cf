package dto

// CreateVenueRequest registers a teaching venue for a department.
type CreateVenueRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Department string `json:"department" validate:"required,max=120"`
	Capacity   int    `json:"capacity" validate:"required,min=1,max=5000"`
	Location   string `json:"location" validate:"omitempty,max=200"`
}
