package models

import "time"

// Venue is a bookable teaching room owned by a department.
type Venue struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	Capacity   int       `db:"capacity" json:"capacity"`
	Location   string    `db:"location" json:"location,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
