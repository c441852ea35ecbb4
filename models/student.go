package models

import (
	"time"

	"gorm.io/datatypes"
)

// Student reservations are looked up through reservation_students; there is
// no back-reference on the struct.
type Student struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FirstName string `gorm:"column:first_name;size:100" json:"firstName" validate:"required,max=100"`
	LastName  string `gorm:"column:last_name;size:100" json:"lastName" validate:"required,max=100"`
	CIN       int64  `gorm:"column:cin;uniqueIndex;not null" json:"cin" validate:"gt=0"`
	School    string `gorm:"column:school;size:191" json:"school"`

	BirthDate *datatypes.Date `gorm:"column:birth_date" json:"birthDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
