package models

import (
	"time"

	"gorm.io/datatypes"
)

// Reservation IDs are built as "<roomNumber>-<blocName>-<year>".
type Reservation struct {
	ID string `gorm:"primaryKey;type:varchar(191)" json:"id"`

	// AcademicYear is the anchor date; the academic year is the
	// September-to-August window that contains it.
	AcademicYear datatypes.Date `gorm:"column:academic_year;not null;index" json:"academicYear"`
	Valid        bool           `gorm:"column:valid;index" json:"valid"`

	// nil once the reservation has been invalidated
	RoomID *uint `gorm:"column:room_id;index" json:"roomId,omitempty"`
	Room   *Room `gorm:"foreignKey:RoomID;references:ID;constraint:OnDelete:SET NULL" json:"room,omitempty"`

	Students []Student `gorm:"many2many:reservation_students;" json:"students"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AnchorTime returns the academic-year anchor as midnight UTC, whatever
// location the driver scanned it in.
func (r Reservation) AnchorTime() time.Time {
	t := time.Time(r.AcademicYear)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// HasStudent reports whether the student with the given ID belongs to r.
func (r Reservation) HasStudent(studentID uint) bool {
	for _, s := range r.Students {
		if s.ID == studentID {
			return true
		}
	}
	return false
}
