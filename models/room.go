package models

import (
	"strings"
	"time"
)

// RoomType is stored as its name. Anything outside the three known values is
// kept as-is and simply has no capacity.
type RoomType string

const (
	RoomTypeSimple RoomType = "SIMPLE"
	RoomTypeDouble RoomType = "DOUBLE"
	RoomTypeTriple RoomType = "TRIPLE"
)

// ParseRoomType normalises user input ("double", " Triple ") to the stored form.
func ParseRoomType(raw string) RoomType {
	return RoomType(strings.ToUpper(strings.TrimSpace(raw)))
}

type Room struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Number int64    `gorm:"column:number;uniqueIndex;not null" json:"number" validate:"gt=0"`
	Type   RoomType `gorm:"column:type;type:varchar(16);index" json:"type" validate:"required"`

	// Rooms may exist before they are assigned to a bloc.
	BlocID *uint `gorm:"column:bloc_id;index" json:"blocId,omitempty"`
	Bloc   *Bloc `gorm:"foreignKey:BlocID;references:ID;constraint:OnDelete:SET NULL" json:"bloc,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
