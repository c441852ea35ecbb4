package models

import "time"

// Foyer is a housing complex. A foyer with no university pointing at it is
// orphaned but valid.
type Foyer struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name     string `gorm:"column:name;size:191;not null" json:"name" validate:"required,max=191"`
	Capacity int64  `gorm:"column:capacity" json:"capacity" validate:"gte=0"`

	// only used when a foyer is created together with its blocs
	Blocs []Bloc `gorm:"foreignKey:FoyerID;references:ID;constraint:OnDelete:CASCADE" json:"blocs,omitempty" validate:"dive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
