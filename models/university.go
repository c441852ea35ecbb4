package models

import "time"

// University owns at most one Foyer through FoyerID. The reverse lookup
// (foyer -> university) is a query on foyer_id, not a pointer on Foyer.
type University struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name    string `gorm:"column:name;uniqueIndex;size:191;not null" json:"name" validate:"required,max=191"`
	Address string `gorm:"column:address;type:text" json:"address"`

	FoyerID *uint  `gorm:"column:foyer_id;uniqueIndex" json:"foyerId,omitempty"`
	Foyer   *Foyer `gorm:"foreignKey:FoyerID;references:ID;constraint:OnDelete:SET NULL" json:"foyer,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
