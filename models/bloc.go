package models

import "time"

type Bloc struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name     string `gorm:"column:name;size:191;not null" json:"name" validate:"required,max=191"`
	Capacity int64  `gorm:"column:capacity" json:"capacity" validate:"gte=0"`

	FoyerID uint `gorm:"column:foyer_id;index;not null" json:"foyerId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
