package models

import (
	"time"

	"gorm.io/datatypes"
)

// Category is a photo category with the weight used to seed post scores.
type Category struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Name  string  `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Score float64 `gorm:"not null;default:0" json:"score"`
}

// PhotosPerGuest multiplies a tier's guest count into the upload limit.
const PhotosPerGuest = 20

// FreeTierCost identifies the tier assigned to new events.
const FreeTierCost = "0"

// PricingTier bounds how many photos an event may collect.
type PricingTier struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:120;not null" json:"name"`
	Cost       string         `gorm:"size:32;not null;index" json:"cost"`
	GuestCount int            `gorm:"not null" json:"guest_count"`
	Features   datatypes.JSON `json:"features"`
	CreatedAt  time.Time      `json:"created_at"`
}

// UploadLimit is the number of completed posts allowed under the tier.
func (p *PricingTier) UploadLimit() int64 {
	return int64(p.GuestCount) * PhotosPerGuest
}
