package models

import "time"

// Event is a photo-sharing occasion identified by an opaque hash.
type Event struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	EventHash       string       `gorm:"size:64;not null;uniqueIndex" json:"event_hash"`
	Name            string       `gorm:"size:200;not null" json:"name"`
	UserID          uint         `gorm:"not null;index" json:"user_id"`
	User            *UserRef     `gorm:"-" json:"user,omitempty"`
	EventDate       time.Time    `gorm:"not null" json:"event_date"`
	BannerURL       string       `json:"banner_url"`
	ProfileImageURL string       `json:"profile_image_url"`
	PricingTierID   uint         `gorm:"index" json:"pricing_tier_id"`
	PricingTier     *PricingTier `gorm:"foreignKey:PricingTierID" json:"pricing_tier,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// UploadWindow is how long after event_date guests may keep uploading.
const UploadWindow = 112 * time.Hour

// Expired reports whether the upload window closed before now.
// Only whole elapsed hours count.
func (e *Event) Expired(now time.Time) bool {
	elapsed := now.Sub(e.EventDate).Truncate(time.Hour)
	return elapsed > UploadWindow
}

// CapacityStatus is the outcome of the upload capacity check.
type CapacityStatus struct {
	Used    int64 `json:"used"`
	Limit   int64 `json:"limit"`
	Reached bool  `json:"limit_reached"`
}
