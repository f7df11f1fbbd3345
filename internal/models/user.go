package models

import "time"

// User is an account identified by phone number.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"size:32;not null;uniqueIndex" json:"phone"`
	Name      string    `gorm:"size:120" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRef is the public projection of a user embedded in other payloads.
type UserRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Ref returns the public projection of u.
func (u *User) Ref() *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Name: u.Name}
}

// OTP is a one-time login code sent by SMS. Only the bcrypt hash is stored.
type OTP struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RequestID string    `gorm:"size:64;not null;uniqueIndex" json:"request_id"`
	Phone     string    `gorm:"size:32;not null;index" json:"-"`
	CodeHash  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (OTP) TableName() string {
	return "otps"
}

// RecentlyViewed records the last time a user opened an event.
type RecentlyViewed struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_recent_user_event" json:"user_id"`
	EventHash string    `gorm:"size:64;not null;uniqueIndex:idx_recent_user_event" json:"event_hash"`
	ViewedAt  time.Time `gorm:"not null;index" json:"viewed_at"`
}

// TableName specifies the table name for GORM.
func (RecentlyViewed) TableName() string {
	return "recently_viewed"
}
