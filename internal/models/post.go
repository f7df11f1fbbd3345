// Package models contains data structures for the application's domain models.
package models

import "time"

// PostStatus is the processing lifecycle state of an uploaded photo.
type PostStatus string

const (
	PostStatusReadyForProcessing PostStatus = "READYFORPROCESSING"
	PostStatusProcessing         PostStatus = "PROCESSING"
	PostStatusCompleted          PostStatus = "COMPLETED"
	PostStatusFailedUpload       PostStatus = "FAILEDUPLOAD"
	PostStatusFailedByNudity     PostStatus = "FAILEDBYNUDITY"
)

// PendingStatuses are the states a guest sees as "still uploading".
var PendingStatuses = []PostStatus{
	PostStatusFailedUpload,
	PostStatusProcessing,
	PostStatusReadyForProcessing,
}

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusReadyForProcessing, PostStatusProcessing, PostStatusCompleted,
		PostStatusFailedUpload, PostStatusFailedByNudity:
		return true
	}
	return false
}

// Post is a photo uploaded to an event.
type Post struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	EventHash     string     `gorm:"size:64;not null;index:idx_posts_event_status" json:"event_hash"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	User          *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	UploadURL     string     `gorm:"not null" json:"upload_url"`
	CapturedAt    time.Time  `gorm:"not null;index" json:"captured_at"`
	Status        PostStatus `gorm:"type:varchar(32);not null;default:'READYFORPROCESSING';index:idx_posts_event_status" json:"status"`
	CompressedURL string     `json:"compressed_url"`
	Description   string     `gorm:"type:text" json:"description"`
	CategoryID    uint       `gorm:"index" json:"category_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Computed at query time
	LikesCount     int       `gorm:"->;-:migration" json:"likes_count"`
	RecentComments []Comment `gorm:"-" json:"comments,omitempty"`
}

// FeedEntry links a post to its quantized timeslot for feed assembly.
type FeedEntry struct {
	PostID     uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	Timeslot   time.Time `gorm:"not null;index:idx_feed_event_timeslot" json:"timeslot"`
	CategoryID uint      `json:"category_id"`
	EventHash  string    `gorm:"size:64;not null;index:idx_feed_event_timeslot" json:"event_hash"`
	Post       *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
}

// TableName specifies the table name for GORM.
func (FeedEntry) TableName() string {
	return "feed_entries"
}

// PostScore is the ranking value of a post, seeded from its category weight.
type PostScore struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	Score     float64   `gorm:"not null;default:0" json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (PostScore) TableName() string {
	return "post_scores"
}

// AssetView is a post with absolute asset URLs, as returned by read endpoints.
type AssetView struct {
	ID            uint       `json:"id"`
	EventHash     string     `json:"event_hash"`
	UserID        uint       `json:"user_id"`
	UploadURL     string     `json:"upload_url"`
	ImageURL      string     `json:"image_url"`
	CompressedURL string     `json:"compressed_url"`
	Description   string     `json:"description"`
	CategoryID    uint       `json:"category_id"`
	Status        PostStatus `json:"status"`
	CapturedAt    time.Time  `json:"captured_at"`
	CreatedAt     time.Time  `json:"created_at"`
	User          *UserRef   `json:"user,omitempty"`
	LikesCount    int        `json:"likes_count"`
	Comments      []Comment  `json:"comments,omitempty"`
}

// FeedPageEntry is one row of a timeslot page.
type FeedPageEntry struct {
	PostID     uint      `json:"post_id"`
	Timeslot   time.Time `json:"timeslot"`
	CategoryID uint      `json:"category_id"`
	EventHash  string    `json:"event_hash"`
	Score      float64   `json:"score"`
	Post       AssetView `json:"post"`
}

// MemoryEntry is one row of the memories view.
type MemoryEntry struct {
	AssetView
}

// FeedIndex is the timeline index a client pages through.
type FeedIndex struct {
	Timeslots  []time.Time `json:"timeslots"`
	LatestFull bool        `json:"latest_full"`
}
