package models

import "time"

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeSummary is the like state of a post as seen by the caller.
type LikeSummary struct {
	PostID uint  `json:"post_id"`
	Count  int64 `json:"count"`
	Liked  bool  `json:"liked"`
}
