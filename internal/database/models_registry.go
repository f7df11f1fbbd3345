package database

import "orma/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.PricingTier{},
		&models.Category{},
		&models.Event{},
		&models.Post{},
		&models.FeedEntry{},
		&models.PostScore{},
		&models.Like{},
		&models.Comment{},
		&models.OTP{},
		&models.RecentlyViewed{},
	}
}
