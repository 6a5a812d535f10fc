package database

import "quorum/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Company{},
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.CommentLike{},
		&models.UserPoint{},
		&models.PointSummary{},
	}
}
