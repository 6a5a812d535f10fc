// Package repository implements the data access layer for the application.
package repository

import (
	"context"

	"quorum/internal/cache"
	"quorum/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetCached(ctx context.Context, id uint) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Company").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetCached reads the user through the Redis cache-aside helper. Role and
// company changes become visible after at most cache.UserTTL; auth-sensitive
// paths that cannot tolerate that should use GetByID.
func (r *userRepository) GetCached(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return r.db.WithContext(ctx).Preload("Company").First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
