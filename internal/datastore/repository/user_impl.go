package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
)

// userRepository implements UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindRecipients returns the active users selected by query, ordered by ID.
func (r *userRepository) FindRecipients(ctx context.Context, query RecipientQuery) ([]entities.User, error) {
	var users []entities.User
	q := r.db.WithContext(ctx).Where("active = ?", true)

	if !query.All && query.HasFilters() {
		q = q.Where(r.selectorGroup(query))
	}

	if err := q.Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find recipients: %w", err)
	}
	return users, nil
}

// selectorGroup builds "(role IN ? OR customer_id IN ? OR location IN ?)"
// from whichever lists are present.
func (r *userRepository) selectorGroup(query RecipientQuery) *gorm.DB {
	group := r.db.Session(&gorm.Session{NewDB: true})
	started := false
	add := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		if !started {
			group = group.Where(column+" IN ?", values)
			started = true
			return
		}
		group = group.Or(column+" IN ?", values)
	}
	add("role", query.Roles)
	add("customer_id", query.CustomerIDs)
	add("location", query.Locations)
	return group
}

// CreateUser inserts a new user.
func (r *userRepository) CreateUser(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	return nil
}

// SaveUser inserts the user or replaces every column of an existing row.
func (r *userRepository) SaveUser(ctx context.Context, user *entities.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	return nil
}

// CountActive returns the number of active users.
func (r *userRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}
