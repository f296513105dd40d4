package repository

import (
	"context"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
)

// UserRepository answers recipient queries against the user store.
type UserRepository interface {
	FindRecipients(ctx context.Context, query RecipientQuery) ([]entities.User, error)
	CreateUser(ctx context.Context, user *entities.User) error
	SaveUser(ctx context.Context, user *entities.User) error
	CountActive(ctx context.Context) (int64, error)
}

// RecipientQuery selects active users. When All is set the selector lists
// are ignored. Otherwise the non-empty lists are OR-combined; with no lists
// at all the query matches every active user.
type RecipientQuery struct {
	All         bool
	Roles       []string
	CustomerIDs []string
	Locations   []string
}

// HasFilters reports whether at least one selector list is non-empty.
func (q RecipientQuery) HasFilters() bool {
	return len(q.Roles) > 0 || len(q.CustomerIDs) > 0 || len(q.Locations) > 0
}
