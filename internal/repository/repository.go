// Package repository declares the persistence interfaces the service layer
// depends on. Implementations live in subpackages (sqlite); tests inject
// in-memory mocks. The service never imports a concrete database package.
package repository

import (
	"context"

	"github.com/sakif/feed-curation/internal/model"
)

// FeedRepository is the store for feed posts. Implementations return
// apperror.ErrNotFound (wrapped) when an id does not resolve.
type FeedRepository interface {
	Create(ctx context.Context, feed *model.Feed) error
	GetByID(ctx context.Context, id int64) (*model.Feed, error)
	List(ctx context.Context) ([]model.Feed, error)
	ListByUserEmail(ctx context.Context, email string) ([]model.Feed, error)
	ListTitlesByUserEmail(ctx context.Context, email string) ([]string, error)
	ListByUserEmailAndTitle(ctx context.Context, email, title string) ([]model.Feed, error)
	Update(ctx context.Context, feed *model.Feed) error
	Delete(ctx context.Context, id int64) error
}

// UserRepository reads users by their primary key (email). Create exists
// for seeding and tests; the feed core itself never mutates users.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// PlaceRepository stores places keyed by the external provider id.
// Save is an idempotent upsert — the feed-creation flow re-saves the
// resolved place unchanged as an existence touch.
type PlaceRepository interface {
	Save(ctx context.Context, place *model.Place) error
	GetByID(ctx context.Context, id string) (*model.Place, error)
}
