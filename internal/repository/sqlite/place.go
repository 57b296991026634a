package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/feed-curation/internal/apperror"
	"github.com/sakif/feed-curation/internal/model"
	"github.com/sakif/feed-curation/internal/repository"
)

// compile-time check that *PlaceRepo implements repository.PlaceRepository
var _ repository.PlaceRepository = (*PlaceRepo)(nil)

// PlaceRepo is the SQLite-backed place store.
type PlaceRepo struct {
	db *DB
}

func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

// Save inserts or updates a place by its provider id.
//
// ON CONFLICT ... DO UPDATE (rather than INSERT OR REPLACE) keeps the
// original rowid and created_at intact when an existing place is re-saved
// — which is exactly what the feed-creation flow does when it touches the
// resolved place.
func (r *PlaceRepo) Save(ctx context.Context, place *model.Place) error {
	now := time.Now()
	if place.CreatedAt.IsZero() {
		place.CreatedAt = now
	}
	place.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO places (id, place_name, address_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   place_name = excluded.place_name,
		   address_name = excluded.address_name,
		   updated_at = excluded.updated_at`,
		place.ID,
		place.PlaceName,
		place.AddressName,
		place.CreatedAt,
		place.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving place %s: %w", place.ID, err)
	}

	return nil
}

// GetByID retrieves a place by its external provider id.
// Returns apperror.ErrNotFound if no such place exists.
func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*model.Place, error) {
	var p model.Place

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, place_name, address_name, created_at, updated_at
		 FROM places WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.PlaceName, &p.AddressName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("place", id)
		}
		return nil, fmt.Errorf("sqlite: getting place %s: %w", id, err)
	}

	return &p, nil
}
