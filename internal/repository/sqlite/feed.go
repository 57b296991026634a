package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/feed-curation/internal/apperror"
	"github.com/sakif/feed-curation/internal/model"
	"github.com/sakif/feed-curation/internal/repository"
)

// compile-time check that *FeedRepo implements repository.FeedRepository
var _ repository.FeedRepository = (*FeedRepo)(nil)

const feedColumns = `id, title, score, content, file_path, user_email, place_id, created_at, updated_at`

// FeedRepo is the SQLite-backed feed store.
type FeedRepo struct {
	db *DB
}

func NewFeedRepo(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

// Create inserts a new feed and fills in the generated id and timestamps
// on the passed struct (pointer receiver semantics — the caller's feed is
// modified in place).
func (r *FeedRepo) Create(ctx context.Context, feed *model.Feed) error {
	now := time.Now()
	feed.CreatedAt = now
	feed.UpdatedAt = now

	result, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO feeds (title, score, content, file_path, user_email, place_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		feed.Title,
		feed.Score,
		feed.Content,
		feed.FilePath,
		feed.UserEmail,
		feed.PlaceID,
		feed.CreatedAt,
		feed.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating feed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading feed insert id: %w", err)
	}
	feed.ID = id

	return nil
}

// GetByID retrieves a single feed. sql.ErrNoRows is translated to the
// domain's NotFound error so handlers can map it to 404.
func (r *FeedRepo) GetByID(ctx context.Context, id int64) (*model.Feed, error) {
	var f model.Feed

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id,
	).Scan(
		&f.ID, &f.Title, &f.Score, &f.Content, &f.FilePath,
		&f.UserEmail, &f.PlaceID, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("feed", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting feed %d: %w", id, err)
	}

	return &f, nil
}

// List returns every feed, newest first.
func (r *FeedRepo) List(ctx context.Context) ([]model.Feed, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+feedColumns+` FROM feeds ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feeds: %w", err)
	}
	defer rows.Close()

	return scanFeeds(rows)
}

// ListByUserEmail returns all feeds owned by the given user, newest first.
func (r *FeedRepo) ListByUserEmail(ctx context.Context, email string) ([]model.Feed, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+feedColumns+` FROM feeds
		 WHERE user_email = ?
		 ORDER BY created_at DESC, id DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feeds for %s: %w", email, err)
	}
	defer rows.Close()

	return scanFeeds(rows)
}

// ListTitlesByUserEmail is a projection query: only the titles of a user's
// feeds, duplicates included.
func (r *FeedRepo) ListTitlesByUserEmail(ctx context.Context, email string) ([]string, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT title FROM feeds
		 WHERE user_email = ?
		 ORDER BY created_at DESC, id DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feed titles for %s: %w", email, err)
	}
	defer rows.Close()

	titles := make([]string, 0)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feed title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feed titles: %w", err)
	}

	return titles, nil
}

// ListByUserEmailAndTitle returns a user's feeds whose title matches
// exactly (no prefix or fuzzy matching).
func (r *FeedRepo) ListByUserEmailAndTitle(ctx context.Context, email, title string) ([]model.Feed, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+feedColumns+` FROM feeds
		 WHERE user_email = ? AND title = ?
		 ORDER BY created_at DESC, id DESC`,
		email, title,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feeds for %s titled %q: %w", email, title, err)
	}
	defer rows.Close()

	return scanFeeds(rows)
}

// Update persists the mutable fields of an existing feed: content and
// score. Title, owner, place and file path are immutable post-creation, so
// they are deliberately absent from the SET clause.
func (r *FeedRepo) Update(ctx context.Context, feed *model.Feed) error {
	feed.UpdatedAt = time.Now()

	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE feeds SET content = ?, score = ?, updated_at = ? WHERE id = ?`,
		feed.Content,
		feed.Score,
		feed.UpdatedAt,
		feed.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating feed %d: %w", feed.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("feed", strconv.FormatInt(feed.ID, 10))
	}

	return nil
}

// Delete removes a feed by id. Same RowsAffected pattern as Update to
// detect "not found".
func (r *FeedRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting feed %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("feed", strconv.FormatInt(id, 10))
	}

	return nil
}

// scanFeeds drains a result set whose SELECT list is feedColumns.
// Always returns a non-nil slice so list endpoints serialize as [] rather
// than null.
func scanFeeds(rows *sql.Rows) ([]model.Feed, error) {
	feeds := make([]model.Feed, 0)
	for rows.Next() {
		var f model.Feed
		if err := rows.Scan(
			&f.ID, &f.Title, &f.Score, &f.Content, &f.FilePath,
			&f.UserEmail, &f.PlaceID, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feed row: %w", err)
		}
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feeds: %w", err)
	}
	return feeds, nil
}
