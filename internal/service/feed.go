// Package service contains the business logic layer.
//
// The dependency chain mirrors the rest of the codebase:
//
//	Handler (HTTP)  → parses requests, writes response envelopes
//	Service (rules) → resolves references, validates, orchestrates
//	Repository/FileStore (data) → reads/writes rows and blobs
//
// FeedService takes interfaces, not concrete types, so tests inject mocks
// and the service stays ignorant of SQLite and the filesystem.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/feed-curation/internal/apperror"
	"github.com/sakif/feed-curation/internal/model"
	"github.com/sakif/feed-curation/internal/repository"
	"github.com/sakif/feed-curation/internal/storage"
)

// FeedService handles business logic for feed posts.
type FeedService struct {
	feeds  repository.FeedRepository
	users  repository.UserRepository
	places repository.PlaceRepository
	files  storage.FileStore
	logger *slog.Logger
}

func NewFeedService(
	feeds repository.FeedRepository,
	users repository.UserRepository,
	places repository.PlaceRepository,
	files storage.FileStore,
	logger *slog.Logger,
) *FeedService {
	return &FeedService{
		feeds:  feeds,
		users:  users,
		places: places,
		files:  files,
		logger: logger,
	}
}

// CreateFeedInput carries the fields of a create request. Score is a
// pointer because "absent" and "zero" are different things: a missing
// score is a validation failure, a zero score is a legal rating.
type CreateFeedInput struct {
	Title     string
	Score     *int
	Content   string
	UserEmail string
	PlaceID   string
}

// Create validates and persists a new feed post.
//
// The order is part of the contract: resolve the user, resolve the place
// (either missing terminates before any mutation), THEN apply the blank
// checks, THEN upload and persist. Blank title/content, a missing score
// and blank place fields all collapse into the single coarse "data is
// blank" error — no per-field detail.
//
// The resolved place is re-saved unchanged before the feed is inserted.
// The two writes are not transactional: a crash in between leaves the
// place touched and no feed created.
func (s *FeedService) Create(ctx context.Context, in CreateFeedInput, filename string, file io.Reader) (*model.Feed, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(in.UserEmail))
	if err != nil {
		return nil, err
	}

	place, err := s.places.GetByID(ctx, in.PlaceID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" || in.Score == nil ||
		place.PlaceName == "" || place.AddressName == "" {
		return nil, apperror.Blank()
	}

	ref, err := s.files.Upload(ctx, filename, file)
	if err != nil {
		s.logger.Error("failed to upload feed media",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("uploading feed media: %w", err)
	}

	// Existence touch on the resolved place — saved without field changes.
	if err := s.places.Save(ctx, place); err != nil {
		s.logger.Error("failed to re-save place",
			slog.String("placeId", place.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving place %s: %w", place.ID, err)
	}

	feed := &model.Feed{
		Title:     title,
		Score:     *in.Score,
		Content:   content,
		FilePath:  ref,
		UserEmail: user.Email,
		PlaceID:   place.ID,
	}

	if err := s.feeds.Create(ctx, feed); err != nil {
		s.logger.Error("failed to create feed",
			slog.String("userEmail", user.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating feed: %w", err)
	}

	s.logger.Info("feed created",
		slog.Int64("id", feed.ID),
		slog.String("userEmail", feed.UserEmail),
		slog.String("placeId", feed.PlaceID),
	)

	return feed, nil
}

// UploadVideo stores a video blob and kicks off thumbnail derivation on
// the file store. Only the video reference is returned; the thumbnail
// reference stays inside the store.
func (s *FeedService) UploadVideo(ctx context.Context, filename string, file io.Reader) (string, error) {
	ref, err := s.files.Upload(ctx, filename, file)
	if err != nil {
		s.logger.Error("failed to upload video",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("uploading video: %w", err)
	}

	if err := s.files.CreateThumbnail(ctx, ref); err != nil {
		s.logger.Error("failed to derive thumbnail",
			slog.String("ref", ref),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("deriving thumbnail for %s: %w", ref, err)
	}

	s.logger.Info("video uploaded", slog.String("ref", ref))
	return ref, nil
}

// Update overwrites content (trimmed) and score on an existing feed.
// Everything else — title, owner, place, file path — is untouched; the
// update is intentionally partial. Returns NotFound if the id does not
// resolve.
func (s *FeedService) Update(ctx context.Context, id int64, content string, score int) (*model.Feed, error) {
	feed, err := s.feeds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	feed.Content = strings.TrimSpace(content)
	feed.Score = score

	if err := s.feeds.Update(ctx, feed); err != nil {
		s.logger.Error("failed to update feed",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating feed %d: %w", id, err)
	}

	s.logger.Info("feed updated", slog.Int64("id", id))
	return feed, nil
}

// GetByID retrieves a single feed.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *FeedService) GetByID(ctx context.Context, id int64) (*model.Feed, error) {
	return s.feeds.GetByID(ctx, id)
}

// ListAll returns every feed in the store.
func (s *FeedService) ListAll(ctx context.Context) ([]model.Feed, error) {
	feeds, err := s.feeds.List(ctx)
	if err != nil {
		s.logger.Error("failed to list feeds", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	return feeds, nil
}

// ListByUserEmail returns all feeds owned by the given user.
// The user must exist; a missing user is NotFound, not an empty list.
func (s *FeedService) ListByUserEmail(ctx context.Context, email string) ([]model.Feed, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	feeds, err := s.feeds.ListByUserEmail(ctx, user.Email)
	if err != nil {
		s.logger.Error("failed to list feeds by user",
			slog.String("userEmail", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing feeds for %s: %w", email, err)
	}
	return feeds, nil
}

// ListTitlesByUserEmail returns only the titles of the user's feeds — a
// projection, neither filtered nor deduplicated.
func (s *FeedService) ListTitlesByUserEmail(ctx context.Context, email string) ([]string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	titles, err := s.feeds.ListTitlesByUserEmail(ctx, user.Email)
	if err != nil {
		s.logger.Error("failed to list feed titles",
			slog.String("userEmail", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing feed titles for %s: %w", email, err)
	}
	return titles, nil
}

// ListByUserAndTitle returns the user's feeds whose title matches the
// given string exactly.
func (s *FeedService) ListByUserAndTitle(ctx context.Context, email, title string) ([]model.Feed, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	feeds, err := s.feeds.ListByUserEmailAndTitle(ctx, user.Email, title)
	if err != nil {
		s.logger.Error("failed to list feeds by user and title",
			slog.String("userEmail", email),
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing feeds for %s titled %q: %w", email, title, err)
	}
	return feeds, nil
}

// Delete removes a feed and returns the removed record as confirmation.
// The fetch-then-delete keeps the "not found" error consistent with
// GetByID and gives the caller the last state of the row.
func (s *FeedService) Delete(ctx context.Context, id int64) (*model.Feed, error) {
	feed, err := s.feeds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.feeds.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete feed",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("deleting feed %d: %w", id, err)
	}

	s.logger.Info("feed deleted", slog.Int64("id", id))
	return feed, nil
}
