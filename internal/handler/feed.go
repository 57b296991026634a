// Package handler is the HTTP layer: it parses requests, calls the
// service, and writes response envelopes. No business rules live here.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/feed-curation/internal/apperror"
	"github.com/sakif/feed-curation/internal/service"
)

// maxUploadBytes caps how much of a multipart body is held in memory
// before spilling to temp files.
const maxUploadBytes = 32 << 20 // 32 MB

// FeedHandler exposes the feed CRUD endpoints.
type FeedHandler struct {
	service *service.FeedService
	logger  *slog.Logger
}

func NewFeedHandler(service *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{service: service, logger: logger}
}

// Routes returns the router for the /feed subtree. Registration order
// doesn't matter to chi — static segments ("/list", "/video", "/titles")
// win over the "/{id}" parameter route.
func (h *FeedHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandleCreate)
	r.Post("/video", h.HandleUploadVideo)
	r.Put("/", h.HandleUpdate)
	r.Get("/list", h.HandleListAll)
	r.Get("/list/{email}", h.HandleListByUser)
	r.Get("/list/{email}/{title}/", h.HandleListByUserAndTitle)
	r.Get("/titles/{email}", h.HandleListTitlesByUser)
	r.Get("/{id}", h.HandleGetByID)
	r.Delete("/{id}", h.HandleDelete)

	return r
}

// HandleCreate registers a new feed post.
//
// HTTP: POST /feed (multipart/form-data)
// Fields: title, score, content, userEmail, placeId + a required "file" part.
//
// A missing user or place answers 400 on this endpoint — not the 404 the
// read endpoints use. That asymmetry is part of the public contract.
func (h *FeedHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "file is required")
		return
	}
	defer file.Close()

	in := service.CreateFeedInput{
		Title:     r.FormValue("title"),
		Content:   r.FormValue("content"),
		UserEmail: r.FormValue("userEmail"),
		PlaceID:   r.FormValue("placeId"),
	}

	// An absent score stays nil and falls into the service's blank check;
	// a present but non-numeric one is a malformed request in its own
	// right.
	if raw := r.FormValue("score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, nil, "score must be a number")
			return
		}
		in.Score = &score
	}

	feed, err := h.service.Create(r.Context(), in, header.Filename, file)
	if err != nil {
		// Contract quirk: missing user/place is a 400 here.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && errors.Is(err, apperror.ErrNotFound) {
			writeEnvelope(w, http.StatusBadRequest, nil, appErr.Message)
			return
		}
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, feed, "success")
}

// HandleUploadVideo stores a video and triggers thumbnail derivation.
//
// HTTP: POST /feed/video (multipart/form-data, "file" part)
//
// The response data is the video reference string; the derived thumbnail
// reference is not reported.
func (h *FeedHandler) HandleUploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "file is required")
		return
	}
	defer file.Close()

	ref, err := h.service.UploadVideo(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, ref, "success")
}

type updateFeedRequest struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Score   int    `json:"score"`
}

// HandleUpdate overwrites content and score of an existing feed.
//
// HTTP: PUT /feed (JSON body {id, content, score})
func (h *FeedHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, "invalid JSON body")
		return
	}

	feed, err := h.service.Update(r.Context(), req.ID, req.Content, req.Score)
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, feed, "success")
}

// HandleGetByID returns a single feed.
//
// HTTP: GET /feed/{id}
func (h *FeedHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.feedID(w, r)
	if !ok {
		return
	}

	feed, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, feed, "success")
}

// HandleListAll returns every feed.
//
// HTTP: GET /feed/list
func (h *FeedHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, feeds, listMessage(len(feeds)))
}

// HandleListByUser returns all feeds owned by one user.
//
// HTTP: GET /feed/list/{email}
func (h *FeedHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.service.ListByUserEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, feeds, listMessage(len(feeds)))
}

// HandleListTitlesByUser returns only the titles of one user's feeds.
//
// HTTP: GET /feed/titles/{email}
func (h *FeedHandler) HandleListTitlesByUser(w http.ResponseWriter, r *http.Request) {
	titles, err := h.service.ListTitlesByUserEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, titles, listMessage(len(titles)))
}

// HandleListByUserAndTitle returns one user's feeds matching a title
// exactly.
//
// HTTP: GET /feed/list/{email}/{title}/
func (h *FeedHandler) HandleListByUserAndTitle(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.service.ListByUserAndTitle(r.Context(),
		chi.URLParam(r, "email"), chi.URLParam(r, "title"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, feeds, listMessage(len(feeds)))
}

// HandleDelete removes a feed and echoes the removed record.
//
// HTTP: DELETE /feed/{id}
func (h *FeedHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.feedID(w, r)
	if !ok {
		return
	}

	feed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, feed, "success")
}

// feedID parses the {id} path segment. A malformed id is a client error,
// never a panic or a 500.
func (h *FeedHandler) feedID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Warn("malformed feed id", slog.String("id", raw))
		writeEnvelope(w, http.StatusBadRequest, nil, "invalid feed id")
		return 0, false
	}
	return id, true
}

// listMessage suffixes the result count to the success message
// ("success3"). Kept verbatim for compatibility with existing clients.
func listMessage(n int) string {
	return fmt.Sprintf("success%d", n)
}
