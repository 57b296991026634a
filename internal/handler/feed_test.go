package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/feed-curation/internal/handler"
	"github.com/sakif/feed-curation/internal/model"
	"github.com/sakif/feed-curation/internal/repository/sqlite"
	"github.com/sakif/feed-curation/internal/service"
	"github.com/sakif/feed-curation/internal/storage"
)

// End-to-end handler tests: real service, in-memory SQLite, disk store in a
// temp dir. Only the HTTP edge is under test here — business-rule coverage
// lives in the service and repository tests.

type testServer struct {
	*httptest.Server
	db        *sqlite.DB
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	uploadDir := t.TempDir()
	files, err := storage.NewDisk(uploadDir)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewFeedService(
		sqlite.NewFeedRepo(db),
		sqlite.NewUserRepo(db),
		sqlite.NewPlaceRepo(db),
		files,
		logger,
	)

	router := chi.NewRouter()
	router.Mount("/feed", handler.NewFeedHandler(svc, logger).Routes())

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, db: db, uploadDir: uploadDir}
}

func (ts *testServer) seedUser(t *testing.T, email string) {
	t.Helper()
	err := sqlite.NewUserRepo(ts.db).Create(context.Background(), &model.User{Email: email, Nickname: "tester"})
	require.NoError(t, err)
}

func (ts *testServer) seedPlace(t *testing.T, id string) {
	t.Helper()
	place := &model.Place{ID: id, PlaceName: "Stew House", AddressName: "12 Broth St"}
	err := sqlite.NewPlaceRepo(ts.db).Save(context.Background(), place)
	require.NoError(t, err)
}

type envelope struct {
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

// multipartBody builds a create/upload request body. A nil fields map still
// produces a "file" part; an empty filename skips the file part entirely.
func multipartBody(t *testing.T, fields map[string]string, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, "media bytes")
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"title":     "Kimchi Stew",
		"score":     "5",
		"content":   "Great",
		"userEmail": "a@x.com",
		"placeId":   "P1",
	}
}

// createFeed posts a valid multipart create request and returns the created
// feed's decoded data.
func createFeed(t *testing.T, ts *testServer, fields map[string]string) model.Feed {
	t.Helper()
	body, contentType := multipartBody(t, fields, "kimchi.jpg")
	resp, err := http.Post(ts.URL+"/feed", contentType, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	var feed model.Feed
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	return feed
}

func TestHandleCreate(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")

	body, contentType := multipartBody(t, validFields(), "kimchi.jpg")
	resp, err := http.Post(ts.URL+"/feed", contentType, body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "200", env.Code)
	assert.Equal(t, "success", env.Message)

	var feed model.Feed
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	assert.Positive(t, feed.ID)
	assert.Equal(t, "Kimchi Stew", feed.Title)
	assert.Equal(t, 5, feed.Score)
	assert.Equal(t, "a@x.com", feed.UserEmail)
	assert.Equal(t, "P1", feed.PlaceID)
	assert.True(t, strings.HasPrefix(feed.FilePath, "/files/"), "FilePath = %q", feed.FilePath)

	// The media really landed in the store.
	name := strings.TrimPrefix(feed.FilePath, "/files/")
	_, statErr := os.Stat(filepath.Join(ts.uploadDir, name))
	assert.NoError(t, statErr)
}

// Missing user and place answer 400 on create, unlike the 404 of the read
// endpoints.
func TestHandleCreate_MissingReferences(t *testing.T) {
	tests := []struct {
		name        string
		seed        func(t *testing.T, ts *testServer)
		wantMessage string
	}{
		{
			name:        "unknown user",
			seed:        func(t *testing.T, ts *testServer) { ts.seedPlace(t, "P1") },
			wantMessage: "user not found with id a@x.com",
		},
		{
			name:        "unknown place",
			seed:        func(t *testing.T, ts *testServer) { ts.seedUser(t, "a@x.com") },
			wantMessage: "place not found with id P1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			tt.seed(t, ts)

			body, contentType := multipartBody(t, validFields(), "kimchi.jpg")
			resp, err := http.Post(ts.URL+"/feed", contentType, body)
			require.NoError(t, err)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			env := decodeEnvelope(t, resp)
			assert.Equal(t, "400", env.Code)
			assert.Equal(t, tt.wantMessage, env.Message)
			assert.Equal(t, "null", string(env.Data))
		})
	}
}

func TestHandleCreate_BlankData(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")

	fields := validFields()
	fields["title"] = "   "

	body, contentType := multipartBody(t, fields, "kimchi.jpg")
	resp, err := http.Post(ts.URL+"/feed", contentType, body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "data is blank", env.Message)
}

func TestHandleCreate_MissingFile(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")

	body, contentType := multipartBody(t, validFields(), "")
	resp, err := http.Post(ts.URL+"/feed", contentType, body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "file is required", env.Message)
}

func TestHandleCreate_NonNumericScore(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")

	fields := validFields()
	fields["score"] = "five"

	body, contentType := multipartBody(t, fields, "kimchi.jpg")
	resp, err := http.Post(ts.URL+"/feed", contentType, body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "score must be a number", env.Message)
}

func TestHandleUploadVideo(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, nil, "clip.mp4")
	resp, err := http.Post(ts.URL+"/feed/video", contentType, body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "success", env.Message)

	var ref string
	require.NoError(t, json.Unmarshal(env.Data, &ref))
	assert.True(t, strings.HasPrefix(ref, "/files/"), "ref = %q", ref)

	// The thumbnail is derived next to the video, never reported back.
	name := strings.TrimPrefix(ref, "/files/")
	thumb := strings.TrimSuffix(name, filepath.Ext(name)) + "_thumb.jpg"
	_, statErr := os.Stat(filepath.Join(ts.uploadDir, thumb))
	assert.NoError(t, statErr)
}

func TestHandleUploadVideo_MissingFile(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, nil, "")
	resp, err := http.Post(ts.URL+"/feed/video", contentType, body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "file is required", env.Message)
}

func putJSON(t *testing.T, url string, payload string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHandleUpdate(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")
	created := createFeed(t, ts, validFields())

	resp := putJSON(t, ts.URL+"/feed",
		fmt.Sprintf(`{"id": %d, "content": "actually mediocre", "score": 2}`, created.ID))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "success", env.Message)

	var updated model.Feed
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "actually mediocre", updated.Content)
	assert.Equal(t, 2, updated.Score)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.FilePath, updated.FilePath)
}

func TestHandleUpdate_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := putJSON(t, ts.URL+"/feed", `{"id": 999, "content": "x", "score": 1}`)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "404", env.Code)
	assert.Equal(t, "null", string(env.Data))
}

func TestHandleUpdate_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	resp := putJSON(t, ts.URL+"/feed", `{"id": `)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "invalid JSON body", env.Message)
}

func TestHandleGetByID(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")
	created := createFeed(t, ts, validFields())

	resp, err := http.Get(fmt.Sprintf("%s/feed/%d", ts.URL, created.ID))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)

	var feed model.Feed
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	assert.Equal(t, created.ID, feed.ID)
	assert.Equal(t, "Kimchi Stew", feed.Title)
}

func TestHandleGetByID_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/feed/999")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "404", env.Code)
	assert.Equal(t, "feed not found with id 999", env.Message)
	assert.Equal(t, "null", string(env.Data))
}

// A non-numeric id is a clean 400, not a panic or 500.
func TestHandleGetByID_MalformedID(t *testing.T) {
	ts := newTestServer(t)

	for _, raw := range []string{"abc", "-1", "1.5"} {
		resp, err := http.Get(ts.URL + "/feed/" + raw)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "id %q", raw)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "invalid feed id", env.Message, "id %q", raw)
	}
}

func TestHandleListAll(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")
	createFeed(t, ts, validFields())
	second := validFields()
	second["title"] = "Bibimbap"
	createFeed(t, ts, second)

	resp, err := http.Get(ts.URL + "/feed/list")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "success2", env.Message)

	var feeds []model.Feed
	require.NoError(t, json.Unmarshal(env.Data, &feeds))
	assert.Len(t, feeds, 2)
}

func TestHandleListAll_Empty(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/feed/list")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "success0", env.Message)
	assert.Equal(t, "[]", strings.TrimSpace(string(env.Data)))
}

func TestHandleListByUser(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedUser(t, "b@x.com")
	ts.seedPlace(t, "P1")
	createFeed(t, ts, validFields())
	other := validFields()
	other["userEmail"] = "b@x.com"
	createFeed(t, ts, other)

	resp, err := http.Get(ts.URL + "/feed/list/" + url.PathEscape("a@x.com"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "success1", env.Message)

	var feeds []model.Feed
	require.NoError(t, json.Unmarshal(env.Data, &feeds))
	require.Len(t, feeds, 1)
	assert.Equal(t, "a@x.com", feeds[0].UserEmail)
}

// Read endpoints keep the usual 404 for a missing user.
func TestHandleListByUser_UnknownUser(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/feed/list/" + url.PathEscape("ghost@x.com"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "user not found with id ghost@x.com", env.Message)
}

func TestHandleListTitlesByUser(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")
	for _, title := range []string{"Kimchi Stew", "Kimchi Stew", "Bibimbap"} {
		fields := validFields()
		fields["title"] = title
		createFeed(t, ts, fields)
	}

	resp, err := http.Get(ts.URL + "/feed/titles/" + url.PathEscape("a@x.com"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "success3", env.Message)

	var titles []string
	require.NoError(t, json.Unmarshal(env.Data, &titles))
	assert.Len(t, titles, 3)
}

func TestHandleListByUserAndTitle(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")
	createFeed(t, ts, validFields())
	deluxe := validFields()
	deluxe["title"] = "Kimchi Stew Deluxe"
	createFeed(t, ts, deluxe)

	target := fmt.Sprintf("%s/feed/list/%s/%s/", ts.URL,
		url.PathEscape("a@x.com"), url.PathEscape("Kimchi Stew"))
	resp, err := http.Get(target)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "success1", env.Message)

	var feeds []model.Feed
	require.NoError(t, json.Unmarshal(env.Data, &feeds))
	require.Len(t, feeds, 1)
	assert.Equal(t, "Kimchi Stew", feeds[0].Title)
}

func TestHandleDelete(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "a@x.com")
	ts.seedPlace(t, "P1")
	created := createFeed(t, ts, validFields())

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/feed/%d", ts.URL, created.ID), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "success", env.Message)

	// The removed record comes back as confirmation.
	var deleted model.Feed
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, created.Title, deleted.Title)

	// And it is really gone.
	getResp, err := http.Get(fmt.Sprintf("%s/feed/%d", ts.URL, created.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestHandleDelete_NotFound(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/feed/999", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "feed not found with id 999", env.Message)
}
