package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"massiliafm/config"
	"massiliafm/core/auth"
	"massiliafm/model"
	"massiliafm/repository"
)

// fakeTrackRepo is an in-memory TrackRepository.
type fakeTrackRepo struct {
	tracks map[int64]*model.Track
	nextID int64
}

func newFakeTrackRepo() *fakeTrackRepo {
	return &fakeTrackRepo{tracks: make(map[int64]*model.Track), nextID: 1}
}

func (r *fakeTrackRepo) Create(track *model.Track) (int64, error) {
	id := r.nextID
	r.nextID++
	cp := *track
	cp.ID = id
	cp.CreatedAt = time.Now()
	r.tracks[id] = &cp
	return id, nil
}

func (r *fakeTrackRepo) GetByID(id int64) (*model.Track, error) {
	t, ok := r.tracks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTrackRepo) ListPublished(limit, offset int) ([]*model.Track, error) {
	var out []*model.Track
	for id := int64(1); id < r.nextID; id++ {
		if t, ok := r.tracks[id]; ok && t.IsPublished {
			out = append(out, t)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTrackRepo) ListByUploader(userID int64) ([]*model.Track, error) {
	var out []*model.Track
	for id := int64(1); id < r.nextID; id++ {
		if t, ok := r.tracks[id]; ok && t.UploadedBy == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTrackRepo) ListAll() ([]*model.Track, error) {
	var out []*model.Track
	for id := int64(1); id < r.nextID; id++ {
		if t, ok := r.tracks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTrackRepo) ListByGenre(genre string) ([]*model.Track, error) {
	var out []*model.Track
	for id := int64(1); id < r.nextID; id++ {
		if t, ok := r.tracks[id]; ok && t.IsPublished && t.Genre.String == genre {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTrackRepo) Update(id int64, patch repository.TrackUpdate) error {
	t, ok := r.tracks[id]
	if !ok {
		return fmt.Errorf("track %d not found", id)
	}
	t.Title = patch.Title
	t.Artist = patch.Artist
	t.Genre = patch.Genre
	t.DurationLabel = patch.DurationLabel
	t.SoundcloudURL = patch.SoundcloudURL
	return nil
}

func (r *fakeTrackRepo) SetPublished(id int64, published bool) error {
	t, ok := r.tracks[id]
	if !ok {
		return fmt.Errorf("track %d not found", id)
	}
	t.IsPublished = published
	return nil
}

func (r *fakeTrackRepo) Delete(id int64) error {
	delete(r.tracks, id)
	return nil
}

func (r *fakeTrackRepo) ListGenres() ([]*model.GenreSummary, error) {
	counts := make(map[string]int)
	for _, t := range r.tracks {
		if t.IsPublished && t.Genre.Valid {
			counts[t.Genre.String]++
		}
	}
	var out []*model.GenreSummary
	for genre, n := range counts {
		out = append(out, &model.GenreSummary{Genre: genre, TrackCount: n})
	}
	return out, nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(user *model.User) (int64, error) {
	key := strings.ToLower(user.Email)
	if _, ok := r.users[key]; ok {
		return 0, repository.ErrDuplicateUser
	}
	user.ID = int64(len(r.users) + 1)
	r.users[key] = user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(id int64) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*model.User, error) {
	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func testConfig() *config.Config {
	return &config.Config{
		PublicPageLimit: 200,
		PublicPageCap:   500,
		MinioBucket:     "massilia",
		MaxUploadBytes:  1 << 20,
	}
}

func newTestHandler(t *testing.T) (*APIHandler, *fakeTrackRepo, *fakeUserRepo) {
	t.Helper()
	tracks := newFakeTrackRepo()
	users := newFakeUserRepo()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	h := NewAPIHandler(tracks, users, nil, nil, nil, tokens, testConfig())
	return h, tracks, users
}

func addUser(t *testing.T, users *fakeUserRepo, email, password, role string, active bool) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &model.User{Email: email, Name: email, PasswordHash: hash, Role: role, IsActive: active}
	_, err = users.Create(u)
	require.NoError(t, err)
	return u
}

func addTrack(repo *fakeTrackRepo, title, genre string, uploader int64, published bool) *model.Track {
	track := &model.Track{
		Title:       title,
		Artist:      "DJ Test",
		Genre:       sql.NullString{String: genre, Valid: genre != ""},
		AudioURL:    "https://media.test/massilia/audio/" + strings.ToLower(title) + ".mp3",
		IsPublished: published,
		UploadedBy:  uploader,
	}
	id, _ := repo.Create(track)
	track.ID = id
	return track
}

// newTestRouter mirrors the production route table for the handlers
// under test.
func newTestRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/tracks/public", h.PublicTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/radios", h.RadiosHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/genres", h.GenresHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/dj/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/dj/tracks", h.AuthMiddleware(h.GetDJTracksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/dj/tracks", h.AuthMiddleware(h.CreateTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/dj/tracks/{id}", h.AuthMiddleware(h.UpdateTrackHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/dj/tracks/{id}", h.AuthMiddleware(h.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/dj/tracks/{id}/publish",
		h.AuthMiddleware(h.RequireAdmin(h.TogglePublishHandler))).Methods(http.MethodPost)
	return router
}

func login(t *testing.T, router *mux.Router, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(LoginRequest{Email: email, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/dj/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func doJSON(router *mux.Router, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginSucceeds(t *testing.T) {
	h, _, users := newTestHandler(t)
	addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	router := newTestRouter(h)

	token := login(t, router, "dj@massiliaradio.com", "dj123")
	assert.NotEmpty(t, token)
}

func TestLoginIsCaseInsensitiveOnEmail(t *testing.T) {
	h, _, users := newTestHandler(t)
	addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	router := newTestRouter(h)

	login(t, router, "DJ@MassiliaRadio.COM", "dj123")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h, _, users := newTestHandler(t)
	addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	router := newTestRouter(h)

	body, _ := json.Marshal(LoginRequest{Email: "dj@massiliaradio.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/dj/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	h, _, users := newTestHandler(t)
	addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, false)
	router := newTestRouter(h)

	body, _ := json.Marshal(LoginRequest{Email: "dj@massiliaradio.com", Password: "dj123"})
	req := httptest.NewRequest(http.MethodPost, "/api/dj/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDJTracksRequireAuth(t *testing.T) {
	h, _, _ := newTestHandler(t)
	router := newTestRouter(h)

	rec := doJSON(router, http.MethodGet, "/api/dj/tracks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDJSeesOnlyOwnTracks(t *testing.T) {
	h, tracks, users := newTestHandler(t)
	dj := addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	other := addUser(t, users, "other@massiliaradio.com", "dj123", model.RoleDJ, true)
	addTrack(tracks, "Mine", "House", dj.ID, true)
	addTrack(tracks, "Theirs", "Techno", other.ID, true)
	router := newTestRouter(h)

	token := login(t, router, "dj@massiliaradio.com", "dj123")
	rec := doJSON(router, http.MethodGet, "/api/dj/tracks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tracks []model.TrackView `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tracks, 1)
	assert.Equal(t, "Mine", resp.Tracks[0].Title)
}

func TestAdminSeesAllTracks(t *testing.T) {
	h, tracks, users := newTestHandler(t)
	addUser(t, users, "admin@massiliaradio.com", "admin123", model.RoleAdmin, true)
	dj := addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	addTrack(tracks, "Mine", "House", dj.ID, true)
	addTrack(tracks, "Theirs", "Techno", dj.ID, false)
	router := newTestRouter(h)

	token := login(t, router, "admin@massiliaradio.com", "admin123")
	rec := doJSON(router, http.MethodGet, "/api/dj/tracks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tracks []model.TrackView `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Tracks, 2)
}

func TestCreateTrackStartsUnpublished(t *testing.T) {
	h, tracks, users := newTestHandler(t)
	addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	router := newTestRouter(h)
	token := login(t, router, "dj@massiliaradio.com", "dj123")

	rec := doJSON(router, http.MethodPost, "/api/dj/tracks", token, TrackRequest{
		Title:    "Summer Vibes",
		Artist:   "DJ Test",
		Genre:    "House",
		AudioURL: "https://media.test/massilia/audio/summer.mp3",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	stored, err := tracks.GetByID(1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.IsPublished)
}

func TestCreateTrackRequiresAudioURL(t *testing.T) {
	h, _, users := newTestHandler(t)
	addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	router := newTestRouter(h)
	token := login(t, router, "dj@massiliaradio.com", "dj123")

	rec := doJSON(router, http.MethodPost, "/api/dj/tracks", token, TrackRequest{
		Title:  "Summer Vibes",
		Artist: "DJ Test",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishToggleIsAdminOnly(t *testing.T) {
	h, tracks, users := newTestHandler(t)
	addUser(t, users, "admin@massiliaradio.com", "admin123", model.RoleAdmin, true)
	dj := addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	track := addTrack(tracks, "Summer Vibes", "House", dj.ID, false)
	router := newTestRouter(h)

	djToken := login(t, router, "dj@massiliaradio.com", "dj123")
	rec := doJSON(router, http.MethodPost, fmt.Sprintf("/api/dj/tracks/%d/publish", track.ID), djToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := login(t, router, "admin@massiliaradio.com", "admin123")
	rec = doJSON(router, http.MethodPost, fmt.Sprintf("/api/dj/tracks/%d/publish", track.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, _ := tracks.GetByID(track.ID)
	assert.True(t, stored.IsPublished)
}

func TestUpdateRejectsForeignTrack(t *testing.T) {
	h, tracks, users := newTestHandler(t)
	addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	other := addUser(t, users, "other@massiliaradio.com", "dj123", model.RoleDJ, true)
	track := addTrack(tracks, "Theirs", "Techno", other.ID, true)
	router := newTestRouter(h)
	token := login(t, router, "dj@massiliaradio.com", "dj123")

	rec := doJSON(router, http.MethodPut, fmt.Sprintf("/api/dj/tracks/%d", track.ID), token, TrackRequest{
		Title:  "Hijacked",
		Artist: "Me",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminUpdatesAnyTrack(t *testing.T) {
	h, tracks, users := newTestHandler(t)
	addUser(t, users, "admin@massiliaradio.com", "admin123", model.RoleAdmin, true)
	dj := addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	track := addTrack(tracks, "Summer Vibes", "House", dj.ID, true)
	router := newTestRouter(h)
	token := login(t, router, "admin@massiliaradio.com", "admin123")

	rec := doJSON(router, http.MethodPut, fmt.Sprintf("/api/dj/tracks/%d", track.ID), token, TrackRequest{
		Title:  "Summer Vibes (Edit)",
		Artist: "DJ Test",
		Genre:  "Deep House",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, _ := tracks.GetByID(track.ID)
	assert.Equal(t, "Summer Vibes (Edit)", stored.Title)
	assert.Equal(t, "Deep House", stored.Genre.String)
}

func TestPublicTracksOnlyListsPublished(t *testing.T) {
	h, tracks, users := newTestHandler(t)
	dj := addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	addTrack(tracks, "Published", "House", dj.ID, true)
	addTrack(tracks, "Draft", "House", dj.ID, false)
	router := newTestRouter(h)

	rec := doJSON(router, http.MethodGet, "/api/tracks/public", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tracks []model.TrackView `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tracks, 1)
	assert.Equal(t, "Published", resp.Tracks[0].Title)
}

func TestPublicTracksCapsLimit(t *testing.T) {
	h, tracks, users := newTestHandler(t)
	h.cfg.PublicPageCap = 3
	dj := addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	for i := 0; i < 5; i++ {
		addTrack(tracks, fmt.Sprintf("Track %d", i), "House", dj.ID, true)
	}
	router := newTestRouter(h)

	rec := doJSON(router, http.MethodGet, "/api/tracks/public?limit=100", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tracks []model.TrackView `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Tracks, 3)
}

func TestRadiosFiltersByGenre(t *testing.T) {
	h, tracks, users := newTestHandler(t)
	dj := addUser(t, users, "dj@massiliaradio.com", "dj123", model.RoleDJ, true)
	addTrack(tracks, "House Track", "House", dj.ID, true)
	addTrack(tracks, "Techno Track", "Techno", dj.ID, true)
	router := newTestRouter(h)

	rec := doJSON(router, http.MethodGet, "/api/radios?genre=Techno", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Genre  string            `json:"genre"`
		Tracks []model.TrackView `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Techno", resp.Genre)
	require.Len(t, resp.Tracks, 1)
	assert.Equal(t, "Techno Track", resp.Tracks[0].Title)
}
