package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"massiliafm/logger"
	"massiliafm/model"
	"massiliafm/repository"
	"massiliafm/storage"
)

// TrackRequest is the body for creating or updating catalog entries.
type TrackRequest struct {
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Genre         string `json:"genre"`
	Duration      string `json:"duration"`
	AudioURL      string `json:"audioUrl"`
	CoverImage    string `json:"coverImage"`
	SoundcloudURL string `json:"soundcloudUrl"`
	FileSize      int64  `json:"fileSize"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func trackViews(tracks []*model.Track) []model.TrackView {
	views := make([]model.TrackView, 0, len(tracks))
	for _, t := range tracks {
		views = append(views, t.View())
	}
	return views
}

// loadTrack resolves the {id} path variable into a catalog row.
func (h *APIHandler) loadTrack(w http.ResponseWriter, r *http.Request) *model.Track {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track id")
		return nil
	}

	track, err := h.trackRepo.GetByID(id)
	if err != nil {
		logger.Error("track lookup failed", logger.ErrorField(err), logger.Int64("track", id))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return nil
	}
	return track
}

// canManage reports whether the authenticated account may modify the
// track. Admins manage everything, DJs only their own uploads.
func canManage(ctx context.Context, track *model.Track) bool {
	role, err := GetRoleFromContext(ctx)
	if err != nil {
		return false
	}
	if role == model.RoleAdmin {
		return true
	}
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return false
	}
	return track.UploadedBy == userID
}

// GetDJTracksHandler lists catalog entries for the management console.
// Admins see every track, DJs only their own.
func (h *APIHandler) GetDJTracksHandler(w http.ResponseWriter, r *http.Request) {
	role, err := GetRoleFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var tracks []*model.Track
	if role == model.RoleAdmin {
		tracks, err = h.trackRepo.ListAll()
	} else {
		var userID int64
		userID, err = GetUserIDFromContext(r.Context())
		if err == nil {
			tracks, err = h.trackRepo.ListByUploader(userID)
		}
	}
	if err != nil {
		logger.Error("track listing failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": trackViews(tracks)})
}

// CreateTrackHandler registers an uploaded file in the catalog. New
// entries always start unpublished.
func (h *APIHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Artist = strings.TrimSpace(req.Artist)
	if req.Title == "" || req.Artist == "" || req.AudioURL == "" {
		writeError(w, http.StatusBadRequest, "Title, artist and audioUrl are required")
		return
	}

	track := &model.Track{
		Title:         req.Title,
		Artist:        req.Artist,
		Genre:         nullString(req.Genre),
		DurationLabel: nullString(req.Duration),
		AudioURL:      req.AudioURL,
		CoverImage:    nullString(req.CoverImage),
		SoundcloudURL: nullString(req.SoundcloudURL),
		FileSize:      sql.NullInt64{Int64: req.FileSize, Valid: req.FileSize > 0},
		IsPublished:   false,
		UploadedBy:    userID,
	}

	id, err := h.trackRepo.Create(track)
	if err != nil {
		logger.Error("track create failed", logger.ErrorField(err), logger.String("title", req.Title))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	track.ID = id

	logger.Info("track created",
		logger.Int64("track", id),
		logger.String("title", track.Title),
		logger.Int64("uploader", userID))

	writeJSON(w, http.StatusCreated, map[string]interface{}{"track": track.View()})
}

// UpdateTrackHandler edits the metadata of a catalog entry.
func (h *APIHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	track := h.loadTrack(w, r)
	if track == nil {
		return
	}
	if !canManage(r.Context(), track) {
		writeError(w, http.StatusForbidden, "Not your track")
		return
	}

	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Artist = strings.TrimSpace(req.Artist)
	if req.Title == "" || req.Artist == "" {
		writeError(w, http.StatusBadRequest, "Title and artist are required")
		return
	}

	patch := repository.TrackUpdate{
		Title:         req.Title,
		Artist:        req.Artist,
		Genre:         nullString(req.Genre),
		DurationLabel: nullString(req.Duration),
		SoundcloudURL: nullString(req.SoundcloudURL),
	}
	if err := h.trackRepo.Update(track.ID, patch); err != nil {
		logger.Error("track update failed", logger.ErrorField(err), logger.Int64("track", track.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	updated, err := h.trackRepo.GetByID(track.ID)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"track": updated.View()})
}

// TogglePublishHandler flips a track's visibility on the public site.
// Admin only; enforced by the route.
func (h *APIHandler) TogglePublishHandler(w http.ResponseWriter, r *http.Request) {
	track := h.loadTrack(w, r)
	if track == nil {
		return
	}

	next := !track.IsPublished
	if err := h.trackRepo.SetPublished(track.ID, next); err != nil {
		logger.Error("publish toggle failed", logger.ErrorField(err), logger.Int64("track", track.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	track.IsPublished = next

	logger.Info("track publish toggled",
		logger.Int64("track", track.ID),
		logger.Bool("published", next))

	writeJSON(w, http.StatusOK, map[string]interface{}{"track": track.View()})
}

// DeleteTrackHandler removes a catalog entry and its stored audio.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	track := h.loadTrack(w, r)
	if track == nil {
		return
	}
	if !canManage(r.Context(), track) {
		writeError(w, http.StatusForbidden, "Not your track")
		return
	}

	if err := h.trackRepo.Delete(track.ID); err != nil {
		logger.Error("track delete failed", logger.ErrorField(err), logger.Int64("track", track.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Object removal is best-effort; the catalog row is already gone.
	if objectPath := storage.ObjectPathFromURL(h.cfg, track.AudioURL); objectPath != "" {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if err := storage.RemoveObject(ctx, h.cfg, objectPath); err != nil {
			logger.Warn("stored audio removal failed",
				logger.ErrorField(err),
				logger.String("object", objectPath))
		}
	}

	logger.Info("track deleted", logger.Int64("track", track.ID))
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": track.ID})
}

// PublicTracksHandler serves the published catalog for visitor surfaces.
func (h *APIHandler) PublicTracksHandler(w http.ResponseWriter, r *http.Request) {
	limit := h.cfg.PublicPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > h.cfg.PublicPageCap {
		limit = h.cfg.PublicPageCap
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}

	tracks, err := h.trackRepo.ListPublished(limit, offset)
	if err != nil {
		logger.Error("public track listing failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": trackViews(tracks)})
}

// RadiosHandler serves the genre browser: published tracks of one
// genre, or the whole published catalog when no genre is given.
func (h *APIHandler) RadiosHandler(w http.ResponseWriter, r *http.Request) {
	genre := strings.TrimSpace(r.URL.Query().Get("genre"))

	var tracks []*model.Track
	var err error
	if genre != "" {
		tracks, err = h.trackRepo.ListByGenre(genre)
	} else {
		tracks, err = h.trackRepo.ListPublished(h.cfg.PublicPageCap, 0)
	}
	if err != nil {
		logger.Error("radio listing failed", logger.ErrorField(err), logger.String("genre", genre))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"genre":  genre,
		"tracks": trackViews(tracks),
	})
}

// GenresHandler lists the published genres with a sample track each.
func (h *APIHandler) GenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.trackRepo.ListGenres()
	if err != nil {
		logger.Error("genre listing failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"genres": genres})
}

// SessionHistoryHandler returns the listen history of one player
// session, newest first.
func (h *APIHandler) SessionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	events, err := h.playEvents.RecentBySession(sessionID, limit)
	if err != nil {
		logger.Error("history lookup failed", logger.ErrorField(err), logger.String("session", sessionID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// SessionDropHandler forgets a persisted player session. The browser
// calls this on "reset player" so a reload starts clean.
func (h *APIHandler) SessionDropHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := h.sessions.DropSession(r.Context(), sessionID); err != nil {
		logger.Error("session drop failed", logger.ErrorField(err), logger.String("session", sessionID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"dropped": sessionID})
}
