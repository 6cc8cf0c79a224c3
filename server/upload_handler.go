package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"massiliafm/logger"
	"massiliafm/storage"
)

// allowed upload folders, anything else falls back to "audio".
var uploadFolders = map[string]bool{
	"audio":  true,
	"covers": true,
}

// SignedURLRequest asks for a direct-to-bucket upload URL.
type SignedURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder"`
}

// SignedURLHandler hands the browser a time-limited PUT URL so audio
// files never stream through the API server.
func (h *APIHandler) SignedURLHandler(w http.ResponseWriter, r *http.Request) {
	var req SignedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	if req.FileName == "" {
		writeError(w, http.StatusBadRequest, "fileName is required")
		return
	}

	folder := req.Folder
	if !uploadFolders[folder] {
		folder = "audio"
	}

	presigned, err := storage.PresignUpload(r.Context(), h.cfg, folder, req.FileName)
	if err != nil {
		logger.Error("presign failed", logger.ErrorField(err), logger.String("file", req.FileName))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, presigned)
}

// UploadTrackHandler is the server-side upload path for clients that
// cannot PUT to the bucket directly. The audio file arrives as
// multipart form data; embedded ID3 tags fill in whatever metadata the
// form left blank.
//
// Expected form fields:
// - trackFile: the audio file
// - title, artist, genre: metadata overrides (optional)
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("trackFile")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'trackFile' in form")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	artist := strings.TrimSpace(r.FormValue("artist"))
	genre := strings.TrimSpace(r.FormValue("genre"))

	// The file itself often knows more than the form.
	if meta, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		if title == "" {
			title = strings.TrimSpace(meta.Title())
		}
		if artist == "" {
			artist = strings.TrimSpace(meta.Artist())
		}
		if genre == "" {
			genre = strings.TrimSpace(meta.Genre())
		}
	}
	if title == "" {
		title = strings.TrimSuffix(header.Filename, ".mp3")
	}
	if artist == "" {
		artist = "Unknown Artist"
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	objectPath := storage.ObjectName("audio", header.Filename)
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()
	if err := storage.PutObject(ctx, h.cfg, objectPath, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		logger.Error("upload store failed", logger.ErrorField(err), logger.String("object", objectPath))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("track file stored",
		logger.String("object", objectPath),
		logger.String("title", title),
		logger.Int("bytes", len(data)))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"path":      objectPath,
		"publicUrl": storage.PublicURL(h.cfg, objectPath),
		"title":     title,
		"artist":    artist,
		"genre":     genre,
		"fileSize":  len(data),
	})
}
