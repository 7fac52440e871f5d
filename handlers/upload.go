package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/ontimenews/backend/apperr"
	"github.com/kevinaaaquil/ontimenews/backend/middleware"
	"github.com/kevinaaaquil/ontimenews/backend/service"
	"github.com/rs/zerolog"
)

// imagesPath is where stored images are served from.
const imagesPath = "/images/"

type UploadHandler struct {
	// Images is nil when no bucket is configured.
	Images    ImageStorage
	MaxBytes  int64
	// PublicURL prefixes returned image links, e.g. https://api.example.org.
	PublicURL string
	Log       zerolog.Logger
}

type UploadImageResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// imageURL is the permanent link for an uploaded image.
func imageURL(publicURL, key string) string {
	return strings.TrimSuffix(publicURL, "/") + imagesPath + key
}

// imageKeyFromURL recovers the object key from a link built by imageURL.
// Links to anywhere else report false.
func imageKeyFromURL(publicURL, link string) (string, bool) {
	rest, ok := strings.CutPrefix(link, strings.TrimSuffix(publicURL, "/")+imagesPath)
	if !ok || !service.ValidImageKey(rest) {
		return "", false
	}
	return rest, true
}

// UploadImage stores an article image from the multipart "file" field and
// returns its permanent link. The type is sniffed from the content, not
// taken from the client.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		fail(h.Log, w, r, apperr.Unavailable("image uploads are not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(h.Log, w, r, apperr.Validation("file too large"))
			return
		}
		fail(h.Log, w, r, apperr.Validation("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		fail(h.Log, w, r, apperr.Validation("missing file"))
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		fail(h.Log, w, r, apperr.Validation("empty file"))
		return
	}
	contentType := http.DetectContentType(head[:n])
	if _, ok := service.ImageExtension(contentType); !ok {
		fail(h.Log, w, r, apperr.Validation("file must be a JPEG, PNG, WebP or GIF image"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to read upload", err))
		return
	}

	key, err := h.Images.UploadImage(r.Context(), file, contentType)
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to store image", err))
		return
	}
	h.Log.Info().
		Str("key", key).
		Str("content_type", contentType).
		Str("by", middleware.EmailFromContext(r.Context())).
		Msg("Image uploaded")
	writeJSON(w, http.StatusCreated, UploadImageResponse{Key: key, URL: imageURL(h.PublicURL, key)})
}

// ServeImage streams a stored image. Keys are never reused, so responses
// may be cached indefinitely.
func (h *UploadHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		fail(h.Log, w, r, apperr.Unavailable("image uploads are not configured"))
		return
	}
	key := chi.URLParam(r, "*")
	if !service.ValidImageKey(key) {
		fail(h.Log, w, r, apperr.NotFound("image not found"))
		return
	}
	body, contentType, err := h.Images.GetObject(r.Context(), key)
	if errors.Is(err, service.ErrImageNotFound) {
		fail(h.Log, w, r, apperr.NotFound("image not found"))
		return
	}
	if err != nil {
		fail(h.Log, w, r, apperr.Internal("failed to load image", err))
		return
	}
	defer body.Close()

	if _, ok := service.ImageExtension(contentType); !ok {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, body); err != nil {
		h.Log.Warn().Err(err).Str("key", key).Msg("Image stream interrupted")
	}
}
