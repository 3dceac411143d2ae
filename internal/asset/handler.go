// Package asset stores images dropped onto a canvas so that drop payloads
// can refer to them by URL.
package asset

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/inamate/canvas/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// UploadResponse describes a stored drop file. URL is what clients put in
// the file field of a drop.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// Handler serves drop-file upload and retrieval.
type Handler struct {
	dir    string
	prefix string // URL path the files are served under
}

// NewHandler stores files in dir and serves them under prefix.
func NewHandler(dir, prefix string) (*Handler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir %s: %w", dir, err)
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Handler{dir: dir, prefix: prefix}, nil
}

// Upload handles a multipart form with a "file" field holding a PNG or JPEG.
// Images are re-encoded as PNG.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/png") && !strings.HasPrefix(contentType, "image/jpeg") {
		http.Error(w, "only PNG and JPEG images are supported", http.StatusUnsupportedMediaType)
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}
	bounds := img.Bounds()

	id := typeid.NewAssetID()
	filename := id + ".png"
	if err := h.save(filename, img); err != nil {
		slog.Error("save asset", "error", err, "asset", id)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(UploadResponse{
		ID:     id,
		URL:    h.prefix + filename,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Name:   header.Filename,
	})
}

func (h *Handler) save(filename string, img image.Image) error {
	path := filepath.Join(h.dir, filename)
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("encode png: %w", err)
	}
	return out.Close()
}

// Serve returns a handler for stored files. Ids are never reused, so files
// are cached as immutable.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix(h.prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}
