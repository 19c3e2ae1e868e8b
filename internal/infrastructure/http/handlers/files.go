package handlers

import (
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FileHandlers serves stored pictures and avatars
type FileHandlers struct {
	base
	storage outbound.StorageService
}

// NewFileHandlers creates a new file handlers instance
func NewFileHandlers(storage outbound.StorageService, logger *zap.Logger) *FileHandlers {
	return &FileHandlers{
		base:    base{logger: logger},
		storage: storage,
	}
}

// Pictures handles GET /pictures/*
func (h *FileHandlers) Pictures(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "pictures")
}

// Avatars handles GET /avatars/*
func (h *FileHandlers) Avatars(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "avatars")
}

func (h *FileHandlers) serve(w http.ResponseWriter, r *http.Request, area string) {
	rest := chi.URLParam(r, "*")
	if rest == "" || strings.Contains(rest, "..") {
		h.writeError(w, r, errors.NewNotFoundError("file"))
		return
	}
	key := path.Join(area, rest)

	rc, err := h.storage.Open(r.Context(), key)
	if err != nil {
		if stderrors.Is(err, outbound.ErrObjectNotFound) {
			h.writeError(w, r, errors.NewNotFoundError("file"))
			return
		}
		h.writeError(w, r, errors.NewStorageError("open "+key, err))
		return
	}
	defer rc.Close()

	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if seeker, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, path.Base(key), time.Time{}, seeker)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Failed to stream file", zap.String("key", key), zap.Error(err))
	}
}
