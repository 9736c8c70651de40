package webui

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/jgarman/placeholder-disk/internal/catalog"
	"github.com/jgarman/placeholder-disk/internal/hfs"
)

// ImageBuilder renders a fresh placeholder image.
type ImageBuilder interface {
	BuildImage() ([]byte, error)
}

// Handler manages HTTP requests for the web UI
type Handler struct {
	builder   ImageBuilder
	disks     []catalog.DiskImage
	imageName string
	templates *template.Template
	logger    *log.Logger
}

// New creates a new web UI handler
func New(builder ImageBuilder, disks []catalog.DiskImage, imageName string, logger *log.Logger) (*Handler, error) {
	// Parse embedded templates
	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Handler{
		builder:   builder,
		disks:     disks,
		imageName: imageName,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// Routes registers the handler's endpoints on a new router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.IndexHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/placeholder.dsk", h.PlaceholderHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/disks", h.DisksHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/health", h.HealthHandler).Methods(http.MethodGet)
	return r
}

type indexData struct {
	ImageName string
	Disks     []catalog.DiskImage
}

// IndexHandler serves the main page
func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := indexData{ImageName: h.imageName, Disks: h.disks}
	if err := h.templates.ExecuteTemplate(w, "index", data); err != nil {
		h.logger.Error("error rendering template", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// PlaceholderHandler renders a new placeholder image and streams it.
func (h *Handler) PlaceholderHandler(w http.ResponseWriter, r *http.Request) {
	image, err := h.builder.BuildImage()
	if err != nil {
		h.logger.Error("error building placeholder image", "err", err)

		// Check for specific error types and provide user-friendly messages
		statusCode := http.StatusInternalServerError
		errorMessage := fmt.Sprintf("Failed to build image: %v", err)
		if errors.Is(err, hfs.ErrCapacity) {
			statusCode = http.StatusInsufficientStorage
			errorMessage = "Seed files do not fit on the disk image."
		}
		writeJSON(w, statusCode, map[string]any{"success": false, "error": errorMessage})
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.imageName))
	w.Header().Set("Content-Length", strconv.Itoa(len(image)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(image); err != nil {
		h.logger.Warn("error writing image", "err", err)
		return
	}
	h.logger.Info("served placeholder image", "bytes", len(image), "remote", r.RemoteAddr)
}

type disksResponse struct {
	Filter string              `json:"filter,omitempty"`
	Disks  []catalog.DiskImage `json:"disks"`
}

// DisksHandler lists the catalog, narrowed by the optional filter query.
func (h *Handler) DisksHandler(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	writeJSON(w, http.StatusOK, disksResponse{
		Filter: filter,
		Disks:  catalog.Filter(h.disks, filter),
	})
}

// HealthHandler provides a health check endpoint
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"status": "ok"}`)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
