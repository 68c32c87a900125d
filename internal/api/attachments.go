package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/linkservice"
	"github.com/starford/raido/internal/models"
)

const (
	attachDir      = "attachments"
	maxUploadBytes = 50 << 20 // 50 MB
)

// AttachmentHandler accepts attachment uploads for links. Byte payloads are
// written under <dataDir>/attachments/<linkID>/; text payloads additionally
// have their content recorded on the link so free-text search can see it.
type AttachmentHandler struct {
	dataDir string
	svc     *linkservice.Service
}

// NewAttachmentHandler creates a handler rooted at the data directory.
func NewAttachmentHandler(dataDir string, svc *linkservice.Service) *AttachmentHandler {
	return &AttachmentHandler{dataDir: dataDir, svc: svc}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the link's directory.
func (h *AttachmentHandler) safeName(linkID, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	base := filepath.Join(h.dataDir, attachDir, linkID)
	abs := filepath.Join(base, cleaned)
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes attachments directory")
	}
	return abs, nil
}

// Upload handles POST /api/links/{id}/attachments (multipart/form-data,
// field "file").
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "id")
	if _, err := h.svc.Get(r.Context(), linkID); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(linkID, header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create attachments dir"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}
	// Atomic write: tmp file, then rename.
	tmp := abs + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	att := models.Attachment{
		Name: header.Filename,
		Type: contentType,
		Size: int64(len(data)),
	}
	if strings.HasPrefix(contentType, "text/") || utf8Text(data) {
		att.TextContent = string(data)
	}

	link, err := h.svc.AttachText(r.Context(), linkID, att)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// utf8Text is a cheap sniff: treat payloads without NUL bytes in the first
// 512 bytes as text so extracted content from .txt/.md/.csv files is
// searchable even when the client sent no content type.
func utf8Text(data []byte) bool {
	n := len(data)
	if n == 0 {
		return false
	}
	if n > 512 {
		n = 512
	}
	for _, b := range data[:n] {
		if b == 0 {
			return false
		}
	}
	return true
}
