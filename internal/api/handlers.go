package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/ai"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/interchange"
	"github.com/starford/raido/internal/linkservice"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/query"
)

// Handler holds API route handlers.
type Handler struct {
	svc        *linkservice.Service
	summarizer ai.Summarizer
	related    ai.RelatedFinder
}

// NewHandler creates a new Handler. summarizer and related may be nil when
// no AI provider is configured; the matching endpoints then report the
// feature as unavailable.
func NewHandler(svc *linkservice.Service, summarizer ai.Summarizer, related ai.RelatedFinder) *Handler {
	return &Handler{svc: svc, summarizer: summarizer, related: related}
}

// ListLinks handles GET /api/links.
// Query parameters: q (scoped tokens + free text), topic/status/priority
// (repeatable multi-select codes), sort (default|title|priority), page, size.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))

	sel := query.Selection{
		Topics:     q["topic"],
		Statuses:   q["status"],
		Priorities: q["priority"],
	}
	res := h.svc.List(r.Context(), q.Get("q"), sel, q.Get("sort"), page, size)
	writeJSON(w, http.StatusOK, LinkListResponse{Links: res.Links, Total: res.Total, Page: res.Page})
}

// GetLink handles GET /api/links/{id}.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	link, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get link failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// CreateLink handles POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	h.saveLink(w, r, "")
}

// UpdateLink handles PUT /api/links/{id}.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	h.saveLink(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) saveLink(w http.ResponseWriter, r *http.Request, id string) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req SaveLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if id != "" {
		req.ID = id
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	status := http.StatusCreated
	if req.ID != "" {
		if _, err := h.svc.Get(r.Context(), req.ID); err == nil {
			status = http.StatusOK
		}
	}

	link, err := h.svc.Save(r.Context(), req.link())
	if err != nil {
		slog.Error("save link failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody("could not save link"))
		return
	}
	writeJSON(w, status, link)
}

// DeleteLink handles DELETE /api/links/{id}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete link failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchUpdate handles POST /api/links/batch.
func (h *Handler) BatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req BatchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	n := h.svc.BatchUpdate(r.Context(), req.IDs, req.Status, req.Priority)
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// GetDictionaries handles GET /api/dictionaries. The extension uses this as
// its taxonomy snapshot.
func (h *Handler) GetDictionaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Dictionaries(r.Context()))
}

// PutDictionaries handles PUT /api/dictionaries.
func (h *Handler) PutDictionaries(w http.ResponseWriter, r *http.Request) {
	var d models.Dictionaries
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.UpdateDictionaries(r.Context(), &d); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			writeJSON(w, http.StatusConflict, errorBody(err.Error()))
			return
		}
		slog.Error("update dictionaries failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Dictionaries(r.Context()))
}

// Export handles GET /api/export: the whole collection as a CSV download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := h.svc.Export(r.Context(), &buf)
	if err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("export failed"))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+interchange.ExportFilename(time.Now())+`"`)
	w.Header().Set("X-Export-Count", strconv.Itoa(n))
	_, _ = w.Write(buf.Bytes())
}

// Import handles POST /api/import (multipart form, field "file").
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 20<<20)
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	imported, skipped, err := h.svc.Import(r.Context(), file)
	if err != nil {
		if errors.Is(err, apperr.ErrImportParse) {
			writeJSON(w, http.StatusBadRequest, errorBody("could not read the import file; check the CSV format"))
			return
		}
		slog.Error("import failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("import failed"))
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: imported, Skipped: skipped})
}

// Summarize handles POST /api/summarize: asks the AI boundary to describe a
// URL for form pre-fill. Failures never corrupt any link; the client just
// gets a generic message.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	if h.summarizer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("summarization is not configured"))
		return
	}
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	sum, err := h.summarizer.Summarize(r.Context(), req.URL)
	if err != nil {
		slog.Warn("summarize failed", slog.String("url", req.URL), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("could not fetch a summary for this URL"))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Related handles GET /api/links/{id}/related: AI-suggested related links.
// An empty list is a valid answer and never treated as authoritative.
func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	if h.related == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("related-link suggestions are not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	source, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	candidates := h.svc.Links(r.Context())
	ids, err := h.related.FindRelated(r.Context(), *source, candidates)
	if err != nil {
		slog.Warn("find related failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("could not compute related links"))
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"relatedLinkIds": ids})
}
