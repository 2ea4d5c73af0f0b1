package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/internal/domain/poster"
)

// PosterDependencies defines the interface for single poster lookups.
type PosterDependencies interface {
	ResolvePoster(ctx context.Context, c poster.Candidate) model.PosterAnswer
}

// PosterHandler resolves one poster on demand.
type PosterHandler struct {
	deps PosterDependencies
}

// NewPosterHandler creates a new poster handler.
func NewPosterHandler(deps PosterDependencies) *PosterHandler {
	return &PosterHandler{deps: deps}
}

// HandlePoster handles GET /posters?id=&title=&year= requests.
// Lookup failures still answer 200 with the placeholder and a warning.
func (h *PosterHandler) HandlePoster(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := poster.Candidate{
		ID:    strings.TrimSpace(q.Get("id")),
		Title: strings.TrimSpace(q.Get("title")),
	}
	if c.Title == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingTitle)
		return
	}
	if raw := strings.TrimSpace(q.Get("year")); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrInvalidYear)
			return
		}
		c.Year = &y
	}
	writeJSON(w, http.StatusOK, h.deps.ResolvePoster(r.Context(), c))
}
