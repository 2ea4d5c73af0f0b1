package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/marquee/internal/domain/failure"
	"github.com/okian/marquee/internal/domain/model"
)

// RecommendDependencies defines the interface for recommendation operations.
type RecommendDependencies interface {
	Titles() []string
	Recommend(ctx context.Context, title string) (model.Recommendations, error)
}

// RecommendHandler serves the catalog and recommendations.
type RecommendHandler struct {
	deps RecommendDependencies
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(deps RecommendDependencies) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

type moviesResponse struct {
	Titles []string `json:"titles"`
	Count  int      `json:"count"`
}

// HandleMovies handles GET /movies requests.
func (h *RecommendHandler) HandleMovies(w http.ResponseWriter, _ *http.Request) {
	titles := h.deps.Titles()
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, moviesResponse{Titles: titles, Count: len(titles)})
}

// HandleRecommendations handles GET /recommendations?title= requests.
// An unknown title answers 404 with the empty result and its warning.
func (h *RecommendHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingTitle)
		return
	}

	res, err := h.deps.Recommend(r.Context(), title)
	if err != nil {
		if failure.KindOf(err) == failure.KindNotFound {
			writeJSON(w, http.StatusNotFound, res)
			return
		}
		status, code := statusFor(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
