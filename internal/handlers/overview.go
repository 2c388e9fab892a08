package handlers

import (
	"net/http"

	"github.com/diewo77/go-freelance/httpx"
	"github.com/diewo77/go-freelance/internal/services"
)

type OverviewHandler struct {
	overview *services.OverviewService
}

func NewOverviewHandler(overview *services.OverviewService) *OverviewHandler {
	return &OverviewHandler{overview: overview}
}

// Get returns the dashboard figures of the current user.
func (h *OverviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.overview.Get(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}
