package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"traintrack/backend/internal/gateway/util"
	"traintrack/backend/internal/grooming"
	"traintrack/backend/internal/shared"
)

// GroomingHandler exposes grooming observation endpoints.
type GroomingHandler struct {
	Grooming *grooming.Service
}

// Mark handles POST /api/grooming/mark (trainer)
func (h *GroomingHandler) Mark(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.RequireRole(w, r, shared.RoleTrainer, shared.RoleBOA)
	if !ok {
		return
	}

	var body struct {
		AuthorID string      `json:"author_id"`
		Date     string      `json:"date"`
		Entry    interface{} `json:"entry"`
	}
	if err := util.DecodeBody(r, &body); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	date := parseDate(body.Date)
	if date.IsZero() {
		util.WriteJSONError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	data, err := h.Grooming.Mark(r.Context(), actor.UserID, body.AuthorID, date, body.Entry)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, data)
}

// GetReport handles GET /api/grooming/{author_id}
func (h *GroomingHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	data, err := h.Grooming.Report(r.Context(), chi.URLParam(r, "author_id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, data)
}
