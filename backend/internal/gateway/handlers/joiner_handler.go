package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"traintrack/backend/internal/gateway/util"
	"traintrack/backend/internal/joiner"
	"traintrack/backend/internal/shared"
)

// JoinerHandler exposes the intake record endpoints (BOA).
type JoinerHandler struct {
	Joiners *joiner.Service
}

// Create handles POST /api/joiners
func (h *JoinerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA); !ok {
		return
	}

	var body struct {
		Name                    string `json:"name"`
		Email                   string `json:"email"`
		CandidatePersonalMailID string `json:"candidate_personal_mail_id"`
		Phone                   string `json:"phone"`
		EmployeeID              string `json:"employeeId"`
		Department              string `json:"department"`
		Role                    string `json:"role"`
		Qualification           string `json:"qualification"`
		JoiningDate             string `json:"joiningDate"`
	}
	if err := util.DecodeBody(r, &body); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	j := &shared.Joiner{
		Name:                    body.Name,
		Email:                   body.Email,
		CandidatePersonalMailID: body.CandidatePersonalMailID,
		Phone:                   body.Phone,
		EmployeeID:              body.EmployeeID,
		Department:              body.Department,
		Role:                    body.Role,
		Qualification:           body.Qualification,
	}
	if d := parseDate(body.JoiningDate); !d.IsZero() {
		j.JoiningDate = &d
	}

	created, err := h.Joiners.Create(r.Context(), j)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, created)
}

// List handles GET /api/joiners
func (h *JoinerHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA, shared.RoleTrainer); !ok {
		return
	}

	joiners, err := h.Joiners.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, joiners)
}

// Get handles GET /api/joiners/{id}
func (h *JoinerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA, shared.RoleTrainer); !ok {
		return
	}

	j, err := h.Joiners.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, j)
}

// Update handles PUT /api/joiners/{id}
func (h *JoinerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA); !ok {
		return
	}

	var updates bson.M
	if err := util.DecodeBody(r, &updates); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	if raw, ok := updates["joiningDate"].(string); ok {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			updates["joiningDate"] = d
		}
	}

	j, err := h.Joiners.Update(r.Context(), chi.URLParam(r, "id"), updates)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, j)
}

// Delete handles DELETE /api/joiners/{id}
func (h *JoinerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA); !ok {
		return
	}

	if err := h.Joiners.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Joiner deleted",
	})
}

// Stats handles GET /api/joiners/stats
func (h *JoinerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA, shared.RoleTrainer); !ok {
		return
	}

	stats, err := h.Joiners.Stats(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, stats)
}
