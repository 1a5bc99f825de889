package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"traintrack/backend/internal/gateway/util"
	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/shared"
)

// UserHandler exposes the merged user directory.
type UserHandler struct {
	Identity *identity.Service
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleTrainer, shared.RoleBOA); !ok {
		return
	}

	q := r.URL.Query()
	filter := &shared.UserFilter{
		Role:       q.Get("role"),
		Email:      q.Get("email"),
		ActiveOnly: q.Get("active") == "true",
		Unassigned: q.Get("unassigned") == "true",
	}

	users, err := h.Identity.ListMerged(r.Context(), filter)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, users)
}

// GetUser handles GET /api/users/{author_id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Identity.FindByAuthorID(r.Context(), chi.URLParam(r, "author_id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, user)
}

// ValidateAuthorID handles POST /api/users/validate-author-id
func (h *UserHandler) ValidateAuthorID(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AuthorID string `json:"author_id"`
	}
	if err := util.DecodeBody(r, &body); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	user, err := h.Identity.FindByAuthorID(r.Context(), body.AuthorID)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user": map[string]interface{}{
			"author_id": user.AuthorID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}
