package handlers

import (
	"net/http"

	"traintrack/backend/internal/auth"
	"traintrack/backend/internal/gateway/util"
	"traintrack/backend/internal/shared"
)

// AuthHandler exposes login and account management endpoints.
type AuthHandler struct {
	Auth *auth.Service
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := util.DecodeBody(r, &body); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	user, token, err := h.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		// Credential failures map to 401, not 400.
		if shared.KindOf(err) == shared.KindValidation {
			util.WriteJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// Register handles POST /api/auth/register (admin only)
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleAdmin); !ok {
		return
	}

	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		AuthorID string `json:"author_id"`
		Phone    string `json:"phone"`
	}
	if err := util.DecodeBody(r, &body); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	user := &shared.User{
		Name:     body.Name,
		Email:    body.Email,
		Role:     body.Role,
		AuthorID: body.AuthorID,
		Phone:    body.Phone,
	}
	created, err := h.Auth.Register(r.Context(), user, body.Password)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, created)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := util.ActorFromContext(r.Context())
	if actor == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	util.WriteJSON(w, http.StatusOK, actor)
}
