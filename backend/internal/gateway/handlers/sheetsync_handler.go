package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"traintrack/backend/internal/gateway/util"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
	"traintrack/backend/internal/sheetsync"
)

// SheetSyncHandler exposes the export bridge endpoints (BOA).
type SheetSyncHandler struct {
	Sync *sheetsync.Service
}

// SyncAll handles POST /api/sheets/sync
func (h *SheetSyncHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA); !ok {
		return
	}

	results := h.Sync.SyncAll(r.Context())
	util.WriteJSON(w, http.StatusOK, results)
}

// SyncUsers handles POST /api/sheets/sync/users
func (h *SheetSyncHandler) SyncUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA); !ok {
		return
	}

	res, err := h.Sync.SyncUsers(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, res)
}

// SyncJoiners handles POST /api/sheets/sync/joiners
func (h *SheetSyncHandler) SyncJoiners(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA); !ok {
		return
	}

	res, err := h.Sync.SyncJoiners(r.Context())
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, res)
}

// SyncReports handles POST /api/sheets/sync/reports/{kind}
func (h *SheetSyncHandler) SyncReports(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleBOA); !ok {
		return
	}

	kind, err := report.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	res, err := h.Sync.SyncReports(r.Context(), kind)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, res)
}
