package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"traintrack/backend/internal/gateway/util"
	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/performance"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
	"traintrack/backend/internal/upload"
)

// ReportHandler exposes bulk upload, single-report maintenance, and the
// performance dashboard reads.
type ReportHandler struct {
	Uploader    *upload.Coordinator
	Store       *report.Store
	Identity    *identity.Service
	Performance *performance.Service
}

// BulkUpload handles POST /api/candidate-reports/bulk-upload (BOA)
func (h *ReportHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.RequireRole(w, r, shared.RoleBOA)
	if !ok {
		return
	}

	var req upload.Request
	if err := util.DecodeBody(r, &req); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	result, err := h.Uploader.Run(r.Context(), actor.UserID, &req)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"createdCount":     result.CreatedCount,
		"updatedCount":     result.UpdatedCount,
		"skippedCount":     result.SkippedCount,
		"errors":           result.Errors,
		"processedReports": result.Processed,
	})
}

// GetCandidate handles GET /api/candidate-reports/{author_id}
func (h *ReportHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	view, err := h.Performance.CandidateView(r.Context(), chi.URLParam(r, "author_id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, view)
}

// GetReport handles GET /api/candidate-reports/{author_id}/{kind}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	kind, err := report.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	rec, err := h.Store.Get(r.Context(), kind, chi.URLParam(r, "author_id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	data := rec.ReportData
	if kind == report.KindLearning {
		if m, err := shared.GetMap(data); err == nil {
			data = report.ToCanonical(m)
		}
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"author_id":     rec.AuthorID,
		"reportData":    data,
		"uploadedAt":    rec.UploadedAt,
		"lastUpdatedAt": rec.LastUpdatedAt,
	})
}

// UpdateReport handles PUT /api/candidate-reports/{author_id}/{kind}
func (h *ReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.RequireRole(w, r, shared.RoleBOA, shared.RoleTrainer)
	if !ok {
		return
	}

	kind, err := report.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	var body struct {
		ReportData interface{} `json:"reportData"`
	}
	if err := util.DecodeBody(r, &body); err != nil {
		util.HandleServiceError(w, err)
		return
	}

	// Interactions payloads may be an array of entries; every other kind
	// must be an object.
	data, err := report.NormalizePayload(kind, body.ReportData)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	if report.EmptyPayload(data) {
		util.WriteJSONError(w, http.StatusBadRequest, "reportData is required")
		return
	}

	user, err := h.Identity.FindByAuthorID(r.Context(), chi.URLParam(r, "author_id"))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}

	if kind == report.KindLearning {
		data = report.ToCanonical(data.(bson.M))
	}

	err = h.Store.Upsert(r.Context(), kind, &shared.ReportRecord{
		AuthorID:   user.AuthorID,
		User:       &user.ID,
		ReportData: data,
		UploadedBy: actor.UserID,
	})
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Report updated",
	})
}

// ListCandidates handles GET /api/performers
func (h *ReportHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleTrainer, shared.RoleBOA); !ok {
		return
	}

	q := r.URL.Query()
	opts := &performance.ListOptions{
		Phase:    q.Get("phase"),
		MinScore: intQuery(q.Get("min_score")),
		MaxScore: intQuery(q.Get("max_score")),
		Limit:    intQuery(q.Get("limit")),
	}

	views, err := h.Performance.AllCandidates(r.Context(), opts)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, views)
}

// TopPerformers handles GET /api/performers/top
func (h *ReportHandler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleTrainer, shared.RoleBOA); !ok {
		return
	}

	views, err := h.Performance.TopPerformers(r.Context(), intQuery(r.URL.Query().Get("limit")))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, views)
}

// LowPerformers handles GET /api/performers/low
func (h *ReportHandler) LowPerformers(w http.ResponseWriter, r *http.Request) {
	if _, ok := util.RequireRole(w, r, shared.RoleTrainer, shared.RoleBOA); !ok {
		return
	}

	q := r.URL.Query()
	views, err := h.Performance.LowPerformers(r.Context(), intQuery(q.Get("threshold")), intQuery(q.Get("limit")))
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, views)
}

func intQuery(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
