package handlers

import (
	"net/http"
	"time"

	"traintrack/backend/internal/attendance"
	"traintrack/backend/internal/gateway/util"
	"traintrack/backend/internal/shared"
)

// AttendanceHandler exposes punch and marking endpoints.
type AttendanceHandler struct {
	Attendance *attendance.Service
}

// ClockIn handles POST /api/attendance/clock-in
func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	actor := util.ActorFromContext(r.Context())
	if actor == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var body struct {
		Location string `json:"location"`
	}
	_ = util.DecodeBody(r, &body) // body is optional

	rec, err := h.Attendance.ClockIn(r.Context(), actor.UserID, body.Location, r.RemoteAddr)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, rec)
}

// ClockOut handles POST /api/attendance/clock-out
func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	actor := util.ActorFromContext(r.Context())
	if actor == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var body struct {
		Location string `json:"location"`
	}
	_ = util.DecodeBody(r, &body)

	rec, err := h.Attendance.ClockOut(r.Context(), actor.UserID, body.Location, r.RemoteAddr)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, rec)
}

// History handles GET /api/attendance/history
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	actor := util.ActorFromContext(r.Context())
	if actor == nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := r.URL.Query()
	userID := actor.UserID
	if other := q.Get("user_id"); other != "" && other != actor.UserID {
		// Only staff may read someone else's history.
		if _, ok := util.RequireRole(w, r, shared.RoleTrainer, shared.RoleBOA); !ok {
			return
		}
		userID = other
	}

	from := parseDate(q.Get("from"))
	to := parseDate(q.Get("to"))

	records, err := h.Attendance.History(r.Context(), userID, from, to)
	if err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, records)
}

// Mark handles POST /api/attendance/mark (trainer)
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.RequireRole(w, r, shared.RoleTrainer, shared.RoleBOA)
	if !ok {
		return
	}

	var body struct {
		AuthorID string `json:"author_id"`
		Date     string `json:"date"`
		Status   string `json:"status"`
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

	if err := h.Attendance.MarkTrainee(r.Context(), actor.UserID, body.AuthorID, date, body.Status); err != nil {
		util.HandleServiceError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Attendance marked",
	})
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
