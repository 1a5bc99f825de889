// ============================================================================
// backend/internal/sheetsync/grid.go
// Row-grid builders for the spreadsheet export targets
// ============================================================================

package sheetsync

import (
	"encoding/json"
	"time"

	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
)

// Grid is one sheet's worth of export data.
type Grid struct {
	SheetName string     `json:"sheetName"`
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
}

// UserGrid flattens the merged directory listing.
func UserGrid(users []shared.User) *Grid {
	grid := &Grid{
		SheetName: "Users",
		Headers:   []string{"Author ID", "Name", "Email", "Role", "Phone", "Department", "Employee ID", "Joining Date", "Active"},
	}
	for _, u := range users {
		grid.Rows = append(grid.Rows, []string{
			u.AuthorID,
			u.Name,
			u.Email,
			u.Role,
			u.PhoneValue(),
			u.Department,
			u.EmployeeID,
			formatDate(u.JoinedAt()),
			formatBool(u.IsActive),
		})
	}
	return grid
}

// JoinerGrid flattens the intake records.
func JoinerGrid(joiners []shared.Joiner) *Grid {
	grid := &Grid{
		SheetName: "Joiners",
		Headers:   []string{"Author ID", "Name", "Email", "Personal Email", "Phone", "Employee ID", "Department", "Role", "Status", "Joining Date"},
	}
	for _, j := range joiners {
		grid.Rows = append(grid.Rows, []string{
			j.AuthorID,
			j.Name,
			j.Email,
			j.CandidatePersonalMailID,
			j.Phone,
			j.EmployeeID,
			j.Department,
			j.Role,
			j.Status,
			formatDate(j.JoiningDate),
		})
	}
	return grid
}

// ReportGrid flattens one report collection. The payload travels as a JSON
// cell since its shape is kind-specific.
func ReportGrid(kind report.Kind, recs []shared.ReportRecord) *Grid {
	grid := &Grid{
		SheetName: sheetNameFor(kind),
		Headers:   []string{"Author ID", "Uploaded By", "Uploaded At", "Last Updated At", "Report Data"},
	}
	for _, rec := range recs {
		payload, err := json.Marshal(rec.ReportData)
		if err != nil {
			payload = []byte("{}")
		}
		grid.Rows = append(grid.Rows, []string{
			rec.AuthorID,
			rec.UploadedBy,
			rec.UploadedAt.Format(time.RFC3339),
			rec.LastUpdatedAt.Format(time.RFC3339),
			string(payload),
		})
	}
	return grid
}

func sheetNameFor(kind report.Kind) string {
	switch kind {
	case report.KindLearning:
		return "LearningReports"
	case report.KindAttendance:
		return "AttendanceReports"
	case report.KindGrooming:
		return "GroomingReports"
	case report.KindInteractions:
		return "InteractionsReports"
	default:
		return string(kind)
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
