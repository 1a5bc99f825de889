package sheetsync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
)

func TestUserGrid(t *testing.T) {
	joined := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	users := []shared.User{
		{AuthorID: "a1", Name: "Alice", Email: "alice@example.com", Role: shared.RoleTrainee, PhoneNumber: "999", JoiningDate: &joined, IsActive: true},
	}

	grid := UserGrid(users)
	if grid.SheetName != "Users" {
		t.Errorf("SheetName = %q", grid.SheetName)
	}
	if len(grid.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(grid.Rows))
	}
	row := grid.Rows[0]
	if len(row) != len(grid.Headers) {
		t.Errorf("row width %d != header width %d", len(row), len(grid.Headers))
	}
	if row[4] != "999" {
		t.Errorf("phone cell = %q, want legacy spelling value", row[4])
	}
	if row[7] != "2025-03-03" {
		t.Errorf("joining date cell = %q", row[7])
	}
	if row[8] != "yes" {
		t.Errorf("active cell = %q", row[8])
	}
}

func TestReportGridEncodesPayload(t *testing.T) {
	recs := []shared.ReportRecord{
		{
			AuthorID:   "a1",
			ReportData: bson.M{"Daily Quiz counts": bson.M{"Topic1": 4}},
			UploadedBy: "boa-1",
			UploadedAt: time.Now(),
		},
	}

	grid := ReportGrid(report.KindLearning, recs)
	if grid.SheetName != "LearningReports" {
		t.Errorf("SheetName = %q", grid.SheetName)
	}
	cell := grid.Rows[0][4]
	if !strings.Contains(cell, "Daily Quiz counts") {
		t.Errorf("payload cell %q does not carry the report data", cell)
	}
}

func TestWebhookWriter(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		got = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	writer := NewWebhookWriter(server.URL, 5*time.Second)
	grid := &Grid{SheetName: "Users", Headers: []string{"Name"}, Rows: [][]string{{"Alice"}}}

	if err := writer.WriteGrid(context.Background(), grid); err != nil {
		t.Fatalf("WriteGrid failed: %v", err)
	}
	if !strings.Contains(got, `"sheetName":"Users"`) || !strings.Contains(got, `"clearFirst":true`) {
		t.Errorf("posted body missing fields: %s", got)
	}
}

func TestWebhookWriterErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	writer := NewWebhookWriter(server.URL, 5*time.Second)
	err := writer.WriteGrid(context.Background(), &Grid{SheetName: "Users"})
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
	if shared.KindOf(err) != shared.KindUpstreamFormat {
		t.Errorf("error kind = %v, want KindUpstreamFormat", shared.KindOf(err))
	}

	unconfigured := NewWebhookWriter("", 5*time.Second)
	if err := unconfigured.WriteGrid(context.Background(), &Grid{}); shared.KindOf(err) != shared.KindValidation {
		t.Errorf("unconfigured writer error kind = %v, want KindValidation", shared.KindOf(err))
	}
}
