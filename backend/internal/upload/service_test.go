package upload

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
)

func TestValidateSelector(t *testing.T) {
	tests := []struct {
		name     string
		dataSets []string
		wantErr  bool
		wantKind report.Kind
	}{
		{"learning sub-sheet", []string{"DailyQuizReports"}, false, report.KindLearning},
		{"attendance sheet", []string{"AttendanceReports"}, false, report.KindAttendance},
		{"grooming sheet", []string{"GroomingReports"}, false, report.KindGrooming},
		{"course completion", []string{"CourseCompletion"}, false, report.KindLearning},
		{"unknown only", []string{"NoSuchSheet"}, true, ""},
		{"empty", nil, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{SpreadsheetName: "Batch1", DataSets: tt.dataSets}
			sel, err := validateSelector(req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected a validation error")
				}
				if shared.KindOf(err) != shared.KindValidation {
					t.Errorf("error kind = %v, want KindValidation", shared.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !sel.kinds[tt.wantKind] {
				t.Errorf("kind %s not selected", tt.wantKind)
			}
		})
	}
}

func TestValidateSelectorRestrictsLearningSheets(t *testing.T) {
	req := &Request{SpreadsheetName: "Batch1", DataSets: []string{"DailyQuizReports", "FortnightScores"}}
	sel, err := validateSelector(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.learningSheets) != 2 {
		t.Errorf("learningSheets = %v, want the two selected sheets", sel.learningSheets)
	}
}

func TestValidateSelectorCourseCompletionDefaultsAllSheets(t *testing.T) {
	req := &Request{SpreadsheetName: "Batch1", DataSets: []string{"CourseCompletion"}}
	sel, err := validateSelector(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.learningSheets) != len(report.SubSheetNames) {
		t.Errorf("learningSheets = %v, want all declared sub-sheets", sel.learningSheets)
	}
}

// TestBuildBatchesArrayInteractions covers the array form of the
// interactions payload: a row whose interactionsReport is a list of entries
// must batch as a create, not fail as a malformed object.
func TestBuildBatchesArrayInteractions(t *testing.T) {
	sel := &selection{kinds: map[report.Kind]bool{report.KindInteractions: true}}
	resolved := map[string]*shared.User{
		"a1": {ID: primitive.NewObjectID(), AuthorID: "a1", Name: "Alice", Email: "alice@example.com"},
	}
	rows := []bson.M{
		{"author_id": "a1", "interactionsReport": []interface{}{
			bson.M{"date": "2026-07-01", "note": "mock interview"},
			bson.M{"date": "2026-07-08", "note": "client call shadowing"},
		}},
	}

	result := &Result{}
	batches := (&Coordinator{}).buildBatches(rows, sel, resolved, "boa-1", result)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	creates := batches[report.KindInteractions].creates
	if len(creates) != 1 {
		t.Fatalf("got %d creates, want 1", len(creates))
	}
	entries, ok := creates[0].ReportData.([]interface{})
	if !ok {
		t.Fatalf("ReportData is %T, want []interface{}", creates[0].ReportData)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
	if len(result.Processed) != 1 || result.Processed[0].AuthorID != "a1" {
		t.Errorf("processed = %v, want the one resolved row", result.Processed)
	}
}

func TestBuildBatchesRejectsScalarPayload(t *testing.T) {
	sel := &selection{kinds: map[report.Kind]bool{report.KindInteractions: true}}
	resolved := map[string]*shared.User{
		"a1": {ID: primitive.NewObjectID(), AuthorID: "a1"},
	}
	rows := []bson.M{{"author_id": "a1", "interactionsReport": "not-a-payload"}}

	result := &Result{}
	batches := (&Coordinator{}).buildBatches(rows, sel, resolved, "boa-1", result)

	if len(batches[report.KindInteractions].creates) != 0 {
		t.Errorf("scalar payload must not batch a create")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Row 1") {
		t.Errorf("errors = %v, want one row 1 error", result.Errors)
	}
}

// TestRunRowFailureIsolation exercises the full coordinator against a real
// database: a batch of three rows where the middle author_id does not
// resolve must commit rows one and three and report exactly one error.
func TestRunRowFailureIsolation(t *testing.T) {
	godotenv.Load("../../../.env")
	if os.Getenv("MONGO_URI") == "" {
		t.Skip("MONGO_URI not set; skipping database test")
	}

	cfg := shared.MongoConfig{
		URI:            os.Getenv("MONGO_URI"),
		Database:       shared.GetEnv("MONGO_TEST_DB_NAME", "traintrack_test"),
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    5,
		MinPoolSize:    1,
		MaxIdleTime:    30 * time.Second,
	}
	client, db, err := shared.ConnectMongoDB(&cfg)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	ctx := context.Background()
	stamp := time.Now().UnixNano()
	idA := fmt.Sprintf("bulk-test-a-%d", stamp)
	idC := fmt.Sprintf("bulk-test-c-%d", stamp)

	usersNew := db.Collection(shared.ColUsersNew)
	for _, id := range []string{idA, idC} {
		_, err := usersNew.InsertOne(ctx, bson.M{
			"author_id": id,
			"name":      "Bulk Test " + id,
			"email":     id + "@example.com",
			"role":      shared.RoleTrainee,
			"isActive":  true,
		})
		if err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}
	}
	defer usersNew.DeleteMany(ctx, bson.M{"author_id": bson.M{"$in": []string{idA, idC}}})
	defer db.Collection(shared.ColLearning).DeleteMany(ctx, bson.M{"author_id": bson.M{"$in": []string{idA, idC}}})

	coordinator := NewCoordinator(identity.NewService(db), report.NewStore(db), NewHTTPFetcher(5*time.Second))

	learning := bson.M{
		"DailyQuizReports": bson.M{"Topic1": bson.M{"Daily Quiz counts": 4}},
	}
	req := &Request{
		SpreadsheetName: "Batch1",
		DataSets:        []string{"DailyQuizReports"},
		Rows: []bson.M{
			{"author_id": idA, "learningReport": learning},
			{"author_id": "no-such-author-" + fmt.Sprint(stamp), "learningReport": learning},
			{"author_id": idC, "learningReport": learning},
		},
	}

	result, err := coordinator.Run(ctx, "tester", req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.CreatedCount+result.UpdatedCount != 2 {
		t.Errorf("created+updated = %d, want 2", result.CreatedCount+result.UpdatedCount)
	}
	if result.SkippedCount != 1 {
		t.Errorf("skipped = %d, want 1", result.SkippedCount)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Row 2") {
		t.Errorf("error %q does not reference row 2", result.Errors[0])
	}
}
