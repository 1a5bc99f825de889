package upload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"traintrack/backend/internal/shared"
)

func fetchFrom(t *testing.T, body string, contentType string) ([]interface{}, error) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5 * time.Second)
	rows, err := fetcher.FetchRows(context.Background(), server.URL)
	if err != nil {
		return nil, err
	}

	out := make([]interface{}, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out, nil
}

func TestFetchRowsWrappedShape(t *testing.T) {
	rows, err := fetchFrom(t, `{"success":true,"data":[{"author_id":"a1"},{"author_id":"a2"}]}`, "application/json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestFetchRowsBareArrayShape(t *testing.T) {
	rows, err := fetchFrom(t, `[{"author_id":"a1"}]`, "application/json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
}

func TestFetchRowsSheetMapShape(t *testing.T) {
	body := `{"SheetB":[{"author_id":"b1"}],"SheetA":[{"author_id":"a1"},{"author_id":"a2"}]}`
	rows, err := fetchFrom(t, body, "application/json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d rows, want 3", len(rows))
	}
}

func TestFetchRowsRejectsHTML(t *testing.T) {
	body := "<!DOCTYPE html><html><body>Sign in</body></html>"
	_, err := fetchFrom(t, body, "text/html")
	if err == nil {
		t.Fatal("expected an error for an HTML body")
	}
	if shared.KindOf(err) != shared.KindUpstreamFormat {
		t.Errorf("error kind = %v, want KindUpstreamFormat", shared.KindOf(err))
	}
}

func TestFetchRowsRejectsNonJSON(t *testing.T) {
	_, err := fetchFrom(t, "not json at all", "text/plain")
	if err == nil {
		t.Fatal("expected an error for a non-JSON body")
	}
	if shared.KindOf(err) != shared.KindUpstreamFormat {
		t.Errorf("error kind = %v, want KindUpstreamFormat", shared.KindOf(err))
	}
}

func TestFetchRowsRejectsNonObjectRow(t *testing.T) {
	_, err := fetchFrom(t, `[42]`, "application/json")
	if err == nil {
		t.Fatal("expected an error for a scalar row")
	}
}
