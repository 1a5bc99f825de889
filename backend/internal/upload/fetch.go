// ============================================================================
// backend/internal/upload/fetch.go
// Remote spreadsheet row fetching (Apps Script web app endpoint)
// ============================================================================

package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"traintrack/backend/internal/shared"
)

// Fetcher retrieves candidate report rows from a remote spreadsheet source.
type Fetcher interface {
	FetchRows(ctx context.Context, url string) ([]bson.M, error)
}

// HTTPFetcher fetches rows from an Apps Script JSON endpoint. The endpoint
// responds in one of three shapes: {success, data: [...]}, a bare array, or
// a map of sheet name to row array. An HTML body means the deployment URL is
// wrong, which is a caller configuration problem, not transient.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a new HTTPFetcher instance
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// FetchRows downloads and normalizes the remote row set.
func (f *HTTPFetcher) FetchRows(ctx context.Context, url string) ([]bson.M, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, shared.Validationf("invalid sheet URL: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, shared.UpstreamFormatf("failed to fetch sheet data: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, shared.UpstreamFormatf("failed to read sheet response: %v", err)
	}

	if strings.Contains(string(body), "<!DOCTYPE html") {
		return nil, shared.UpstreamFormatf("sheet URL returned HTML instead of JSON; check the Apps Script deployment")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, shared.UpstreamFormatf("sheet endpoint returned status %d", resp.StatusCode)
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, shared.UpstreamFormatf("sheet response is not valid JSON: %v", err)
	}

	return DecodeRows(payload)
}

// DecodeRows normalizes any of the three accepted response shapes into a
// flat row list.
func DecodeRows(payload interface{}) ([]bson.M, error) {
	switch v := payload.(type) {
	case []interface{}:
		return rowsFromArray(v)
	case map[string]interface{}:
		if data, ok := v["data"].([]interface{}); ok {
			return rowsFromArray(data)
		}
		// Map of sheet name to row array. Sheet order is made deterministic
		// by sorting the names.
		names := make([]string, 0, len(v))
		for name := range v {
			if _, ok := v[name].([]interface{}); ok {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			return nil, shared.UpstreamFormatf("sheet response holds no row arrays")
		}
		sort.Strings(names)
		var rows []bson.M
		for _, name := range names {
			chunk, err := rowsFromArray(v[name].([]interface{}))
			if err != nil {
				return nil, err
			}
			rows = append(rows, chunk...)
		}
		return rows, nil
	default:
		return nil, shared.UpstreamFormatf("unexpected sheet response type %T", payload)
	}
}

func rowsFromArray(items []interface{}) ([]bson.M, error) {
	rows := make([]bson.M, 0, len(items))
	for i, item := range items {
		row, err := shared.GetMap(item)
		if err != nil {
			return nil, shared.UpstreamFormatf("row %d is not an object: %v", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
