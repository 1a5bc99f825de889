// ============================================================================
// backend/internal/sheetsync/service.go
// Export bridge: push grids to the Apps Script webhook
// ============================================================================

package sheetsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/joiner"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
)

// SheetWriter delivers one grid to its destination sheet.
type SheetWriter interface {
	WriteGrid(ctx context.Context, grid *Grid) error
}

// WebhookWriter posts grids to the Apps Script web app, which clears the
// target sheet and rewrites it.
type WebhookWriter struct {
	url    string
	client *http.Client
}

// NewWebhookWriter creates a new WebhookWriter instance
func NewWebhookWriter(url string, timeout time.Duration) *WebhookWriter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookWriter{url: url, client: &http.Client{Timeout: timeout}}
}

// WriteGrid sends one grid. Non-2xx responses and HTML bodies surface as
// upstream format errors.
func (w *WebhookWriter) WriteGrid(ctx context.Context, grid *Grid) error {
	if w.url == "" {
		return shared.Validationf("sheets webhook URL is not configured")
	}

	body, err := json.Marshal(struct {
		*Grid
		ClearFirst bool `json:"clearFirst"`
	}{Grid: grid, ClearFirst: true})
	if err != nil {
		return shared.Persistencef(err, "failed to encode grid")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return shared.Validationf("invalid webhook URL: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return shared.UpstreamFormatf("failed to post grid %s: %v", grid.SheetName, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return shared.UpstreamFormatf("webhook returned status %d for sheet %s", resp.StatusCode, grid.SheetName)
	}
	return nil
}

var _ SheetWriter = (*WebhookWriter)(nil)

// TargetResult is the outcome of syncing one export target.
type TargetResult struct {
	Success bool   `json:"success"`
	Rows    int    `json:"rows"`
	Error   string `json:"error,omitempty"`
}

// Service assembles export grids and pushes them through a SheetWriter.
type Service struct {
	identity *identity.Service
	joiners  *joiner.Service
	store    *report.Store
	writer   SheetWriter
}

// NewService creates a new sheetsync Service instance
func NewService(identitySvc *identity.Service, joinerSvc *joiner.Service, store *report.Store, writer SheetWriter) *Service {
	return &Service{identity: identitySvc, joiners: joinerSvc, store: store, writer: writer}
}

// SyncUsers exports the deduplicated directory listing.
func (s *Service) SyncUsers(ctx context.Context) (*TargetResult, error) {
	users, err := s.identity.ListMerged(ctx, nil)
	if err != nil {
		return nil, err
	}
	grid := UserGrid(users)
	if err := s.writer.WriteGrid(ctx, grid); err != nil {
		return nil, err
	}
	return &TargetResult{Success: true, Rows: len(grid.Rows)}, nil
}

// SyncJoiners exports all intake records.
func (s *Service) SyncJoiners(ctx context.Context) (*TargetResult, error) {
	joiners, err := s.joiners.List(ctx, "")
	if err != nil {
		return nil, err
	}
	grid := JoinerGrid(joiners)
	if err := s.writer.WriteGrid(ctx, grid); err != nil {
		return nil, err
	}
	return &TargetResult{Success: true, Rows: len(grid.Rows)}, nil
}

// SyncReports exports one report collection.
func (s *Service) SyncReports(ctx context.Context, kind report.Kind) (*TargetResult, error) {
	recs, err := s.store.All(ctx, kind)
	if err != nil {
		return nil, err
	}
	grid := ReportGrid(kind, recs)
	if err := s.writer.WriteGrid(ctx, grid); err != nil {
		return nil, err
	}
	return &TargetResult{Success: true, Rows: len(grid.Rows)}, nil
}

// SyncAll pushes every export target, continuing past individual failures.
func (s *Service) SyncAll(ctx context.Context) map[string]*TargetResult {
	results := make(map[string]*TargetResult)

	record := func(name string, res *TargetResult, err error) {
		if err != nil {
			log.Printf("[SheetSyncService] Sync failed for %s: %v", name, err)
			results[name] = &TargetResult{Success: false, Error: err.Error()}
			return
		}
		results[name] = res
	}

	res, err := s.SyncUsers(ctx)
	record("users", res, err)

	res, err = s.SyncJoiners(ctx)
	record("joiners", res, err)

	for _, kind := range report.Kinds {
		res, err := s.SyncReports(ctx, kind)
		record(fmt.Sprintf("%s_reports", kind), res, err)
	}

	return results
}
