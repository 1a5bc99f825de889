// ============================================================================
// backend/internal/upload/service.go
// Bulk report upload: validate, resolve, transform, persist, report
// ============================================================================

package upload

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
)

// Selector sheet names for the non-learning kinds. Learning is selected
// through its sub-sheet names.
var kindSheets = map[report.Kind]string{
	report.KindAttendance:   "AttendanceReports",
	report.KindGrooming:     "GroomingReports",
	report.KindInteractions: "InteractionsReports",
}

// Request is one bulk upload batch. Rows come either inline or from a remote
// sheet URL, never both.
type Request struct {
	SpreadsheetName string   `json:"spread_sheet_name"`
	DataSets        []string `json:"data_sets_to_be_loaded"`
	SheetURL        string   `json:"google_sheet_url,omitempty"`
	Rows            []bson.M `json:"candidate_reports_data,omitempty"`
}

// ProcessedRow identifies one successfully handled candidate.
type ProcessedRow struct {
	AuthorID string `json:"author_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Result reports what a batch achieved. Partial success is the normal case:
// row-level failures land in Errors while the rest of the batch commits.
type Result struct {
	CreatedCount int            `json:"createdCount"`
	UpdatedCount int            `json:"updatedCount"`
	SkippedCount int            `json:"skippedCount"`
	Errors       []string       `json:"errors,omitempty"`
	Processed    []ProcessedRow `json:"processedReports"`
}

// Coordinator drives a bulk upload batch through its phases:
// received, validated, resolved, persisted, reported.
type Coordinator struct {
	identity *identity.Service
	store    *report.Store
	fetcher  Fetcher
}

// NewCoordinator creates a new Coordinator instance
func NewCoordinator(identitySvc *identity.Service, store *report.Store, fetcher Fetcher) *Coordinator {
	return &Coordinator{identity: identitySvc, store: store, fetcher: fetcher}
}

// Run processes one batch on behalf of actorID.
func (c *Coordinator) Run(ctx context.Context, actorID string, req *Request) (*Result, error) {
	log.Printf("[UploadCoordinator] Batch received: sheet=%s dataSets=%v", req.SpreadsheetName, req.DataSets)

	selected, err := validateSelector(req)
	if err != nil {
		return nil, err
	}

	rows, err := c.loadRows(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.Validationf("no candidate reports data found")
	}
	log.Printf("[UploadCoordinator] Batch validated: %d rows", len(rows))

	result := &Result{}

	// Resolve every author_id in one pass instead of one query per row.
	var ids []string
	for _, row := range rows {
		if id, _ := shared.GetString(row["author_id"]); strings.TrimSpace(id) != "" {
			ids = append(ids, strings.TrimSpace(id))
		}
	}
	resolved, err := c.identity.ResolveBatch(ctx, ids)
	if err != nil {
		return nil, err
	}
	log.Printf("[UploadCoordinator] Batch resolved: %d of %d identities", len(resolved), len(ids))

	batches := c.buildBatches(rows, selected, resolved, actorID, result)
	c.persistBatches(ctx, batches, result)

	log.Printf("[UploadCoordinator] Batch reported: created=%d updated=%d skipped=%d errors=%d",
		result.CreatedCount, result.UpdatedCount, result.SkippedCount, len(result.Errors))
	return result, nil
}

// selection records which report kinds a batch touches and, for learning,
// which sub-sheets contribute.
type selection struct {
	kinds          map[report.Kind]bool
	learningSheets []string
}

func validateSelector(req *Request) (*selection, error) {
	if req == nil || req.SpreadsheetName == "" || len(req.DataSets) == 0 {
		return nil, shared.Validationf("spread_sheet_name and data_sets_to_be_loaded are required")
	}

	sel := &selection{kinds: make(map[report.Kind]bool)}
	for _, name := range req.DataSets {
		name = strings.TrimSpace(name)
		switch {
		case report.IsKnownSubSheet(name):
			sel.kinds[report.KindLearning] = true
			sel.learningSheets = append(sel.learningSheets, name)
		case name == report.CourseCompletionKey:
			sel.kinds[report.KindLearning] = true
		case name == kindSheets[report.KindAttendance]:
			sel.kinds[report.KindAttendance] = true
		case name == kindSheets[report.KindGrooming]:
			sel.kinds[report.KindGrooming] = true
		case name == kindSheets[report.KindInteractions]:
			sel.kinds[report.KindInteractions] = true
		}
	}
	if len(sel.kinds) == 0 {
		return nil, shared.Validationf("data_sets_to_be_loaded names no known sheet")
	}
	if sel.kinds[report.KindLearning] && len(sel.learningSheets) == 0 {
		sel.learningSheets = report.SubSheetNames
	}
	return sel, nil
}

func (c *Coordinator) loadRows(ctx context.Context, req *Request) ([]bson.M, error) {
	if url := strings.TrimSpace(req.SheetURL); url != "" {
		return c.fetcher.FetchRows(ctx, url)
	}
	if len(req.Rows) > 0 {
		return req.Rows, nil
	}
	return nil, shared.Validationf("either google_sheet_url or candidate_reports_data must be provided")
}

// kindBatch is the split write set for one report kind.
type kindBatch struct {
	creates []shared.ReportRecord
	updates []shared.ReportRecord
}

// buildBatches walks the rows in order, transforming payloads and collecting
// per-kind write sets. Row-level problems become error entries; they never
// stop the walk.
func (c *Coordinator) buildBatches(rows []bson.M, sel *selection, resolved map[string]*shared.User, actorID string, result *Result) map[report.Kind]*kindBatch {
	batches := make(map[report.Kind]*kindBatch)
	for kind := range sel.kinds {
		batches[kind] = &kindBatch{}
	}

	for i, row := range rows {
		authorID, _ := shared.GetString(row["author_id"])
		authorID = strings.TrimSpace(authorID)
		if authorID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: author_id is required", i+1))
			result.SkippedCount++
			continue
		}

		user := resolved[authorID]
		if user == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: User not found with author_id %s", i+1, authorID))
			result.SkippedCount++
			continue
		}

		touched := false
		for _, kind := range report.Kinds {
			if !sel.kinds[kind] {
				continue
			}
			raw, ok := row[kind.RowField()]
			if !ok || raw == nil {
				continue
			}
			payload, err := report.NormalizePayload(kind, raw)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
				continue
			}

			if kind == report.KindLearning {
				canonical := report.ToCanonicalSheets(payload.(bson.M), sel.learningSheets)
				if !report.HasLearningData(canonical) {
					continue
				}
				payload = canonical
			}
			if report.EmptyPayload(payload) {
				continue
			}

			rec := shared.ReportRecord{
				AuthorID:   authorID,
				User:       &user.ID,
				ReportData: payload,
				UploadedBy: actorID,
			}
			batches[kind].creates = append(batches[kind].creates, rec)
			touched = true
		}

		if touched {
			result.Processed = append(result.Processed, ProcessedRow{
				AuthorID: authorID,
				Name:     user.Name,
				Email:    user.Email,
			})
		}
	}
	return batches
}

// persistBatches splits each kind's rows into creates and updates using one
// existence lookup per kind, then applies a bulk insert plus concurrent
// per-record updates. A failure in one kind does not roll back the others.
func (c *Coordinator) persistBatches(ctx context.Context, batches map[report.Kind]*kindBatch, result *Result) {
	var mu sync.Mutex

	for _, kind := range report.Kinds {
		batch := batches[kind]
		if batch == nil || len(batch.creates) == 0 {
			continue
		}

		ids := make([]string, 0, len(batch.creates))
		for _, rec := range batch.creates {
			ids = append(ids, rec.AuthorID)
		}
		existing, err := c.store.ExistingAuthorIDs(ctx, kind, ids)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s reports: %v", kind, err))
			continue
		}

		all := batch.creates
		batch.creates = nil
		for _, rec := range all {
			if existing[rec.AuthorID] {
				batch.updates = append(batch.updates, rec)
			} else {
				batch.creates = append(batch.creates, rec)
			}
		}

		if len(batch.creates) > 0 {
			if err := c.store.BulkInsert(ctx, kind, batch.creates); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s reports: %v", kind, err))
			} else {
				result.CreatedCount += len(batch.creates)
			}
		}

		if len(batch.updates) > 0 {
			g, gCtx := errgroup.WithContext(ctx)
			g.SetLimit(8)
			for _, rec := range batch.updates {
				rec := rec
				g.Go(func() error {
					updCtx, cancel := context.WithTimeout(gCtx, 10*time.Second)
					defer cancel()
					err := c.store.Upsert(updCtx, kind, &rec)
					mu.Lock()
					if err != nil {
						result.Errors = append(result.Errors, fmt.Sprintf("%s report for %s: %v", kind, rec.AuthorID, err))
					} else {
						result.UpdatedCount++
					}
					mu.Unlock()
					return nil // failures are isolated per record
				})
			}
			g.Wait()
		}
	}
}
