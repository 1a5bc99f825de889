// ============================================================================
// backend/internal/report/store.go
// Persistence for the four report collections
// ============================================================================

package report

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"traintrack/backend/internal/shared"
)

// Kind identifies one of the four report collections.
type Kind string

const (
	KindLearning     Kind = "learning"
	KindAttendance   Kind = "attendance"
	KindGrooming     Kind = "grooming"
	KindInteractions Kind = "interactions"
)

// Kinds lists all report kinds in a fixed order.
var Kinds = []Kind{KindLearning, KindAttendance, KindGrooming, KindInteractions}

var kindCollections = map[Kind]string{
	KindLearning:     shared.ColLearning,
	KindAttendance:   shared.ColAttendanceRp,
	KindGrooming:     shared.ColGrooming,
	KindInteractions: shared.ColInteractions,
}

// ParseKind validates a kind string from a request path.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindCollections[k]; !ok {
		return "", shared.Validationf("unknown report kind: %s", s)
	}
	return k, nil
}

// Collection returns the MongoDB collection name for the kind.
func (k Kind) Collection() string {
	return kindCollections[k]
}

// NormalizePayload validates a raw payload value for a kind. Interactions
// entries may arrive as an array of observations; every other kind must be
// object-shaped.
func NormalizePayload(kind Kind, raw interface{}) (interface{}, error) {
	if kind == KindInteractions {
		switch v := raw.(type) {
		case primitive.A:
			return []interface{}(v), nil
		case []interface{}:
			return v, nil
		}
	}
	m, err := shared.GetMap(raw)
	if err != nil {
		if kind == KindInteractions {
			return nil, shared.Validationf("%s payload must be an object or an array", kindRowNames[kind])
		}
		return nil, shared.Validationf("%s payload must be an object", kindRowNames[kind])
	}
	return m, nil
}

// kindRowNames are the payload field names used in upload rows and error
// messages.
var kindRowNames = map[Kind]string{
	KindLearning:     "learningReport",
	KindAttendance:   "attendanceReport",
	KindGrooming:     "groomingReport",
	KindInteractions: "interactionsReport",
}

// RowField returns the upload row field name carrying this kind's payload.
func (k Kind) RowField() string {
	return kindRowNames[k]
}

// EmptyPayload reports whether a normalized payload carries no data.
func EmptyPayload(v interface{}) bool {
	switch p := v.(type) {
	case bson.M:
		return len(p) == 0
	case []interface{}:
		return len(p) == 0
	default:
		return v == nil
	}
}

// Store holds the collection handles for all four report kinds. At most one
// live record exists per (author_id, kind); every write path goes through
// find-existing-else-create.
type Store struct {
	db   *mongo.Database
	cols map[Kind]*mongo.Collection
}

// NewStore creates a new Store instance
func NewStore(db *mongo.Database) *Store {
	cols := make(map[Kind]*mongo.Collection, len(kindCollections))
	for kind, name := range kindCollections {
		cols[kind] = db.Collection(name)
	}
	return &Store{db: db, cols: cols}
}

// Get retrieves the live record for an (author_id, kind) pair.
func (s *Store) Get(ctx context.Context, kind Kind, authorID string) (*shared.ReportRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var rec shared.ReportRecord
	err := s.cols[kind].FindOne(queryCtx, bson.M{"author_id": authorID}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.NotFoundf("no %s report for %s", kind, authorID)
		}
		return nil, shared.Persistencef(err, "failed to load %s report", kind)
	}
	rec.ReportData = shared.NormalizeBSON(rec.ReportData)
	return &rec, nil
}

// ForAuthor fetches all four report payloads for one candidate at once.
// Kinds with no record are simply absent from the result.
func (s *Store) ForAuthor(ctx context.Context, authorID string) (map[Kind]*shared.ReportRecord, error) {
	result := make(map[Kind]*shared.ReportRecord, len(Kinds))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for _, kind := range Kinds {
		kind := kind
		g.Go(func() error {
			rec, err := s.Get(gCtx, kind, authorID)
			if err != nil {
				if shared.KindOf(err) == shared.KindNotFound {
					return nil
				}
				return err
			}
			mu.Lock()
			result[kind] = rec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert saves the record as the single live document for its
// (author_id, kind) pair, creating it on first write.
func (s *Store) Upsert(ctx context.Context, kind Kind, rec *shared.ReportRecord) error {
	if rec == nil || rec.AuthorID == "" {
		return shared.Validationf("author_id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	set := bson.M{
		"reportData":    rec.ReportData,
		"lastUpdatedAt": now,
	}
	if rec.User != nil {
		set["user"] = rec.User
	}
	if rec.UploadedBy != "" {
		set["uploadedBy"] = rec.UploadedBy
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"author_id": rec.AuthorID, "uploadedAt": now},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.cols[kind].UpdateOne(queryCtx, bson.M{"author_id": rec.AuthorID}, update, opts); err != nil {
		return shared.Persistencef(err, "failed to upsert %s report for %s", kind, rec.AuthorID)
	}
	return nil
}

// UpdateData replaces only the payload of an existing record.
func (s *Store) UpdateData(ctx context.Context, kind Kind, authorID string, data interface{}) error {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"reportData": data, "lastUpdatedAt": time.Now()}}
	result, err := s.cols[kind].UpdateOne(queryCtx, bson.M{"author_id": authorID}, update)
	if err != nil {
		return shared.Persistencef(err, "failed to update %s report for %s", kind, authorID)
	}
	if result.MatchedCount == 0 {
		return shared.NotFoundf("no %s report for %s", kind, authorID)
	}
	return nil
}

// ExistingAuthorIDs returns which of the given author_ids already have a
// record of this kind. Used to split a batch into creates and updates with
// one query instead of one per row.
func (s *Store) ExistingAuthorIDs(ctx context.Context, kind Kind, authorIDs []string) (map[string]bool, error) {
	if len(authorIDs) == 0 {
		return map[string]bool{}, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"author_id": 1})
	cursor, err := s.cols[kind].Find(queryCtx, bson.M{"author_id": bson.M{"$in": authorIDs}}, opts)
	if err != nil {
		return nil, shared.Persistencef(err, "failed to look up existing %s reports", kind)
	}
	defer cursor.Close(queryCtx)

	existing := make(map[string]bool)
	for cursor.Next(queryCtx) {
		var doc struct {
			AuthorID string `bson:"author_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		existing[doc.AuthorID] = true
	}
	return existing, nil
}

// BulkInsert inserts new records in one unordered write.
func (s *Store) BulkInsert(ctx context.Context, kind Kind, recs []shared.ReportRecord) error {
	if len(recs) == 0 {
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs := make([]interface{}, 0, len(recs))
	now := time.Now()
	for i := range recs {
		if recs[i].UploadedAt.IsZero() {
			recs[i].UploadedAt = now
		}
		recs[i].LastUpdatedAt = now
		docs = append(docs, recs[i])
	}

	opts := options.InsertMany().SetOrdered(false)
	if _, err := s.cols[kind].InsertMany(queryCtx, docs, opts); err != nil {
		return shared.Persistencef(err, "failed to insert %s reports", kind)
	}
	return nil
}

// All streams every record of a kind, for export grids.
func (s *Store) All(ctx context.Context, kind Kind) ([]shared.ReportRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "author_id", Value: 1}})
	cursor, err := s.cols[kind].Find(queryCtx, bson.M{}, opts)
	if err != nil {
		return nil, shared.Persistencef(err, "failed to list %s reports", kind)
	}
	defer cursor.Close(queryCtx)

	var recs []shared.ReportRecord
	for cursor.Next(queryCtx) {
		var rec shared.ReportRecord
		if err := cursor.Decode(&rec); err != nil {
			continue
		}
		rec.ReportData = shared.NormalizeBSON(rec.ReportData)
		recs = append(recs, rec)
	}
	return recs, nil
}
