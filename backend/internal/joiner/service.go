// ============================================================================
// backend/internal/joiner/service.go
// Candidate intake records and status rollups
// ============================================================================

package joiner

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"traintrack/backend/internal/shared"
)

// Service manages the joiners collection.
type Service struct {
	db         *mongo.Database
	joinersCol *mongo.Collection
}

// NewService creates a new joiner Service instance
func NewService(db *mongo.Database) *Service {
	return &Service{
		db:         db,
		joinersCol: db.Collection(shared.ColJoiners),
	}
}

// Create registers a new intake record. Joiners arriving before their
// account exists get a generated author_id so reports can attach later.
func (s *Service) Create(ctx context.Context, j *shared.Joiner) (*shared.Joiner, error) {
	if j == nil || j.Name == "" || j.Email == "" {
		return nil, shared.Validationf("name and email are required")
	}
	j.Email = strings.ToLower(strings.TrimSpace(j.Email))

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := s.joinersCol.CountDocuments(queryCtx, bson.M{"email": j.Email})
	if err != nil {
		return nil, shared.Persistencef(err, "failed to check joiner email")
	}
	if count > 0 {
		return nil, shared.Conflictf("joiner with email %s already exists", j.Email)
	}

	if strings.TrimSpace(j.AuthorID) == "" {
		j.AuthorID = uuid.New().String()
	}
	if j.Status == "" {
		j.Status = shared.JoinerPending
	}
	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now

	result, err := s.joinersCol.InsertOne(queryCtx, j)
	if err != nil {
		return nil, shared.Persistencef(err, "failed to create joiner")
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		j.ID = oid
	}
	return j, nil
}

// List returns joiners, optionally filtered by status, newest first.
func (s *Service) List(ctx context.Context, status string) ([]shared.Joiner, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.joinersCol.Find(queryCtx, filter, opts)
	if err != nil {
		return nil, shared.Persistencef(err, "failed to list joiners")
	}
	defer cursor.Close(queryCtx)

	var joiners []shared.Joiner
	for cursor.Next(queryCtx) {
		var j shared.Joiner
		if err := cursor.Decode(&j); err != nil {
			continue
		}
		joiners = append(joiners, j)
	}
	return joiners, nil
}

// Get retrieves one joiner by database id.
func (s *Service) Get(ctx context.Context, id string) (*shared.Joiner, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, shared.Validationf("invalid joiner id: %s", id)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var j shared.Joiner
	if err := s.joinersCol.FindOne(queryCtx, bson.M{"_id": oid}).Decode(&j); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.NotFoundf("joiner not found: %s", id)
		}
		return nil, shared.Persistencef(err, "failed to load joiner")
	}
	return &j, nil
}

// Update applies a partial update to a joiner.
func (s *Service) Update(ctx context.Context, id string, updates bson.M) (*shared.Joiner, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, shared.Validationf("invalid joiner id: %s", id)
	}
	if len(updates) == 0 {
		return nil, shared.Validationf("no fields to update")
	}

	delete(updates, "_id")
	if email, ok := updates["email"].(string); ok {
		updates["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	if status, ok := updates["status"].(string); ok {
		switch status {
		case shared.JoinerPending, shared.JoinerJoined, shared.JoinerDropped:
		default:
			return nil, shared.Validationf("invalid joiner status: %s", status)
		}
	}
	updates["updatedAt"] = time.Now()

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var j shared.Joiner
	err = s.joinersCol.FindOneAndUpdate(queryCtx, bson.M{"_id": oid}, bson.M{"$set": updates}, opts).Decode(&j)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.NotFoundf("joiner not found: %s", id)
		}
		return nil, shared.Persistencef(err, "failed to update joiner")
	}
	return &j, nil
}

// Delete removes a joiner record.
func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return shared.Validationf("invalid joiner id: %s", id)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := s.joinersCol.DeleteOne(queryCtx, bson.M{"_id": oid})
	if err != nil {
		return shared.Persistencef(err, "failed to delete joiner")
	}
	if result.DeletedCount == 0 {
		return shared.NotFoundf("joiner not found: %s", id)
	}
	return nil
}

// StatusStats is the per-status joiner rollup.
type StatusStats struct {
	Total   int64            `json:"total"`
	ByState map[string]int64 `json:"byStatus"`
}

// Stats groups joiners by status in the database.
func (s *Service) Stats(ctx context.Context) (*StatusStats, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := s.joinersCol.Aggregate(queryCtx, pipeline)
	if err != nil {
		return nil, shared.Persistencef(err, "failed to aggregate joiner stats")
	}
	defer cursor.Close(queryCtx)

	stats := &StatusStats{ByState: make(map[string]int64)}
	for cursor.Next(queryCtx) {
		var group struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.Decode(&group); err != nil {
			continue
		}
		if group.Status == "" {
			group.Status = shared.JoinerPending
		}
		stats.ByState[group.Status] += group.Count
		stats.Total += group.Count
	}
	return stats, nil
}

// FindForCandidate locates the joiner record backing a candidate, first by
// author_id, then by either email field. Used to override the employee id
// shown on performance reads.
func (s *Service) FindForCandidate(ctx context.Context, authorID string, emails ...string) (*shared.Joiner, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if strings.TrimSpace(authorID) != "" {
		var j shared.Joiner
		err := s.joinersCol.FindOne(queryCtx, bson.M{"author_id": strings.TrimSpace(authorID)}).Decode(&j)
		if err == nil {
			return &j, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, shared.Persistencef(err, "failed to query joiners")
		}
	}

	var ors []bson.M
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		ors = append(ors,
			bson.M{"email": email},
			bson.M{"candidate_personal_mail_id": email})
	}
	if len(ors) == 0 {
		return nil, shared.NotFoundf("no joiner for candidate")
	}

	var j shared.Joiner
	if err := s.joinersCol.FindOne(queryCtx, bson.M{"$or": ors}).Decode(&j); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.NotFoundf("no joiner for candidate")
		}
		return nil, shared.Persistencef(err, "failed to query joiners")
	}
	return &j, nil
}
