// ============================================================================
// backend/internal/identity/service.go
// Dual-collection user directory: legacy `users` merged with `users_new`
// ============================================================================

package identity

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"traintrack/backend/internal/shared"
)

// Service reconciles the two user collections into one logical directory.
// The current-schema collection wins on conflicting fields; the legacy
// collection fills the gaps.
type Service struct {
	db          *mongo.Database
	usersCol    *mongo.Collection
	usersNewCol *mongo.Collection
}

// NewService creates a new identity Service instance
func NewService(db *mongo.Database) *Service {
	return &Service{
		db:          db,
		usersCol:    db.Collection(shared.ColUsers),
		usersNewCol: db.Collection(shared.ColUsersNew),
	}
}

// FindByAuthorID resolves one candidate by author_id across both
// collections. When both hold a record, the merged view prefers the current
// schema's field values.
func (s *Service) FindByAuthorID(ctx context.Context, authorID string) (*shared.User, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, shared.Validationf("author_id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"author_id": authorID}

	var legacy, current *shared.User
	var u shared.User
	if err := s.usersCol.FindOne(queryCtx, filter).Decode(&u); err == nil {
		c := u
		legacy = &c
	} else if err != mongo.ErrNoDocuments {
		return nil, shared.Persistencef(err, "failed to query users")
	}

	var n shared.User
	if err := s.usersNewCol.FindOne(queryCtx, filter).Decode(&n); err == nil {
		c := n
		current = &c
	} else if err != mongo.ErrNoDocuments {
		return nil, shared.Persistencef(err, "failed to query users_new")
	}

	merged := MergeUsers(legacy, current)
	if merged == nil {
		return nil, shared.NotFoundf("candidate not found: %s", authorID)
	}
	return merged, nil
}

// FindByID resolves a user by database id, trying the current collection
// first.
func (s *Service) FindByID(ctx context.Context, id string) (*shared.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, shared.Validationf("invalid user id: %s", id)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var user shared.User
	if err := s.usersNewCol.FindOne(queryCtx, bson.M{"_id": oid}).Decode(&user); err == nil {
		return &user, nil
	} else if err != mongo.ErrNoDocuments {
		return nil, shared.Persistencef(err, "failed to query users_new")
	}

	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.NotFoundf("user not found: %s", id)
		}
		return nil, shared.Persistencef(err, "failed to query users")
	}
	return &user, nil
}

// ResolveBatch looks up many author_ids in one pass over each collection.
// The result maps trimmed author_id to the merged record; unresolved ids are
// simply absent.
func (s *Service) ResolveBatch(ctx context.Context, authorIDs []string) (map[string]*shared.User, error) {
	trimmed := make([]string, 0, len(authorIDs))
	for _, id := range authorIDs {
		if t := strings.TrimSpace(id); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	if len(trimmed) == 0 {
		return map[string]*shared.User{}, nil
	}

	filter := bson.M{"author_id": bson.M{"$in": trimmed}}

	var legacy, current []shared.User
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		legacy, err = s.findUsers(gCtx, s.usersCol, filter)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = s.findUsers(gCtx, s.usersNewCol, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := make(map[string]*shared.User, len(trimmed))
	for i := range legacy {
		key := strings.TrimSpace(legacy[i].AuthorID)
		resolved[key] = &legacy[i]
	}
	for i := range current {
		key := strings.TrimSpace(current[i].AuthorID)
		resolved[key] = MergeUsers(resolved[key], &current[i])
	}
	return resolved, nil
}

// ListMerged returns the deduplicated directory listing. Trainer records
// whose assigned-trainee lists reference people no longer active are cleaned
// up and the cleanup is persisted back to the owning collection.
func (s *Service) ListMerged(ctx context.Context, filter *shared.UserFilter) ([]shared.User, error) {
	query := bson.M{}
	if filter != nil {
		if filter.Role != "" {
			query["role"] = filter.Role
		}
		if filter.Email != "" {
			query["email"] = strings.ToLower(strings.TrimSpace(filter.Email))
		}
		if filter.ActiveOnly {
			query["isActive"] = true
		}
	}

	var legacy, current []shared.User
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		legacy, err = s.findUsers(gCtx, s.usersCol, query)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = s.findUsers(gCtx, s.usersNewCol, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Current schema first so first-seen-wins keeps its records.
	origin := make(map[primitive.ObjectID]*mongo.Collection, len(legacy)+len(current))
	for i := range current {
		origin[current[i].ID] = s.usersNewCol
	}
	for i := range legacy {
		if _, ok := origin[legacy[i].ID]; !ok {
			origin[legacy[i].ID] = s.usersCol
		}
	}

	merged := DedupeUsers(append(append([]shared.User{}, current...), legacy...))

	if filter != nil && filter.Unassigned {
		filtered := merged[:0]
		for _, u := range merged {
			if u.Role == shared.RoleTrainee && u.AssignedTrainer == nil {
				filtered = append(filtered, u)
			}
		}
		merged = filtered
	}

	s.pruneStaleTrainees(ctx, merged, origin)

	return merged, nil
}

// DedupeUsers collapses a combined listing to one entry per person, keyed by
// lowercased email with author_id and database id as fallbacks. First seen
// wins, except that a later record carrying an author_id the kept record
// lacks replaces it.
func DedupeUsers(users []shared.User) []shared.User {
	seen := make(map[string]int, len(users))
	var out []shared.User
	for _, u := range users {
		key := u.Key()
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(out)
			out = append(out, u)
			continue
		}
		if out[idx].AuthorID == "" && u.AuthorID != "" {
			out[idx] = u
		}
	}
	return out
}

// MergeUsers overlays the current-schema record onto the legacy record.
// Either argument may be nil; both nil yields nil.
func MergeUsers(legacy, current *shared.User) *shared.User {
	if current == nil {
		return legacy
	}
	if legacy == nil {
		return current
	}

	merged := *current
	if merged.AuthorID == "" {
		merged.AuthorID = legacy.AuthorID
	}
	if merged.Name == "" {
		merged.Name = legacy.Name
	}
	if merged.Email == "" {
		merged.Email = legacy.Email
	}
	if merged.Role == "" {
		merged.Role = legacy.Role
	}
	if merged.Phone == "" && merged.PhoneNumber == "" {
		merged.Phone = legacy.PhoneValue()
	}
	if merged.Department == "" {
		merged.Department = legacy.Department
	}
	if merged.State == "" {
		merged.State = legacy.State
	}
	if merged.EmployeeID == "" {
		merged.EmployeeID = legacy.EmployeeID
	}
	if merged.Qualification == "" {
		merged.Qualification = legacy.Qualification
	}
	if merged.Specialization == "" {
		merged.Specialization = legacy.Specialization
	}
	if merged.YearOfPassing == "" {
		merged.YearOfPassing = legacy.YearOfPassing
		if merged.YearOfPassing == "" {
			merged.YearOfPassing = legacy.YearOfPassout
		}
	}
	if merged.JoiningDate == nil && merged.DateOfJoining == nil {
		merged.JoiningDate = legacy.JoinedAt()
	}
	if merged.AssignedTrainer == nil {
		merged.AssignedTrainer = legacy.AssignedTrainer
	}
	if len(merged.AssignedTrainees) == 0 {
		merged.AssignedTrainees = legacy.AssignedTrainees
	}
	return &merged
}

// ============================================================================
// Helper Functions
// ============================================================================

func (s *Service) findUsers(ctx context.Context, col *mongo.Collection, filter bson.M) ([]shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cursor, err := col.Find(queryCtx, filter)
	if err != nil {
		return nil, shared.Persistencef(err, "failed to query %s", col.Name())
	}
	defer cursor.Close(queryCtx)

	var users []shared.User
	for cursor.Next(queryCtx) {
		var u shared.User
		if err := cursor.Decode(&u); err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// pruneStaleTrainees drops assigned-trainee references that point at people
// absent from the active listing and persists the cleanup. Best effort: a
// failed cleanup is logged, never surfaced.
func (s *Service) pruneStaleTrainees(ctx context.Context, merged []shared.User, origin map[primitive.ObjectID]*mongo.Collection) {
	active := make(map[primitive.ObjectID]bool, len(merged))
	for _, u := range merged {
		if u.IsActive {
			active[u.ID] = true
		}
	}

	for i := range merged {
		trainer := &merged[i]
		if trainer.Role != shared.RoleTrainer || len(trainer.AssignedTrainees) == 0 {
			continue
		}

		kept := trainer.AssignedTrainees[:0]
		for _, id := range trainer.AssignedTrainees {
			if active[id] {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(trainer.AssignedTrainees) {
			continue
		}
		trainer.AssignedTrainees = kept

		col := origin[trainer.ID]
		if col == nil {
			continue
		}
		updateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := col.UpdateOne(updateCtx,
			bson.M{"_id": trainer.ID},
			bson.M{"$set": bson.M{"assignedTrainees": kept, "updatedAt": time.Now()}})
		cancel()
		if err != nil {
			log.Printf("[IdentityService] Failed to prune trainees for %s: %v", trainer.ID.Hex(), err)
		}
	}
}
