// ============================================================================
// backend/internal/grooming/service.go
// Trainer grooming marks with monthly missed-count maintenance
// ============================================================================

package grooming

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
)

// Service records grooming observations. The heavy lifting lives in the
// report package; this service resolves the candidate, checks trainer
// access, and performs the read-modify-write.
type Service struct {
	identity *identity.Service
	store    *report.Store
}

// NewService creates a new grooming Service instance
func NewService(identitySvc *identity.Service, store *report.Store) *Service {
	return &Service{identity: identitySvc, store: store}
}

// Mark stores one grooming observation for a candidate on a date and
// rebuilds that month's missed count from the full date history.
func (s *Service) Mark(ctx context.Context, trainerID, authorID string, date time.Time, entry interface{}) (bson.M, error) {
	if entry == nil {
		return nil, shared.Validationf("grooming entry is required")
	}

	trainee, err := s.identity.FindByAuthorID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	trainer, err := s.identity.FindByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if trainer.Role == shared.RoleTrainer && !isAssigned(trainer, trainee) {
		return nil, shared.Validationf("trainee %s is not assigned to this trainer", authorID)
	}

	data := bson.M{}
	if rec, err := s.store.Get(ctx, report.KindGrooming, trainee.AuthorID); err == nil {
		if m, mapErr := shared.GetMap(rec.ReportData); mapErr == nil {
			data = m
		}
	} else if shared.KindOf(err) != shared.KindNotFound {
		return nil, err
	}

	data = report.ApplyGroomingMark(data, date, entry)

	err = s.store.Upsert(ctx, report.KindGrooming, &shared.ReportRecord{
		AuthorID:   trainee.AuthorID,
		User:       &trainee.ID,
		ReportData: data,
		UploadedBy: trainerID,
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Report returns a candidate's full grooming payload.
func (s *Service) Report(ctx context.Context, authorID string) (bson.M, error) {
	rec, err := s.store.Get(ctx, report.KindGrooming, authorID)
	if err != nil {
		return nil, err
	}
	m, err := shared.GetMap(rec.ReportData)
	if err != nil {
		return nil, shared.Persistencef(err, "stored grooming payload for %s is malformed", authorID)
	}
	return m, nil
}

func isAssigned(trainer, trainee *shared.User) bool {
	for _, id := range trainer.AssignedTrainees {
		if id == trainee.ID {
			return true
		}
	}
	return false
}
