// ============================================================================
// backend/internal/attendance/service.go
// Daily clock-in/out punches and trainer attendance marking
// ============================================================================

package attendance

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
)

// fullDayHours is the threshold for a punch pair to count as a full day.
const fullDayHours = 8.0

// Service handles daily punches and the month-bucketed attendance report
// they roll up into.
type Service struct {
	db            *mongo.Database
	attendanceCol *mongo.Collection
	usersNewCol   *mongo.Collection
	identity      *identity.Service
	store         *report.Store
}

// NewService creates a new attendance Service instance
func NewService(db *mongo.Database, identitySvc *identity.Service, store *report.Store) *Service {
	return &Service{
		db:            db,
		attendanceCol: db.Collection(shared.ColAttendance),
		usersNewCol:   db.Collection(shared.ColUsersNew),
		identity:      identitySvc,
		store:         store,
	}
}

// ClockIn records the day's clock-in for a user. A second clock-in on the
// same day is a conflict.
func (s *Service) ClockIn(ctx context.Context, userID, location, ipAddress string) (*shared.DailyAttendance, error) {
	user, err := s.identity.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	day := startOfDay(now)

	var existing shared.DailyAttendance
	err = s.attendanceCol.FindOne(queryCtx, bson.M{"user": user.ID, "date": day}).Decode(&existing)
	if err == nil && existing.ClockIn.Time != nil {
		return nil, shared.Conflictf("already clocked in today")
	}
	if err != nil && err != mongo.ErrNoDocuments {
		return nil, shared.Persistencef(err, "failed to check today's attendance")
	}

	update := bson.M{
		"$set": bson.M{
			"clockIn": shared.Punch{Time: &now, Location: location, IPAddress: ipAddress},
			"status":  shared.AttendancePresent,
		},
		"$setOnInsert": bson.M{"user": user.ID, "date": day},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rec shared.DailyAttendance
	if err := s.attendanceCol.FindOneAndUpdate(queryCtx, bson.M{"user": user.ID, "date": day}, update, opts).Decode(&rec); err != nil {
		return nil, shared.Persistencef(err, "failed to record clock-in")
	}

	s.mirrorLastPunch(ctx, user.ID, bson.M{"lastClockIn": now})
	return &rec, nil
}

// ClockOut closes the day's punch pair and computes hours worked.
func (s *Service) ClockOut(ctx context.Context, userID, location, ipAddress string) (*shared.DailyAttendance, error) {
	user, err := s.identity.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	day := startOfDay(now)

	var existing shared.DailyAttendance
	err = s.attendanceCol.FindOne(queryCtx, bson.M{"user": user.ID, "date": day}).Decode(&existing)
	if err == mongo.ErrNoDocuments || existing.ClockIn.Time == nil {
		return nil, shared.Validationf("cannot clock out without clocking in")
	}
	if err != nil {
		return nil, shared.Persistencef(err, "failed to check today's attendance")
	}
	if existing.ClockOut.Time != nil {
		return nil, shared.Conflictf("already clocked out today")
	}

	hours := now.Sub(*existing.ClockIn.Time).Hours()
	update := bson.M{
		"$set": bson.M{
			"clockOut":   shared.Punch{Time: &now, Location: location, IPAddress: ipAddress},
			"totalHours": hours,
			"isFullDay":  hours >= fullDayHours,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec shared.DailyAttendance
	if err := s.attendanceCol.FindOneAndUpdate(queryCtx, bson.M{"_id": existing.ID}, update, opts).Decode(&rec); err != nil {
		return nil, shared.Persistencef(err, "failed to record clock-out")
	}

	s.mirrorLastPunch(ctx, user.ID, bson.M{"lastClockOut": now})
	return &rec, nil
}

// History lists a user's punch records between two dates, newest first.
func (s *Service) History(ctx context.Context, userID string, from, to time.Time) ([]shared.DailyAttendance, error) {
	user, err := s.identity.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	filter := bson.M{"user": user.ID}
	dateRange := bson.M{}
	if !from.IsZero() {
		dateRange["$gte"] = startOfDay(from)
	}
	if !to.IsZero() {
		dateRange["$lte"] = startOfDay(to)
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(100)
	cursor, err := s.attendanceCol.Find(queryCtx, filter, opts)
	if err != nil {
		return nil, shared.Persistencef(err, "failed to list attendance")
	}
	defer cursor.Close(queryCtx)

	var records []shared.DailyAttendance
	for cursor.Next(queryCtx) {
		var rec shared.DailyAttendance
		if err := cursor.Decode(&rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// MarkTrainee records a status for one trainee on one date on behalf of a
// trainer and recomputes that month's attendance report buckets. The report
// rollup is best effort: its failure is logged, the mark itself stands.
func (s *Service) MarkTrainee(ctx context.Context, trainerID, authorID string, date time.Time, status string) error {
	if !shared.IsValidAttendanceStatus(status) {
		return shared.Validationf("invalid attendance status: %s", status)
	}

	trainee, err := s.identity.FindByAuthorID(ctx, authorID)
	if err != nil {
		return err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	day := startOfDay(date)
	var validatedBy *primitive.ObjectID
	if trainer, err := s.identity.FindByID(ctx, trainerID); err == nil {
		validatedBy = &trainer.ID
	}

	update := bson.M{
		"$set": bson.M{
			"status":      status,
			"isValidated": true,
			"validatedBy": validatedBy,
			"validatedAt": time.Now(),
		},
		"$setOnInsert": bson.M{"user": trainee.ID, "date": day},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.attendanceCol.UpdateOne(queryCtx, bson.M{"user": trainee.ID, "date": day}, update, opts); err != nil {
		return shared.Persistencef(err, "failed to mark attendance")
	}

	if err := s.refreshMonthlyReport(ctx, trainee, trainerID, day); err != nil {
		log.Printf("[AttendanceService] Monthly rollup failed for %s: %v", trainee.AuthorID, err)
	}
	return nil
}

// refreshMonthlyReport recounts the month's present days from the punch
// records and rewrites the month-bucketed fields of the attendance report.
func (s *Service) refreshMonthlyReport(ctx context.Context, trainee *shared.User, trainerID string, day time.Time) error {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	// Any non-absent mark counts as an attended day.
	attended, err := s.attendanceCol.CountDocuments(queryCtx, bson.M{
		"user": trainee.ID,
		"date": bson.M{"$gte": monthStart, "$lt": monthEnd},
		"status": bson.M{"$in": []string{
			shared.AttendancePresent, shared.AttendanceHalfDay, shared.AttendanceOvertime,
		}},
	})
	if err != nil {
		return shared.Persistencef(err, "failed to count present days")
	}

	data := bson.M{}
	if rec, err := s.store.Get(ctx, report.KindAttendance, trainee.AuthorID); err == nil {
		if m, mapErr := shared.GetMap(rec.ReportData); mapErr == nil {
			data = m
		}
	} else if shared.KindOf(err) != shared.KindNotFound {
		return err
	}

	data = report.ApplyMonthlyAttendance(data, day, int(attended))

	return s.store.Upsert(ctx, report.KindAttendance, &shared.ReportRecord{
		AuthorID:   trainee.AuthorID,
		User:       &trainee.ID,
		ReportData: data,
		UploadedBy: trainerID,
	})
}

// mirrorLastPunch copies the latest punch time onto the user document so
// listings can show it without a join. Best effort.
func (s *Service) mirrorLastPunch(ctx context.Context, userID primitive.ObjectID, set bson.M) {
	updateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.usersNewCol.UpdateOne(updateCtx, bson.M{"_id": userID}, bson.M{"$set": set}); err != nil {
		log.Printf("[AttendanceService] Failed to mirror punch time for %s: %v", userID.Hex(), err)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
