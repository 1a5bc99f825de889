package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
)

// Account IDs used across the seed data
const (
	AdminID   = "admin-001"
	BOAID     = "boa-001"
	TrainerID = "trainer-001"
	TraineeA  = "trainee-001"
	TraineeB  = "trainee-002"
	TraineeC  = "trainee-003"

	CommonPassword = "password"
)

// TraineeSeed bundles one trainee account with its report fixtures.
type TraineeSeed struct {
	AuthorID string
	Name     string
	Email    string
	// legacy puts the account in the old users collection instead of users_new
	Legacy      bool
	QuizScores  map[string]float64
	Attended    int
	MissedDates []string
}

func main() {
	log.Println("Starting Database Seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	if err := db.Drop(context.Background()); err != nil {
		log.Fatalf("Failed to drop database: %v", err)
	}
	log.Println("Database cleared successfully.")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	trainees := []TraineeSeed{
		{
			AuthorID:    TraineeA,
			Name:        "Asha Nair",
			Email:       "asha@example.com",
			QuizScores:  map[string]float64{"Topic1": 85, "Topic2": 70},
			Attended:    18,
			MissedDates: []string{"2026-07-03"},
		},
		{
			AuthorID:   TraineeB,
			Name:       "Ravi Kumar",
			Email:      "ravi@example.com",
			QuizScores: map[string]float64{"Topic1": 92, "Topic2": 88},
			Attended:   20,
		},
		{
			// lives in the legacy collection so directory merging has
			// something real to reconcile
			AuthorID:    TraineeC,
			Name:        "Mei Lin",
			Email:       "mei@example.com",
			Legacy:      true,
			QuizScores:  map[string]float64{"Topic1": 60},
			Attended:    15,
			MissedDates: []string{"2026-07-10", "2026-07-21"},
		},
	}

	seedStaff(ctx, db)
	seedTrainees(ctx, db, trainees)
	seedJoiners(ctx, db, trainees)
	seedReports(ctx, db, trainees)

	log.Println("All data seeding completed successfully.")
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

func seedStaff(ctx context.Context, db *mongo.Database) {
	log.Println("--- Seeding Staff Accounts ---")
	usersNewCol := db.Collection(shared.ColUsersNew)

	hashedBytes, _ := bcrypt.GenerateFromPassword([]byte(CommonPassword), 10)
	hashedPassword := string(hashedBytes)
	now := time.Now()

	staff := []shared.User{
		{AuthorID: AdminID, Name: "Super Admin", Email: "admin@example.com", Role: shared.RoleAdmin, IsActive: true, CreatedAt: now},
		{AuthorID: BOAID, Name: "Back Office Admin", Email: "boa@example.com", Role: shared.RoleBOA, IsActive: true, CreatedAt: now},
		{AuthorID: TrainerID, Name: "Priya Trainer", Email: "trainer@example.com", Role: shared.RoleTrainer, IsActive: true, CreatedAt: now, Department: "Engineering"},
	}

	for _, u := range staff {
		u.Password = hashedPassword
		filter := bson.M{"email": u.Email}
		update := bson.M{"$set": u}
		opts := options.Update().SetUpsert(true)

		if _, err := usersNewCol.UpdateOne(ctx, filter, update, opts); err != nil {
			log.Fatalf("Error seeding user %s: %v", u.Email, err)
		}
		log.Printf("Seeded %s: %s", u.Role, u.Email)
	}
}

func seedTrainees(ctx context.Context, db *mongo.Database, seeds []TraineeSeed) {
	log.Println("--- Seeding Trainees ---")
	usersCol := db.Collection(shared.ColUsers)
	usersNewCol := db.Collection(shared.ColUsersNew)

	hashedBytes, _ := bcrypt.GenerateFromPassword([]byte(CommonPassword), 10)
	hashedPassword := string(hashedBytes)
	now := time.Now()
	joined := now.AddDate(0, -2, 0)

	for _, s := range seeds {
		col := usersNewCol
		doc := bson.M{
			"author_id": s.AuthorID,
			"name":      s.Name,
			"email":     s.Email,
			"role":      shared.RoleTrainee,
			"password":  hashedPassword,
			"isActive":  true,
			"createdAt": now,
		}
		if s.Legacy {
			col = usersCol
			// legacy field spellings
			doc["phone_number"] = "555-0100"
			doc["date_of_joining"] = joined
		} else {
			doc["phone"] = "555-0200"
			doc["joiningDate"] = joined
		}

		filter := bson.M{"email": s.Email}
		opts := options.Update().SetUpsert(true)
		if _, err := col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts); err != nil {
			log.Fatalf("Error seeding trainee %s: %v", s.Email, err)
		}
		log.Printf("Seeded trainee: %s (legacy=%v)", s.Email, s.Legacy)
	}
}

func seedJoiners(ctx context.Context, db *mongo.Database, seeds []TraineeSeed) {
	log.Println("--- Seeding Joiners ---")
	joinersCol := db.Collection(shared.ColJoiners)
	now := time.Now()

	for i, s := range seeds {
		doc := bson.M{
			"author_id":                  s.AuthorID,
			"name":                       s.Name,
			"email":                      s.Email,
			"candidate_personal_mail_id": fmt.Sprintf("personal-%s", s.Email),
			"employeeId":                 fmt.Sprintf("EMP-%03d", i+1),
			"role":                       shared.RoleTrainee,
			"status":                     shared.JoinerJoined,
			"accountCreated":             true,
			"createdAt":                  now,
		}
		if _, err := joinersCol.InsertOne(ctx, doc); err != nil {
			log.Fatalf("Error seeding joiner %s: %v", s.Email, err)
		}
		log.Printf("Seeded joiner: %s", s.Email)
	}

	// one record still waiting on account creation
	if _, err := joinersCol.InsertOne(ctx, bson.M{
		"name":                       "Pending Candidate",
		"candidate_personal_mail_id": "pending@example.com",
		"role":                       shared.RoleTrainee,
		"status":                     shared.JoinerPending,
		"accountCreated":             false,
		"createdAt":                  now,
	}); err != nil {
		log.Fatalf("Error seeding pending joiner: %v", err)
	}
	log.Println("Seeded joiner: pending@example.com")
}

func seedReports(ctx context.Context, db *mongo.Database, seeds []TraineeSeed) {
	log.Println("--- Seeding Candidate Reports ---")
	store := report.NewStore(db)
	month := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)

	for _, s := range seeds {
		quizzes := bson.M{}
		for topic, score := range s.QuizScores {
			quizzes[topic] = bson.M{"Daily Quiz scores": score, "Daily Quiz counts": 3}
		}
		learning := bson.M{
			"Daily Quiz counts": quizzes,
			"skills":            sortedTopics(s.QuizScores),
		}
		rec := &shared.ReportRecord{AuthorID: s.AuthorID, ReportData: learning, UploadedBy: AdminID}
		if err := store.Upsert(ctx, report.KindLearning, rec); err != nil {
			log.Fatalf("Error seeding learning report for %s: %v", s.AuthorID, err)
		}

		attendance := report.ApplyMonthlyAttendance(bson.M{}, month, s.Attended)
		rec = &shared.ReportRecord{AuthorID: s.AuthorID, ReportData: attendance, UploadedBy: AdminID}
		if err := store.Upsert(ctx, report.KindAttendance, rec); err != nil {
			log.Fatalf("Error seeding attendance report for %s: %v", s.AuthorID, err)
		}

		grooming := bson.M{}
		for _, d := range s.MissedDates {
			day, err := time.Parse("2006-01-02", d)
			if err != nil {
				log.Fatalf("Bad seed date %q: %v", d, err)
			}
			report.ApplyGroomingMark(grooming, day, bson.M{
				"grooming": bson.M{"status": "missed"},
			})
		}
		if len(grooming) > 0 {
			rec = &shared.ReportRecord{AuthorID: s.AuthorID, ReportData: grooming, UploadedBy: TrainerID}
			if err := store.Upsert(ctx, report.KindGrooming, rec); err != nil {
				log.Fatalf("Error seeding grooming report for %s: %v", s.AuthorID, err)
			}
		}

		log.Printf("Seeded reports for %s", s.AuthorID)
	}
}

func sortedTopics(scores map[string]float64) []string {
	topics := make([]string, 0, len(scores))
	for t := range scores {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
