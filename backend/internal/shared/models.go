// ============================================================================
// backend/internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ============================================================================
// Collection Names
// ============================================================================

const (
	ColUsers        = "users"     // legacy schema
	ColUsersNew     = "users_new" // current schema
	ColJoiners      = "joiners"
	ColAttendance   = "attendance" // daily punch records
	ColLearning     = "learning_reports"
	ColAttendanceRp = "attendance_reports"
	ColGrooming     = "grooming_reports"
	ColInteractions = "interactions_reports"
)

// ============================================================================
// User Models
// ============================================================================

// User represents a candidate/trainer/admin account. The same struct decodes
// documents from both the legacy `users` and the current `users_new`
// collections; fields only one schema carries are omitempty.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID string             `bson:"author_id,omitempty" json:"author_id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password,omitempty" json:"-"` // Never expose in JSON
	Role     string             `bson:"role" json:"role"`            // trainee, trainer, admin, boa

	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
	PhoneNumber string `bson:"phone_number,omitempty" json:"phone_number,omitempty"` // legacy spelling
	Department  string `bson:"department,omitempty" json:"department,omitempty"`
	State       string `bson:"state,omitempty" json:"state,omitempty"`
	EmployeeID  string `bson:"employeeId,omitempty" json:"employeeId,omitempty"`

	Qualification  string `bson:"qualification,omitempty" json:"qualification,omitempty"`
	Specialization string `bson:"specialization,omitempty" json:"specialization,omitempty"`
	YearOfPassing  string `bson:"yearOfPassing,omitempty" json:"yearOfPassing,omitempty"`
	YearOfPassout  string `bson:"yearOfPassout,omitempty" json:"yearOfPassout,omitempty"` // legacy spelling

	JoiningDate   *time.Time `bson:"joiningDate,omitempty" json:"joiningDate,omitempty"`
	DateOfJoining *time.Time `bson:"date_of_joining,omitempty" json:"date_of_joining,omitempty"` // legacy spelling

	IsActive bool   `bson:"isActive" json:"isActive"`
	Status   string `bson:"status,omitempty" json:"status,omitempty"`

	AssignedTrainer  *primitive.ObjectID  `bson:"assignedTrainer,omitempty" json:"assignedTrainer,omitempty"`
	AssignedTrainees []primitive.ObjectID `bson:"assignedTrainees,omitempty" json:"assignedTrainees,omitempty"`

	LastClockIn  *time.Time `bson:"lastClockIn,omitempty" json:"lastClockIn,omitempty"`
	LastClockOut *time.Time `bson:"lastClockOut,omitempty" json:"lastClockOut,omitempty"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Key returns the identifier the directory dedupes on: lowercased email,
// falling back to author_id, falling back to the database id.
func (u *User) Key() string {
	if u.Email != "" {
		return strings.ToLower(u.Email)
	}
	if u.AuthorID != "" {
		return u.AuthorID
	}
	return u.ID.Hex()
}

// PhoneValue returns whichever phone spelling the document carries.
func (u *User) PhoneValue() string {
	if u.Phone != "" {
		return u.Phone
	}
	return u.PhoneNumber
}

// JoinedAt returns whichever joining-date spelling the document carries,
// falling back to the creation timestamp.
func (u *User) JoinedAt() *time.Time {
	if u.JoiningDate != nil {
		return u.JoiningDate
	}
	if u.DateOfJoining != nil {
		return u.DateOfJoining
	}
	if !u.CreatedAt.IsZero() {
		t := u.CreatedAt
		return &t
	}
	return nil
}

// ============================================================================
// Joiner Model
// ============================================================================

// Joiner is the pre-account intake record for a candidate.
type Joiner struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID                string             `bson:"author_id,omitempty" json:"author_id,omitempty"`
	Name                    string             `bson:"name" json:"name"`
	Email                   string             `bson:"email" json:"email"`
	CandidatePersonalMailID string             `bson:"candidate_personal_mail_id,omitempty" json:"candidate_personal_mail_id,omitempty"`
	Phone                   string             `bson:"phone,omitempty" json:"phone,omitempty"`
	EmployeeID              string             `bson:"employeeId,omitempty" json:"employeeId,omitempty"`
	Department              string             `bson:"department,omitempty" json:"department,omitempty"`
	Role                    string             `bson:"role,omitempty" json:"role,omitempty"`
	RoleAssign              string             `bson:"role_assign,omitempty" json:"role_assign,omitempty"`
	Qualification           string             `bson:"qualification,omitempty" json:"qualification,omitempty"`
	Genre                   string             `bson:"genre,omitempty" json:"genre,omitempty"`
	JoiningDate             *time.Time         `bson:"joiningDate,omitempty" json:"joiningDate,omitempty"`
	Status                  string             `bson:"status,omitempty" json:"status,omitempty"` // pending, joined, dropped
	AccountCreated          bool               `bson:"accountCreated" json:"accountCreated"`
	CreatedAt               time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt               time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// ============================================================================
// Report Models
// ============================================================================

// ReportRecord is one live report document for an (author_id, kind) pair.
// ReportData is intentionally loose: per-kind shapes are documented in the
// report package. Most kinds are object-shaped; interactions payloads may
// also be an array of entries, so the field is not typed bson.M.
type ReportRecord struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AuthorID      string              `bson:"author_id" json:"author_id"`
	User          *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	ReportData    interface{}         `bson:"reportData" json:"reportData"`
	UploadedBy    string              `bson:"uploadedBy" json:"uploadedBy"`
	UploadedAt    time.Time           `bson:"uploadedAt" json:"uploadedAt"`
	LastUpdatedAt time.Time           `bson:"lastUpdatedAt" json:"lastUpdatedAt"`
}

// ============================================================================
// Daily Attendance Model (clock-in/clock-out punches)
// ============================================================================

// Punch holds one clock event.
type Punch struct {
	Time      *time.Time `bson:"time,omitempty" json:"time,omitempty"`
	Location  string     `bson:"location,omitempty" json:"location,omitempty"`
	IPAddress string     `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
}

// DailyAttendance is one per-user-per-day punch record.
type DailyAttendance struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User        primitive.ObjectID  `bson:"user" json:"user"`
	Date        time.Time           `bson:"date" json:"date"` // midnight, local
	ClockIn     Punch               `bson:"clockIn,omitempty" json:"clockIn,omitempty"`
	ClockOut    Punch               `bson:"clockOut,omitempty" json:"clockOut,omitempty"`
	TotalHours  float64             `bson:"totalHours,omitempty" json:"totalHours,omitempty"`
	IsFullDay   bool                `bson:"isFullDay,omitempty" json:"isFullDay,omitempty"`
	Status      string              `bson:"status,omitempty" json:"status,omitempty"` // present, absent, half_day, overtime
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	IsValidated bool                `bson:"isValidated,omitempty" json:"isValidated,omitempty"`
	ValidatedBy *primitive.ObjectID `bson:"validatedBy,omitempty" json:"validatedBy,omitempty"`
	ValidatedAt *time.Time          `bson:"validatedAt,omitempty" json:"validatedAt,omitempty"`
}

// ============================================================================
// Filter/Query Models
// ============================================================================

// UserFilter represents filters for merged user listings
type UserFilter struct {
	Role       string `json:"role,omitempty"`
	Email      string `json:"email,omitempty"`
	ActiveOnly bool   `json:"active_only"`
	Unassigned bool   `json:"unassigned"` // trainees without a trainer
}

// ============================================================================
// Validation Constants
// ============================================================================

const (
	// User roles
	RoleTrainee = "trainee"
	RoleTrainer = "trainer"
	RoleAdmin   = "admin"
	RoleBOA     = "boa"

	// Daily attendance statuses
	AttendancePresent  = "present"
	AttendanceAbsent   = "absent"
	AttendanceHalfDay  = "half_day"
	AttendanceOvertime = "overtime"

	// Joiner statuses
	JoinerPending = "pending"
	JoinerJoined  = "joined"
	JoinerDropped = "dropped"
)

// IsValidRole checks if user role is valid
func IsValidRole(role string) bool {
	validRoles := map[string]bool{
		RoleTrainee: true, RoleTrainer: true, RoleAdmin: true, RoleBOA: true,
	}
	return validRoles[role]
}

// IsValidAttendanceStatus checks if a daily attendance status is valid
func IsValidAttendanceStatus(status string) bool {
	validStatuses := map[string]bool{
		AttendancePresent: true, AttendanceAbsent: true,
		AttendanceHalfDay: true, AttendanceOvertime: true,
	}
	return validStatuses[status]
}
