// ============================================================================
// backend/internal/performance/service.go
// Aggregated candidate performance views and dashboard rollups
// ============================================================================

package performance

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/joiner"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/scoring"
	"traintrack/backend/internal/shared"
)

// CandidateView is the derived, never persisted, performance read for one
// candidate. It is recomputed from the stored reports on every request.
type CandidateView struct {
	AuthorID    string     `json:"author_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Phone       string     `json:"phone,omitempty"`
	Department  string     `json:"department,omitempty"`
	EmployeeID  string     `json:"employeeId,omitempty"`
	JoiningDate *time.Time `json:"joiningDate,omitempty"`

	LearningReport   bson.M `json:"learningReport,omitempty"`
	AttendanceReport bson.M `json:"attendanceReport,omitempty"`
	GroomingReport   bson.M `json:"groomingReport,omitempty"`
	// Interactions payloads may be object- or array-shaped.
	InteractionsReport interface{} `json:"interactionsReport,omitempty"`

	ExamAverages     scoring.ExamAverages                     `json:"examAverages"`
	DemoAverages     scoring.DemoAverages                     `json:"demoAverages"`
	CourseCompletion map[string]scoring.CourseCompletionEntry `json:"courseCompletion"`
	LearningPhase    string                                   `json:"learningPhase"`
	OverallScore     int                                      `json:"overallScore"`
}

// ListOptions filters and bounds a dashboard listing.
type ListOptions struct {
	Phase    string // fast, average, slow, unknown
	MinScore int    // keep candidates at or above this score
	MaxScore int    // keep candidates at or below this score, 0 means no cap
	Limit    int
}

// Service assembles candidate performance views.
type Service struct {
	identity *identity.Service
	store    *report.Store
	joiners  *joiner.Service
}

// NewService creates a new performance Service instance
func NewService(identitySvc *identity.Service, store *report.Store, joinerSvc *joiner.Service) *Service {
	return &Service{identity: identitySvc, store: store, joiners: joinerSvc}
}

// CandidateView builds the full performance read for one author_id. The
// stored learning payload is normalized to metric-keyed form regardless of
// the shape it was stored in.
func (s *Service) CandidateView(ctx context.Context, authorID string) (*CandidateView, error) {
	user, err := s.identity.FindByAuthorID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	reports, err := s.store.ForAuthor(ctx, user.AuthorID)
	if err != nil {
		return nil, err
	}

	view := s.buildView(user, reports)

	// The joiner record carries the official employee id. Missing joiner is
	// normal; a lookup failure must not fail the read.
	j, err := s.joiners.FindForCandidate(ctx, user.AuthorID, user.Email)
	if err != nil {
		if shared.KindOf(err) != shared.KindNotFound {
			log.Printf("[PerformanceService] Joiner lookup failed for %s: %v", user.AuthorID, err)
		}
	} else if j.EmployeeID != "" {
		view.EmployeeID = j.EmployeeID
	}

	return view, nil
}

// AllCandidates builds views for every trainee in one pass: the directory
// listing and the four report collections are each fetched wholesale rather
// than per candidate.
func (s *Service) AllCandidates(ctx context.Context, opts *ListOptions) ([]*CandidateView, error) {
	var users []shared.User
	byKind := make(map[report.Kind]map[string]*shared.ReportRecord)
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.identity.ListMerged(gCtx, &shared.UserFilter{Role: shared.RoleTrainee})
		return err
	})
	for _, kind := range report.Kinds {
		kind := kind
		g.Go(func() error {
			recs, err := s.store.All(gCtx, kind)
			if err != nil {
				return err
			}
			indexed := make(map[string]*shared.ReportRecord, len(recs))
			for i := range recs {
				indexed[strings.TrimSpace(recs[i].AuthorID)] = &recs[i]
			}
			mu.Lock()
			byKind[kind] = indexed
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]*CandidateView, 0, len(users))
	for i := range users {
		user := &users[i]
		key := strings.TrimSpace(user.AuthorID)
		reports := make(map[report.Kind]*shared.ReportRecord, len(report.Kinds))
		for _, kind := range report.Kinds {
			if rec := byKind[kind][key]; rec != nil {
				reports[kind] = rec
			}
		}
		view := s.buildView(user, reports)
		if matches(view, opts) {
			views = append(views, view)
		}
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].OverallScore > views[j].OverallScore
	})

	if opts != nil && opts.Limit > 0 && len(views) > opts.Limit {
		views = views[:opts.Limit]
	}
	return views, nil
}

// TopPerformers returns the n highest scoring trainees.
func (s *Service) TopPerformers(ctx context.Context, n int) ([]*CandidateView, error) {
	if n <= 0 {
		n = 5
	}
	return s.AllCandidates(ctx, &ListOptions{Limit: n})
}

// LowPerformers returns trainees scoring at or below the threshold, worst
// first.
func (s *Service) LowPerformers(ctx context.Context, threshold int, n int) ([]*CandidateView, error) {
	if threshold <= 0 {
		threshold = 50
	}
	views, err := s.AllCandidates(ctx, &ListOptions{MaxScore: threshold})
	if err != nil {
		return nil, err
	}
	// Worst first.
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
	if n > 0 && len(views) > n {
		views = views[:n]
	}
	return views, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func (s *Service) buildView(user *shared.User, reports map[report.Kind]*shared.ReportRecord) *CandidateView {
	view := &CandidateView{
		AuthorID:    user.AuthorID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Phone:       user.PhoneValue(),
		Department:  user.Department,
		EmployeeID:  user.EmployeeID,
		JoiningDate: user.JoinedAt(),
	}

	if rec := reports[report.KindLearning]; rec != nil {
		if m, err := shared.GetMap(rec.ReportData); err == nil {
			view.LearningReport = report.ToCanonical(m)
		}
	}
	if rec := reports[report.KindAttendance]; rec != nil {
		if m, err := shared.GetMap(rec.ReportData); err == nil {
			view.AttendanceReport = m
		}
	}
	if rec := reports[report.KindGrooming]; rec != nil {
		if m, err := shared.GetMap(rec.ReportData); err == nil {
			view.GroomingReport = m
		}
	}
	if rec := reports[report.KindInteractions]; rec != nil {
		view.InteractionsReport = rec.ReportData
	}

	view.ExamAverages = scoring.ExamAveragesOf(view.LearningReport)
	view.DemoAverages = scoring.DemoAveragesOf(view.LearningReport)
	view.CourseCompletion = scoring.CourseCompletionOf(view.LearningReport)
	view.LearningPhase = scoring.LearningPhase(view.CourseCompletion)
	view.OverallScore = scoring.OverallScore(
		view.ExamAverages,
		report.MonthlyPercentages(view.AttendanceReport),
		report.MonthlyMissedCounts(view.GroomingReport),
	)
	return view
}

func matches(view *CandidateView, opts *ListOptions) bool {
	if opts == nil {
		return true
	}
	if opts.Phase != "" && view.LearningPhase != opts.Phase {
		return false
	}
	if opts.MinScore > 0 && view.OverallScore < opts.MinScore {
		return false
	}
	if opts.MaxScore > 0 && view.OverallScore > opts.MaxScore {
		return false
	}
	return true
}
