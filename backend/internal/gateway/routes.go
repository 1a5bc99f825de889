package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"traintrack/backend/internal/attendance"
	"traintrack/backend/internal/auth"
	"traintrack/backend/internal/gateway/handlers"
	"traintrack/backend/internal/gateway/util"
	"traintrack/backend/internal/grooming"
	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/joiner"
	"traintrack/backend/internal/performance"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
	"traintrack/backend/internal/sheetsync"
	"traintrack/backend/internal/upload"
)

// Services collects everything the router wires together.
type Services struct {
	Auth        *auth.Service
	Identity    *identity.Service
	Store       *report.Store
	Uploader    *upload.Coordinator
	Performance *performance.Service
	Attendance  *attendance.Service
	Grooming    *grooming.Service
	Joiners     *joiner.Service
	Sync        *sheetsync.Service
}

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(svc *Services, corsCfg shared.CORSConfig) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   corsCfg.AllowedMethods,
		AllowedHeaders:   corsCfg.AllowedHeaders,
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           corsCfg.MaxAge,
	}))

	// 2. Initialize Handlers
	authHandler := &handlers.AuthHandler{Auth: svc.Auth}
	userHandler := &handlers.UserHandler{Identity: svc.Identity}
	reportHandler := &handlers.ReportHandler{
		Uploader:    svc.Uploader,
		Store:       svc.Store,
		Identity:    svc.Identity,
		Performance: svc.Performance,
	}
	attendanceHandler := &handlers.AttendanceHandler{Attendance: svc.Attendance}
	groomingHandler := &handlers.GroomingHandler{Grooming: svc.Grooming}
	joinerHandler := &handlers.JoinerHandler{Joiners: svc.Joiners}
	syncHandler := &handlers.SheetSyncHandler{Sync: svc.Sync}

	// 3. Define Routes (grouped by prefix)
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---
		r.Post("/auth/login", authHandler.Login)

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(svc.Auth))

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/register", authHandler.Register)

			// User directory
			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.ListUsers)
				r.Post("/validate-author-id", userHandler.ValidateAuthorID)
				r.Get("/{author_id}", userHandler.GetUser)
			})

			// Candidate reports
			r.Route("/candidate-reports", func(r chi.Router) {
				r.Post("/bulk-upload", reportHandler.BulkUpload)
				r.Get("/{author_id}", reportHandler.GetCandidate)
				r.Get("/{author_id}/{kind}", reportHandler.GetReport)
				r.Put("/{author_id}/{kind}", reportHandler.UpdateReport)
			})

			// Dashboard rollups
			r.Route("/performers", func(r chi.Router) {
				r.Get("/", reportHandler.ListCandidates)
				r.Get("/top", reportHandler.TopPerformers)
				r.Get("/low", reportHandler.LowPerformers)
			})

			// Attendance
			r.Route("/attendance", func(r chi.Router) {
				r.Post("/clock-in", attendanceHandler.ClockIn)
				r.Post("/clock-out", attendanceHandler.ClockOut)
				r.Get("/history", attendanceHandler.History)
				r.Post("/mark", attendanceHandler.Mark)
			})

			// Grooming
			r.Route("/grooming", func(r chi.Router) {
				r.Post("/mark", groomingHandler.Mark)
				r.Get("/{author_id}", groomingHandler.GetReport)
			})

			// Joiner intake
			r.Route("/joiners", func(r chi.Router) {
				r.Post("/", joinerHandler.Create)
				r.Get("/", joinerHandler.List)
				r.Get("/stats", joinerHandler.Stats)
				r.Get("/{id}", joinerHandler.Get)
				r.Put("/{id}", joinerHandler.Update)
				r.Delete("/{id}", joinerHandler.Delete)
			})

			// Sheets export bridge
			r.Route("/sheets", func(r chi.Router) {
				r.Post("/sync", syncHandler.SyncAll)
				r.Post("/sync/users", syncHandler.SyncUsers)
				r.Post("/sync/joiners", syncHandler.SyncJoiners)
				r.Post("/sync/reports/{kind}", syncHandler.SyncReports)
			})
		})
	})

	return r
}

// AuthMiddleware creates a middleware that validates JWT tokens and injects
// the actor into the request context.
func AuthMiddleware(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			claims, err := authSvc.ValidateToken(tokenStr)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			actor := &util.Actor{
				UserID:   claims.UserID,
				AuthorID: claims.AuthorID,
				Email:    claims.Email,
				Role:     claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(util.WithActor(r.Context(), actor)))
		})
	}
}
