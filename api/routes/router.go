package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridianerp/vendorhub-backend/api/controllers"
	"github.com/meridianerp/vendorhub-backend/api/middleware"
	"github.com/meridianerp/vendorhub-backend/internal/approvals"
	"github.com/meridianerp/vendorhub-backend/internal/auth"
	"github.com/meridianerp/vendorhub-backend/internal/changerequests"
	"github.com/meridianerp/vendorhub-backend/internal/documents"
	"github.com/meridianerp/vendorhub-backend/internal/matrix"
	"github.com/meridianerp/vendorhub-backend/internal/notifications"
	"github.com/meridianerp/vendorhub-backend/internal/users"
	"github.com/meridianerp/vendorhub-backend/internal/visibility"
	"github.com/meridianerp/vendorhub-backend/pkg/auth/session"
	"github.com/meridianerp/vendorhub-backend/pkg/config"
	"github.com/meridianerp/vendorhub-backend/pkg/db"
	"github.com/meridianerp/vendorhub-backend/pkg/logger"
	pkgredis "github.com/meridianerp/vendorhub-backend/pkg/redis"
)

// Services bundles every domain service the HTTP surface exposes.
type Services struct {
	Auth           auth.Service
	Register       auth.RegisterService
	AdminRegister  auth.AdminRegisterService
	Users          users.Service
	Matrices       matrix.Service
	Documents      documents.Service
	Approvals      approvals.Service
	Visibility     visibility.Service
	ChangeRequests changerequests.Service
	Notifications  notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	// A nil concrete client must stay nil once boxed into the interfaces.
	var idemStore pkgredis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	var cache pkgredis.Pinger
	if redisClient != nil {
		idemStore = redisClient
		limiterStore = redisClient
		cache = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cache, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		// Admin self-registration is a development convenience only.
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminAuthRegister(svcs.AdminRegister, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/me", controllers.CurrentUser(svcs.Users, logg))

		adminRole := cfg.Approvals.AdminRole

		r.Route("/matrices", func(r chi.Router) {
			r.Get("/", controllers.ListMatrices(svcs.Matrices, logg))
			r.Get("/{id}", controllers.GetMatrix(svcs.Matrices, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(adminRole, logg))
				r.Post("/", controllers.CreateMatrix(svcs.Matrices, logg))
				r.Put("/{id}", controllers.UpdateMatrix(svcs.Matrices, logg))
				r.Delete("/{id}", controllers.DeleteMatrix(svcs.Matrices, logg))
			})
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", controllers.CreateDocument(svcs.Documents, logg))
			r.Get("/", controllers.ListDocuments(svcs.Documents, logg))
			r.Get("/{id}", controllers.GetDocument(svcs.Documents, logg))
			r.Get("/{id}/can-approve", controllers.CanApproveDocument(svcs.Approvals, logg))
			r.Post("/{id}/decision", controllers.DecideDocument(svcs.Approvals, logg))
			r.Post("/{id}/change-request", controllers.OpenChangeRequest(svcs.ChangeRequests, logg))
			r.Post("/{id}/change-request/complete", controllers.CompleteChangeRequest(svcs.ChangeRequests, logg))
		})

		r.Route("/approvals", func(r chi.Router) {
			r.Post("/bulk", controllers.DecideBulk(svcs.Approvals, cfg.Approvals.BulkMaxDocuments, logg))
			r.Get("/pending", controllers.PendingApprovals(svcs.Visibility, logg))
			r.Get("/access-summary", controllers.AccessSummary(svcs.Visibility, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(adminRole, logg))
			r.Post("/{id}/roles", controllers.AssignUserRole(svcs.Users, logg))
			r.Delete("/{id}/roles", controllers.RevokeUserRole(svcs.Users, logg))
		})
	})

	return r
}
