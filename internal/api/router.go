package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dioscarr/Topapi/internal/api/handlers"
	"github.com/dioscarr/Topapi/internal/api/middleware"
	"github.com/dioscarr/Topapi/internal/api/respond"
	"github.com/dioscarr/Topapi/internal/apperr"
	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/config"
	"github.com/dioscarr/Topapi/internal/ratelimit"
)

const maxBodyBytes = 1 << 20

// Deps is the service context shared by every handler. It is built once at startup.
type Deps struct {
	Config      *config.Config
	Verifier    *auth.Verifier
	Accounts    handlers.Accounts
	Profiles    handlers.ProfileStore
	Inventory   handlers.InventoryStore
	Categories  handlers.CategoryStore
	Departments handlers.DepartmentStore
	Activity    handlers.ActivityStore
	// Tasks may be nil; inventory mutations are then not recorded in the activity log.
	Tasks   handlers.ActivityEnqueuer
	Limiter ratelimit.Limiter
	Metrics *middleware.Metrics
	Checks  []handlers.Check
}

type Router struct {
	mux  *chi.Mux
	deps Deps
}

func NewRouter(d Deps) *Router {
	return &Router{mux: chi.NewRouter(), deps: d}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux
	d := rt.deps

	// Global middleware
	r.Use(chimiddleware.RequestID)
	// the rate limiter keys on RemoteAddr, so forwarded headers are only honoured behind a trusted proxy
	if d.Config.Server.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
	}
	r.Use(middleware.CORS(d.Config.Server.AllowedOrigins))
	r.Use(middleware.MaxBytes(maxBodyBytes))
	r.Use(respond.WithMode(d.Config.Development()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, apperr.NotFound("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.ErrorEnvelope{
			Error: respond.ErrorBody{Message: "Method not allowed"},
		})
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(middleware.RateLimit(d.Limiter))
		}

		// Health endpoints (no auth)
		health := handlers.NewHealthHandler(d.Checks...)
		r.Get("/health", health.Liveness)
		r.Get("/health/db", health.Readiness)

		authH := handlers.NewAuthHandler(d.Accounts, d.Profiles)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authH.Login)
			r.Post("/refresh", authH.Refresh)
			r.Post("/reset-password", authH.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(d.Verifier.Authenticate)
				r.Get("/me", authH.Me)
				r.Post("/logout", authH.Logout)
				r.Post("/update-password", authH.UpdatePassword)

				r.With(auth.AdminOnly).Post("/signup", authH.Signup)
				r.With(auth.AdminOnly).Post("/admin/reset-password/{userId}", authH.AdminResetPassword)
			})
		})

		userH := handlers.NewUserHandler(d.Accounts, d.Profiles)
		r.Route("/users", func(r chi.Router) {
			r.Use(d.Verifier.Authenticate)
			r.With(auth.AdminOnly).Get("/", userH.List)
			r.Get("/{id}", userH.Get)
			r.Patch("/{id}", userH.Update)
			r.Delete("/{id}", userH.Delete)
		})

		// Profiles are readable without a token; a token, when sent, is still resolved.
		profileH := handlers.NewProfileHandler(d.Profiles)
		r.Route("/profiles", func(r chi.Router) {
			r.With(d.Verifier.OptionalAuthenticate).Get("/", profileH.List)
			r.With(d.Verifier.OptionalAuthenticate).Get("/{id}", profileH.Get)
			r.Group(func(r chi.Router) {
				r.Use(d.Verifier.Authenticate)
				r.Post("/", profileH.Create)
				r.Patch("/{id}", profileH.Update)
				r.Delete("/{id}", profileH.Delete)
			})
		})

		// Remaining resources require a principal for every verb.
		r.Group(func(r chi.Router) {
			r.Use(d.Verifier.Authenticate)

			inventoryH := handlers.NewInventoryHandler(d.Inventory, d.Tasks)
			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", inventoryH.List)
				r.Post("/", inventoryH.Create)
				r.Get("/{id}", inventoryH.Get)
				r.Patch("/{id}", inventoryH.Update)
				r.Delete("/{id}", inventoryH.Delete)
			})

			categoryH := handlers.NewCategoryHandler(d.Categories)
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", categoryH.List)
				r.Post("/", categoryH.Create)
				r.Get("/{id}", categoryH.Get)
				r.Patch("/{id}", categoryH.Update)
				r.Delete("/{id}", categoryH.Delete)
			})

			departmentH := handlers.NewDepartmentHandler(d.Departments)
			r.Route("/departments", func(r chi.Router) {
				r.Get("/", departmentH.List)
				r.Post("/", departmentH.Create)
				r.Get("/{id}", departmentH.Get)
				r.Patch("/{id}", departmentH.Update)
				r.Delete("/{id}", departmentH.Delete)
			})

			activityH := handlers.NewActivityHandler(d.Activity)
			r.Route("/activity-log", func(r chi.Router) {
				r.Get("/", activityH.List)
				r.Post("/", activityH.Create)
				r.Get("/{id}", activityH.Get)
				r.Delete("/{id}", activityH.Delete)
			})
		})
	})

	return r
}
