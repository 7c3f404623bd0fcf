package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nivra-platform/nivra-core/internal/permissions"
	"github.com/nivra-platform/nivra-core/internal/roles"
	"github.com/nivra-platform/nivra-core/internal/shared"
	"github.com/nivra-platform/nivra-core/internal/societies"
	"github.com/nivra-platform/nivra-core/internal/societyadmins"
	"github.com/nivra-platform/nivra-core/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Tokens      *shared.TokenStore
	Idempotency *shared.IdempotencyStore

	PermissionsHandler  *permissions.Handler
	RolesHandler        *roles.Handler
	UsersHandler        *users.Handler
	SocietiesHandler    *societies.Handler
	SocietyAdminHandler *societyadmins.Handler
}

// NewRouter constructs the chi.Router with platform defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Tokens:      params.Tokens,
		Idempotency: params.Idempotency,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.SocietiesHandler != nil {
		r.Route("/societies", params.SocietiesHandler.MountRoutes)
	}
	if params.SocietyAdminHandler != nil {
		r.Route("/society-admins", params.SocietyAdminHandler.MountRoutes)
	}

	return r
}
