package authz

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/nivra-platform/nivra-core/internal/platform/httpx"
	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Middleware guards HTTP handlers with evaluator decisions.
type Middleware struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
}

// Require allows the request through only when the caller holds a permission
// covering the given resource and action. A society_id query parameter, when
// present on a society-scoped resource, narrows the check to that society.
func (m Middleware) Require(resource shared.ResourceType, action shared.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "caller identity required")
				return
			}

			var societyID *uuid.UUID
			if raw := r.URL.Query().Get("society_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					httpx.RespondError(w, shared.NewValidationError("society_id", "must be a valid id"))
					return
				}
				societyID = &id
			}

			decision, err := m.Evaluator.Evaluate(r.Context(), identity.UserID, resource, action, societyID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz evaluate",
						slog.String("user_id", identity.UserID.String()),
						slog.String("resource", string(resource)),
						slog.String("action", string(action)),
						slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if decision != Allow {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
