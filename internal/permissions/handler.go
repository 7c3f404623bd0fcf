package permissions

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nivra-platform/nivra-core/internal/authz"
	"github.com/nivra-platform/nivra-core/internal/platform/httpx"
	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Handler manages permission catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	audit    *shared.AuditLogger
	authz    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger, authz authz.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		audit:    audit,
		authz:    authz,
		validate: httpx.NewValidator(),
	}
}

// MountRoutes registers permission routes. The catalog is administered under
// the "roles" resource since permissions exist only to be granted to roles.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceRoles, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceRoles, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceRoles, shared.ActionUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceRoles, shared.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

type permissionResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ResourceType string    `json:"resource_type"`
	Action       string    `json:"action"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toResponse(p Permission) permissionResponse {
	return permissionResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Description:  p.Description,
		ResourceType: string(p.ResourceType),
		Action:       string(p.Action),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type createPermissionRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"max=500"`
	ResourceType string `json:"resource_type" validate:"required"`
	Action       string `json:"action" validate:"required"`
}

type updatePermissionRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	ResourceType *string `json:"resource_type"`
	Action       *string `json:"action"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, toResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	p, err := h.service.Create(r.Context(), CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		ResourceType: shared.ResourceType(req.ResourceType),
		Action:       shared.Action(req.Action),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "permission.create", p.ID)
	httpx.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	var req updatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	in := UpdateInput{Name: req.Name, Description: req.Description}
	if req.ResourceType != nil {
		rt := shared.ResourceType(*req.ResourceType)
		in.ResourceType = &rt
	}
	if req.Action != nil {
		a := shared.Action(*req.Action)
		in.Action = &a
	}
	p, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "permission.update", p.ID)
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "permission.delete", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordAudit(r *http.Request, action string, entityID uuid.UUID) {
	if h.audit == nil {
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())
	err := h.audit.Record(r.Context(), shared.AuditEntry{
		ActorID:  identity.UserID,
		Action:   action,
		Entity:   "permission",
		EntityID: entityID.String(),
	})
	if err != nil {
		h.logger.Warn("record audit", slog.Any("error", err))
	}
}
