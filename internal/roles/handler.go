package roles

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

// Handler manages role registry endpoints.
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

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceRoles, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/permissions", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceRoles, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceRoles, shared.ActionUpdate))
		r.Put("/{id}", h.update)
		r.Put("/{id}/permissions", h.setPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceRoles, shared.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

type roleResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PermissionIDs []string  `json:"permission_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toResponse(role Role) roleResponse {
	ids := make([]string, 0, len(role.PermissionIDs))
	for _, id := range role.PermissionIDs {
		ids = append(ids, id.String())
	}
	return roleResponse{
		ID:            role.ID.String(),
		Name:          role.Name,
		Description:   role.Description,
		PermissionIDs: ids,
		CreatedAt:     role.CreatedAt,
		UpdatedAt:     role.UpdatedAt,
	}
}

type createRoleRequest struct {
	Name          string   `json:"name" validate:"required,max=50"`
	Description   string   `json:"description" validate:"max=500"`
	PermissionIDs []string `json:"permission_ids" validate:"omitempty,dive,uuid"`
}

type updateRoleRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type setPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" validate:"required,dive,uuid"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(all))
	for _, role := range all {
		out = append(out, toResponse(role))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(role))
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	perms, err := h.service.ListPermissions(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	type permissionResponse struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Description  string `json:"description"`
		ResourceType string `json:"resource_type"`
		Action       string `json:"action"`
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse{
			ID:           p.ID.String(),
			Name:         p.Name,
			Description:  p.Description,
			ResourceType: string(p.ResourceType),
			Action:       string(p.Action),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	ids, verr := parseIDList(req.PermissionIDs)
	if verr != nil {
		httpx.RespondError(w, verr)
		return
	}
	role, err := h.service.Create(r.Context(), CreateInput{
		Name:          req.Name,
		Description:   req.Description,
		PermissionIDs: ids,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "role.create", role.ID)
	httpx.JSON(w, http.StatusCreated, toResponse(role))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	role, err := h.service.Update(r.Context(), id, UpdateInput{Name: req.Name, Description: req.Description})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "role.update", role.ID)
	httpx.JSON(w, http.StatusOK, toResponse(role))
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	var req setPermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	ids, verr := parseIDList(req.PermissionIDs)
	if verr != nil {
		httpx.RespondError(w, verr)
		return
	}
	role, err := h.service.SetPermissions(r.Context(), id, ids)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "role.set_permissions", role.ID)
	httpx.JSON(w, http.StatusOK, toResponse(role))
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
	h.recordAudit(r, "role.delete", id)
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
		Entity:   "role",
		EntityID: entityID.String(),
	})
	if err != nil {
		h.logger.Warn("record audit", slog.Any("error", err))
	}
}

func parseIDList(raw []string) ([]uuid.UUID, *shared.ValidationError) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, shared.NewValidationError("permission_ids", "must contain valid ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
