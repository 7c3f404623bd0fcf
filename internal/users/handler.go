package users

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

// Handler manages user directory endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceUsers, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceUsers, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceUsers, shared.ActionUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceUsers, shared.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

// userResponse deliberately has no password field; hashes never leave the
// directory through read operations.
type userResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	RoleID    string     `json:"role_id"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		RoleID:    u.RoleID.String(),
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	RoleID   string `json:"role_id" validate:"required,uuid"`
	IsActive *bool  `json:"is_active"`
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	RoleID   *string `json:"role_id" validate:"omitempty,uuid"`
	IsActive *bool   `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(all))
	for _, u := range all {
		out = append(out, toResponse(u))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("role_id", "must be a valid id"))
		return
	}
	u, err := h.service.Create(r.Context(), CreateInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		RoleID:   roleID,
		IsActive: req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "user.create", u.ID)
	httpx.JSON(w, http.StatusCreated, toResponse(u))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	in := UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		IsActive: req.IsActive,
	}
	if req.RoleID != nil {
		roleID, err := uuid.Parse(*req.RoleID)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("role_id", "must be a valid id"))
			return
		}
		in.RoleID = &roleID
	}
	u, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "user.update", u.ID)
	httpx.JSON(w, http.StatusOK, toResponse(u))
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
	h.recordAudit(r, "user.delete", id)
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
		Entity:   "user",
		EntityID: entityID.String(),
	})
	if err != nil {
		h.logger.Warn("record audit", slog.Any("error", err))
	}
}
