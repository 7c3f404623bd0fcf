package societyadmins

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

// Handler manages society-admin binding endpoints.
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

// MountRoutes registers society-admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceSocieties, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceSocieties, shared.ActionManage))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type bindingResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SocietyID      string    `json:"society_id"`
	IsPrimaryAdmin bool      `json:"is_primary_admin"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(b Binding) bindingResponse {
	return bindingResponse{
		ID:             b.ID.String(),
		UserID:         b.UserID.String(),
		SocietyID:      b.SocietyID.String(),
		IsPrimaryAdmin: b.IsPrimaryAdmin,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

type createBindingRequest struct {
	UserID         string `json:"user_id" validate:"required,uuid"`
	SocietyID      string `json:"society_id" validate:"required,uuid"`
	IsPrimaryAdmin bool   `json:"is_primary_admin"`
}

type updateBindingRequest struct {
	IsPrimaryAdmin *bool `json:"is_primary_admin" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var userID, societyID *uuid.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("user_id", "must be a valid id"))
			return
		}
		userID = &id
	}
	if raw := r.URL.Query().Get("society_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("society_id", "must be a valid id"))
			return
		}
		societyID = &id
	}
	all, err := h.service.List(r.Context(), userID, societyID)
	if err != nil {
		h.logger.Error("list society admins", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]bindingResponse, 0, len(all))
	for _, b := range all {
		out = append(out, toResponse(b))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(b))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBindingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("user_id", "must be a valid id"))
		return
	}
	societyID, err := uuid.Parse(req.SocietyID)
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("society_id", "must be a valid id"))
		return
	}
	b, err := h.service.Create(r.Context(), CreateInput{
		UserID:         userID,
		SocietyID:      societyID,
		IsPrimaryAdmin: req.IsPrimaryAdmin,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "society_admin.create", b.ID)
	httpx.JSON(w, http.StatusCreated, toResponse(b))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	var req updateBindingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.IsPrimaryAdmin == nil {
		httpx.RespondError(w, shared.NewValidationError("is_primary_admin", "is required"))
		return
	}
	b, err := h.service.SetPrimary(r.Context(), id, *req.IsPrimaryAdmin)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "society_admin.update", b.ID)
	httpx.JSON(w, http.StatusOK, toResponse(b))
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
	h.recordAudit(r, "society_admin.delete", id)
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
		Entity:   "society_admin",
		EntityID: entityID.String(),
	})
	if err != nil {
		h.logger.Warn("record audit", slog.Any("error", err))
	}
}
