package societies

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

// Handler manages society registry endpoints.
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

// MountRoutes registers society routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceSocieties, shared.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceSocieties, shared.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceSocieties, shared.ActionUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require(shared.ResourceSocieties, shared.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

type societyResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	TotalUnits int       `json:"total_units"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toResponse(s Society) societyResponse {
	return societyResponse{
		ID:         s.ID.String(),
		Name:       s.Name,
		City:       s.City,
		State:      s.State,
		TotalUnits: s.TotalUnits,
		IsActive:   s.IsActive,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

type createSocietyRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	TotalUnits int    `json:"total_units" validate:"required,gt=0"`
	IsActive   *bool  `json:"is_active"`
}

type updateSocietyRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=255"`
	City       *string `json:"city" validate:"omitempty,min=1,max=100"`
	State      *string `json:"state" validate:"omitempty,min=1,max=100"`
	TotalUnits *int    `json:"total_units" validate:"omitempty,gt=0"`
	IsActive   *bool   `json:"is_active"`
}

type societyListResponse struct {
	Data       []societyResponse `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromQuery(r.URL.Query())
	all, pg, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list societies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]societyResponse, 0, len(all))
	for _, s := range all {
		out = append(out, toResponse(s))
	}
	httpx.JSON(w, http.StatusOK, societyListResponse{Data: out, Pagination: pg})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(s))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createSocietyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	s, err := h.service.Create(r.Context(), CreateInput{
		Name:       req.Name,
		City:       req.City,
		State:      req.State,
		TotalUnits: req.TotalUnits,
		IsActive:   req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "society.create", s.ID)
	httpx.JSON(w, http.StatusCreated, toResponse(s))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a valid id"))
		return
	}
	var req updateSocietyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationFields(err))
		return
	}
	s, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:       req.Name,
		City:       req.City,
		State:      req.State,
		TotalUnits: req.TotalUnits,
		IsActive:   req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, "society.update", s.ID)
	httpx.JSON(w, http.StatusOK, toResponse(s))
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
	h.recordAudit(r, "society.delete", id)
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
		Entity:   "society",
		EntityID: entityID.String(),
	})
	if err != nil {
		h.logger.Warn("record audit", slog.Any("error", err))
	}
}
