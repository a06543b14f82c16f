package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourbase-hq/reservations/domains/users/be/service"
	"github.com/tourbase-hq/reservations/platform/go/httpapi"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
	"github.com/tourbase-hq/reservations/platform/go/role"
)

// Handler wires the users service to the HTTP surface.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("users service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the company-scoped member endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{userID}", h.get)
	r.Put("/{userID}", h.update)
	r.Delete("/{userID}", h.delete)
}

type updateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type userResponse struct {
	ID        uuid.UUID  `json:"userId"`
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
	Role      string     `json:"role"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// guideOption is the trimmed shape used to populate assignment dropdowns.
type guideOption struct {
	ID   uuid.UUID `json:"userId"`
	Name string    `json:"name"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return
	}

	roleName := r.URL.Query().Get("role")
	if roleName == "" {
		roleName = "guide"
	}
	memberRole, err := role.Parse(roleName)
	if err != nil {
		httpapi.WriteFieldErrors(w, map[string][]string{"role": {"role must be owner or guide"}})
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	users, err := h.svc.ListMembers(r.Context(), audit, companyID, memberRole)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, toResponse(user))
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// GuideOptions serves the guide list used when assigning activities.
func (h *Handler) GuideOptions(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	guides, err := h.svc.ListMembers(r.Context(), audit, companyID, role.Guide)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]guideOption, 0, len(guides))
	for _, guide := range guides {
		items = append(items, guideOption{ID: guide.ID, Name: guide.Name})
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	companyID, userID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	user, err := h.svc.Get(r.Context(), audit, companyID, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toResponse(user))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	companyID, userID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	user, err := h.svc.Update(r.Context(), audit, companyID, userID, service.UpdateInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toResponse(user))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	companyID, userID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	if err := h.svc.Delete(r.Context(), audit, companyID, userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return uuid.Nil, uuid.Nil, false
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "user not found")
		return uuid.Nil, uuid.Nil, false
	}

	return companyID, userID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpapi.WriteFieldErrors(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		httpapi.WriteError(w, http.StatusNotFound, "user not found")
	default:
		h.logger.Error("users handler failure", zap.String("path", r.URL.Path), zap.Error(err))
		httpapi.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func toResponse(user service.User) userResponse {
	return userResponse{
		ID:        user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role.String(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
