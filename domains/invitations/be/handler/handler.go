package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourbase-hq/reservations/domains/invitations/be/service"
	"github.com/tourbase-hq/reservations/platform/go/httpapi"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
	"github.com/tourbase-hq/reservations/platform/go/role"
)

// Handler wires the invitations service to the HTTP surface.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("invitations service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the company-scoped invitation endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.issue)
}

type issueRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type invitationResponse struct {
	ID           uuid.UUID  `json:"invitationId"`
	Email        string     `json:"email"`
	CompanyID    uuid.UUID  `json:"companyId"`
	Role         string     `json:"role"`
	RegisteredAt *time.Time `json:"registeredAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return
	}

	var req issueRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	invitedRole, err := role.Parse(req.Role)
	if err != nil {
		httpapi.WriteFieldErrors(w, map[string][]string{"role": {"role must be owner or guide"}})
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	invitation, err := h.svc.Issue(r.Context(), audit, companyID, service.IssueInput{
		Email: req.Email,
		Role:  invitedRole,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, toResponse(invitation))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	invitations, err := h.svc.List(r.Context(), audit, companyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]invitationResponse, 0, len(invitations))
	for _, invitation := range invitations {
		items = append(items, toResponse(invitation))
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpapi.WriteFieldErrors(w, validationErr.Fields)
	case errors.Is(err, service.ErrCompanyNotFound):
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
	default:
		h.logger.Error("invitations handler failure", zap.String("path", r.URL.Path), zap.Error(err))
		httpapi.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func toResponse(invitation service.Invitation) invitationResponse {
	return invitationResponse{
		ID:           invitation.ID,
		Email:        invitation.Email,
		CompanyID:    invitation.CompanyID,
		Role:         invitation.Role.String(),
		RegisteredAt: invitation.RegisteredAt,
		CreatedAt:    invitation.CreatedAt,
	}
}
