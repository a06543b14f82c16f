package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourbase-hq/reservations/domains/companies/be/service"
	"github.com/tourbase-hq/reservations/platform/go/auth"
	"github.com/tourbase-hq/reservations/platform/go/httpapi"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
	"github.com/tourbase-hq/reservations/platform/go/role"
)

// Handler wires the companies service to the HTTP surface. Company management
// is platform administration, not tenant administration, so it carries its own
// administrator check instead of the company-scoped guard.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("companies service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the company management endpoints on the API router. They
// are spelled out in full so the company-scoped subresources can mount their
// own subtrees next to them.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(requireAdministrator)
		g.Get("/companies", h.list)
		g.Post("/companies", h.create)
		g.Get("/companies/{companyID}", h.get)
		g.Put("/companies/{companyID}", h.update)
		g.Delete("/companies/{companyID}", h.delete)
	})
}

func requireAdministrator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			httpapi.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if principal.Role != role.Administrator {
			httpapi.WriteError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type companyRequest struct {
	Name string `json:"name"`
}

type companyResponse struct {
	ID        uuid.UUID `json:"companyId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	audit := requesttrace.FromContextOrAnonymous(r.Context())
	companies, err := h.svc.List(r.Context(), audit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]companyResponse, 0, len(companies))
	for _, company := range companies {
		items = append(items, toResponse(company))
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	company, err := h.svc.Create(r.Context(), audit, service.CreateInput{Name: req.Name})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, toResponse(company))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	company, err := h.svc.Get(r.Context(), audit, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toResponse(company))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return
	}

	var req companyRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	company, err := h.svc.Update(r.Context(), audit, id, service.UpdateInput{Name: req.Name})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toResponse(company))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	if err := h.svc.Delete(r.Context(), audit, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpapi.WriteFieldErrors(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
	default:
		h.logger.Error("companies handler failure", zap.String("path", r.URL.Path), zap.Error(err))
		httpapi.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func toResponse(company service.Company) companyResponse {
	return companyResponse{
		ID:        company.ID,
		Name:      company.Name,
		CreatedAt: company.CreatedAt,
		UpdatedAt: company.UpdatedAt,
	}
}
