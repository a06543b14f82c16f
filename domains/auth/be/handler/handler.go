package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourbase-hq/reservations/domains/auth/be/service"
	"github.com/tourbase-hq/reservations/platform/go/httpapi"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
)

// Handler wires registration and session endpoints. These are the only
// unauthenticated routes besides health and metrics.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("auth service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the auth endpoints at the router root.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string     `json:"token"`
	UserID    uuid.UUID  `json:"userId"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	session, err := h.svc.Register(r.Context(), audit, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Token:    req.Token,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, toResponse(session))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	session, err := h.svc.Login(r.Context(), audit, service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toResponse(session))
}

// logout is a no-op server side; sessions are stateless tokens the client
// discards. The endpoint exists so clients have a uniform call to make.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpapi.WriteFieldErrors(w, validationErr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpapi.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		h.logger.Error("auth handler failure", zap.String("path", r.URL.Path), zap.Error(err))
		httpapi.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func toResponse(session service.Session) sessionResponse {
	return sessionResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		Name:      session.Name,
		Email:     session.Email,
		Role:      session.Role.String(),
		CompanyID: session.CompanyID,
	}
}
