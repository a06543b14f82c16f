package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourbase-hq/reservations/domains/activities/be/service"
	"github.com/tourbase-hq/reservations/platform/go/httpapi"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
)

// maxImageSize caps uploaded activity photos at 10 MiB.
const maxImageSize = 10 << 20

// Handler wires the activities service to the HTTP surface. Create and update
// accept either JSON or multipart form data; only the latter can carry a photo.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("activities service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the company-scoped activity endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{activityID}", h.get)
	r.Put("/{activityID}", h.update)
	r.Delete("/{activityID}", h.delete)
}

type activityRequest struct {
	GuideID     *uuid.UUID `json:"guideId"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"startTime"`
	Price       *int64     `json:"price"`
}

type activityResponse struct {
	ID          uuid.UUID `json:"activityId"`
	CompanyID   uuid.UUID `json:"companyId"`
	GuideID     uuid.UUID `json:"guideId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	Price       int64     `json:"price"`
	Image       *string   `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	activities, err := h.svc.List(r.Context(), audit, companyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]activityResponse, 0, len(activities))
	for _, activity := range activities {
		items = append(items, toResponse(activity))
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return
	}

	req, image, err := h.parseRequest(r)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := service.CreateInput{Image: image}
	if req.GuideID != nil {
		input.GuideID = *req.GuideID
	}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.StartTime != nil {
		input.StartTime = *req.StartTime
	}
	if req.Price != nil {
		input.Price = *req.Price
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	activity, err := h.svc.Create(r.Context(), audit, companyID, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, toResponse(activity))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	companyID, activityID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	activity, err := h.svc.Get(r.Context(), audit, companyID, activityID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toResponse(activity))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	companyID, activityID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	req, image, err := h.parseRequest(r)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	activity, err := h.svc.Update(r.Context(), audit, companyID, activityID, service.UpdateInput{
		GuideID:     req.GuideID,
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		Price:       req.Price,
		Image:       image,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, toResponse(activity))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	companyID, activityID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	if err := h.svc.Delete(r.Context(), audit, companyID, activityID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseRequest reads either a JSON body or a multipart form. The multipart
// path is the only one that can carry an image part.
func (h *Handler) parseRequest(r *http.Request) (activityRequest, *service.ImageUpload, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req activityRequest
		if err := httpapi.DecodeJSON(r, &req); err != nil {
			return activityRequest{}, nil, err
		}
		return req, nil, nil
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		return activityRequest{}, nil, errors.New("invalid multipart form")
	}

	var req activityRequest
	if v := r.FormValue("guideId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return activityRequest{}, nil, errors.New("guideId must be a valid UUID")
		}
		req.GuideID = &id
	}
	if v := r.FormValue("name"); v != "" {
		req.Name = &v
	}
	if v := r.FormValue("description"); v != "" {
		req.Description = &v
	}
	if v := r.FormValue("startTime"); v != "" {
		startTime, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return activityRequest{}, nil, errors.New("startTime must be an RFC 3339 timestamp")
		}
		req.StartTime = &startTime
	}
	if v := r.FormValue("price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return activityRequest{}, nil, errors.New("price must be an integer")
		}
		req.Price = &price
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil, nil
		}
		return activityRequest{}, nil, errors.New("invalid image part")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return activityRequest{}, nil, errors.New("failed to read image part")
	}
	if len(content) > maxImageSize {
		return activityRequest{}, nil, errors.New("image exceeds the 10 MiB limit")
	}

	return req, &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func (h *Handler) parseIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	companyID, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "company not found")
		return uuid.Nil, uuid.Nil, false
	}

	activityID, err := uuid.Parse(chi.URLParam(r, "activityID"))
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "activity not found")
		return uuid.Nil, uuid.Nil, false
	}

	return companyID, activityID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpapi.WriteFieldErrors(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		httpapi.WriteError(w, http.StatusNotFound, "activity not found")
	default:
		h.logger.Error("activities handler failure", zap.String("path", r.URL.Path), zap.Error(err))
		httpapi.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func toResponse(activity service.Activity) activityResponse {
	return activityResponse{
		ID:          activity.ID,
		CompanyID:   activity.CompanyID,
		GuideID:     activity.GuideID,
		Name:        activity.Name,
		Description: activity.Description,
		StartTime:   activity.StartTime,
		Price:       activity.Price,
		Image:       activity.Image,
		CreatedAt:   activity.CreatedAt,
		UpdatedAt:   activity.UpdatedAt,
	}
}
