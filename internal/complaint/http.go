package complaint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civicflow/api/internal/building"
	httpmiddleware "github.com/civicflow/api/internal/http/middleware"
	"github.com/civicflow/api/internal/identity"
	"github.com/civicflow/api/internal/occupancy"
	"github.com/civicflow/api/internal/storage"
	"github.com/civicflow/api/internal/util"
)

const (
	maxUploadBytes = 10 << 20
	maxImages      = 5
)

// Handler exposes the resident and worker complaint routes.
type Handler struct {
	service  *Service
	uploader storage.Uploader
}

// NewHandler creates the handler.
func NewHandler(service *Service, uploader storage.Uploader) *Handler {
	return &Handler{service: service, uploader: uploader}
}

// RegisterRoutes mounts the complaint routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/complaints", func(r chi.Router) {
		r.Post("/", h.handleRaise)
		r.Get("/mine", h.handleListMine)

		r.Route("/worker", func(r chi.Router) {
			r.Get("/available", h.handleListAvailable)
			r.Get("/tasks", h.handleListTasks)
			r.Get("/completed", h.handleListCompleted)
			r.Put("/{id}/accept", h.handleAccept)
			r.Put("/{id}/start", h.handleStart)
			r.Put("/{id}/complete", h.handleComplete)
		})
	})
}

type raisePayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Department  string   `json:"department"`
	Block       string   `json:"block"`
	Floor       int      `json:"floor"`
	RoomNumber  int      `json:"room_number"`
	Images      []string `json:"images"`
}

func (h *Handler) handleRaise(w http.ResponseWriter, r *http.Request) {
	residentID, ok := h.requireRole(w, r, identity.RoleResident)
	if !ok {
		return
	}

	payload, err := h.decodeRaise(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	created, err := h.service.Raise(r.Context(), residentID, CreateInput{
		Department:  payload.Department,
		Title:       payload.Title,
		Description: payload.Description,
		Images:      payload.Images,
		Unit:        occupancy.UnitAddress{Block: payload.Block, Floor: payload.Floor, RoomNumber: payload.RoomNumber},
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"complaint": created})
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	residentID, ok := h.requireRole(w, r, identity.RoleResident)
	if !ok {
		return
	}

	complaints, err := h.service.ListMine(r.Context(), residentID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"complaints": complaints})
}

func (h *Handler) handleListAvailable(w http.ResponseWriter, r *http.Request) {
	workerID, ok := h.requireRole(w, r, identity.RoleWorker)
	if !ok {
		return
	}

	complaints, err := h.service.ListAvailable(r.Context(), workerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"complaints": complaints})
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	workerID, ok := h.requireRole(w, r, identity.RoleWorker)
	if !ok {
		return
	}

	complaints, err := h.service.ListTasks(r.Context(), workerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"complaints": complaints})
}

func (h *Handler) handleListCompleted(w http.ResponseWriter, r *http.Request) {
	workerID, ok := h.requireRole(w, r, identity.RoleWorker)
	if !ok {
		return
	}

	complaints, err := h.service.ListCompleted(r.Context(), workerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"complaints": complaints})
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Accept)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Start)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Complete)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, uuid.UUID) (*Complaint, error)) {
	workerID, ok := h.requireRole(w, r, identity.RoleWorker)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid complaint id", nil)
		return
	}

	updated, err := op(r.Context(), id, workerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"complaint": updated})
}

// decodeRaise accepts either a JSON body or a multipart form with image
// files, which are pushed to the blob store and recorded as URLs.
func (h *Handler) decodeRaise(r *http.Request) (*raisePayload, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var payload raisePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, errors.New("invalid JSON")
		}
		return &payload, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errors.New("invalid multipart form")
	}

	floor, err := strconv.Atoi(r.FormValue("floor"))
	if err != nil {
		return nil, errors.New("invalid floor")
	}
	roomNumber, err := strconv.Atoi(r.FormValue("room_number"))
	if err != nil {
		return nil, errors.New("invalid room number")
	}

	payload := raisePayload{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Department:  r.FormValue("department"),
		Block:       r.FormValue("block"),
		Floor:       floor,
		RoomNumber:  roomNumber,
	}

	files := r.MultipartForm.File["images"]
	if len(files) > maxImages {
		return nil, fmt.Errorf("at most %d images allowed", maxImages)
	}

	for _, header := range files {
		url, err := h.uploadImage(r.Context(), header)
		if err != nil {
			return nil, err
		}
		payload.Images = append(payload.Images, url)
	}

	return &payload, nil
}

func (h *Handler) uploadImage(ctx context.Context, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", errors.New("unreadable image upload")
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return "", errors.New("unreadable image upload")
	}

	result, err := h.uploader.Upload(ctx, storage.UploadInput{
		Key:         fmt.Sprintf("complaints/%s-%s", uuid.NewString(), header.Filename),
		Body:        body,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		return "", err
	}
	return result.URL, nil
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, role string) (uuid.UUID, bool) {
	subject, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "invalid identity", nil)
		return uuid.Nil, false
	}
	if !strings.EqualFold(httpmiddleware.GetRole(r.Context()), role) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "no access", nil)
		return uuid.Nil, false
	}
	return subject, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "complaint not found", nil)
	case errors.Is(err, ErrAlreadyProcessed), errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidTransition):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrDepartmentMismatch), errors.Is(err, ErrNotOwner):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, ErrUnknownResident), errors.Is(err, ErrUnknownWorker),
		errors.Is(err, ErrInvalidStatus), errors.Is(err, identity.ErrInvalidDepartment),
		errors.Is(err, building.ErrUnknownBlock), errors.Is(err, building.ErrFloorOutOfRange),
		errors.Is(err, building.ErrRoomOutOfRange), errors.Is(err, util.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, identity.ErrProfileNotFound):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "worker profile not found", nil)
	default:
		log.Error().Err(err).Msg("complaint operation failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message, Details: details}})
}
