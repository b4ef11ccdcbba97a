package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civicflow/api/internal/building"
	"github.com/civicflow/api/internal/complaint"
	"github.com/civicflow/api/internal/identity"
	"github.com/civicflow/api/internal/occupancy"
)

const dashboardRecentLimit = 5

// AdminHandler exposes the management panel: dashboard, residents, workers,
// buildings and complaint oversight.
type AdminHandler struct {
	identity   *identity.Service
	buildings  *building.Service
	complaints *complaint.Service
}

// NewAdminHandler creates the handler.
func NewAdminHandler(identitySvc *identity.Service, buildings *building.Service, complaints *complaint.Service) *AdminHandler {
	return &AdminHandler{identity: identitySvc, buildings: buildings, complaints: complaints}
}

// RegisterRoutes mounts the admin routes. Callers must guard the router
// group with the admin role.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/dashboard", h.handleDashboard)

		r.Route("/residents", func(r chi.Router) {
			r.Get("/", h.handleListResidents)
			r.Post("/", h.handleCreateResident)
			r.Get("/{id}", h.handleGetResident)
			r.Put("/{id}", h.handleUpdateResident)
			r.Delete("/{id}", h.handleDeleteResident)
		})

		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.handleListWorkers)
			r.Post("/", h.handleCreateWorker)
			r.Get("/{id}", h.handleGetWorker)
			r.Put("/{id}", h.handleUpdateWorker)
			r.Delete("/{id}", h.handleDeleteWorker)
		})

		r.Route("/buildings", func(r chi.Router) {
			r.Post("/", h.handleCreateBuilding)
			r.Put("/{id}", h.handleUpdateBuilding)
			r.Delete("/{id}", h.handleDeleteBuilding)
		})

		r.Route("/complaints", func(r chi.Router) {
			r.Get("/", h.handleListComplaints)
			r.Post("/", h.handleCreateComplaint)
			r.Get("/{id}", h.handleGetComplaint)
			r.Put("/{id}", h.handleUpdateComplaint)
			r.Delete("/{id}", h.handleDeleteComplaint)
		})
	})
}

func (h *AdminHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	residents, err := h.identity.CountByRole(ctx, identity.RoleResident)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	workers, err := h.identity.CountByRole(ctx, identity.RoleWorker)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	open, err := h.complaints.OpenCount(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resolved, err := h.complaints.ResolvedCount(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	recent, err := h.complaints.Recent(ctx, dashboardRecentLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"total_residents":     residents,
		"total_workers":       workers,
		"open_complaints":     open,
		"resolved_complaints": resolved,
		"recent_complaints":   recent,
	})
}

func (h *AdminHandler) handleListResidents(w http.ResponseWriter, r *http.Request) {
	residents, err := h.identity.ListResidents(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"residents": residents})
}

func (h *AdminHandler) handleCreateResident(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	resident, err := h.identity.RegisterResident(r.Context(), identity.RegisterResidentInput{
		Username:      payload.Username,
		Email:         payload.Email,
		Password:      payload.Password,
		Unit:          occupancy.UnitAddress{Block: payload.Block, Floor: payload.Floor, RoomNumber: payload.RoomNumber},
		ContactNumber: payload.ContactNumber,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"resident": resident})
}

func (h *AdminHandler) handleGetResident(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resident, err := h.identity.GetResident(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"resident": resident})
}

type updateResidentPayload struct {
	Username      *string `json:"username"`
	Email         *string `json:"email"`
	Block         *string `json:"block"`
	Floor         *int    `json:"floor"`
	RoomNumber    *int    `json:"room_number"`
	ContactNumber *string `json:"contact_number"`
}

func (h *AdminHandler) handleUpdateResident(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload updateResidentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	input := identity.UpdateResidentInput{
		Username:      payload.Username,
		Email:         payload.Email,
		ContactNumber: payload.ContactNumber,
	}
	if payload.Block != nil || payload.Floor != nil || payload.RoomNumber != nil {
		if payload.Block == nil || payload.Floor == nil || payload.RoomNumber == nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "block, floor and room_number must be set together", nil)
			return
		}
		input.Unit = &occupancy.UnitAddress{Block: *payload.Block, Floor: *payload.Floor, RoomNumber: *payload.RoomNumber}
	}

	resident, err := h.identity.UpdateResident(r.Context(), id, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"resident": resident})
}

func (h *AdminHandler) handleDeleteResident(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.identity.DeleteResident(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *AdminHandler) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.identity.ListWorkers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"workers": workers})
}

type addWorkerPayload struct {
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Department     string   `json:"department"`
	AssignedBlocks []string `json:"assigned_blocks"`
	ContactNumber  string   `json:"contact_number"`
}

func (h *AdminHandler) handleCreateWorker(w http.ResponseWriter, r *http.Request) {
	var payload addWorkerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	worker, err := h.identity.AddWorker(r.Context(), identity.AddWorkerInput{
		Username:       payload.Username,
		Email:          payload.Email,
		Password:       payload.Password,
		Department:     payload.Department,
		AssignedBlocks: payload.AssignedBlocks,
		ContactNumber:  payload.ContactNumber,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"worker": worker})
}

func (h *AdminHandler) handleGetWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	worker, err := h.identity.GetWorker(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"worker": worker})
}

type updateWorkerPayload struct {
	Username       *string  `json:"username"`
	Email          *string  `json:"email"`
	Department     *string  `json:"department"`
	AssignedBlocks []string `json:"assigned_blocks"`
	ContactNumber  *string  `json:"contact_number"`
}

func (h *AdminHandler) handleUpdateWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload updateWorkerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	worker, err := h.identity.UpdateWorker(r.Context(), id, identity.UpdateWorkerInput{
		Username:       payload.Username,
		Email:          payload.Email,
		Department:     payload.Department,
		AssignedBlocks: payload.AssignedBlocks,
		ContactNumber:  payload.ContactNumber,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"worker": worker})
}

func (h *AdminHandler) handleDeleteWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.identity.DeleteWorker(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type buildingPayload struct {
	Block         string `json:"block"`
	TotalFloors   int    `json:"total_floors"`
	RoomsPerFloor int    `json:"rooms_per_floor"`
}

func (h *AdminHandler) handleCreateBuilding(w http.ResponseWriter, r *http.Request) {
	var payload buildingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	created, err := h.buildings.Create(r.Context(), building.CreateInput{
		Block:         payload.Block,
		TotalFloors:   payload.TotalFloors,
		RoomsPerFloor: payload.RoomsPerFloor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"building": created})
}

func (h *AdminHandler) handleUpdateBuilding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload buildingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	updated, err := h.buildings.Update(r.Context(), id, building.CreateInput{
		Block:         payload.Block,
		TotalFloors:   payload.TotalFloors,
		RoomsPerFloor: payload.RoomsPerFloor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"building": updated})
}

func (h *AdminHandler) handleDeleteBuilding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.buildings.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *AdminHandler) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	filter, err := complaintFilterFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	complaints, err := h.complaints.AdminList(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"complaints": complaints})
}

type adminComplaintPayload struct {
	ResidentID  string   `json:"resident_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Department  string   `json:"department"`
	Block       string   `json:"block"`
	Floor       int      `json:"floor"`
	RoomNumber  int      `json:"room_number"`
	Images      []string `json:"images"`
}

func (h *AdminHandler) handleCreateComplaint(w http.ResponseWriter, r *http.Request) {
	var payload adminComplaintPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	residentID, err := uuid.Parse(payload.ResidentID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid resident_id", nil)
		return
	}

	created, err := h.complaints.AdminCreate(r.Context(), complaint.CreateInput{
		ResidentID:  residentID,
		Department:  payload.Department,
		Title:       payload.Title,
		Description: payload.Description,
		Images:      payload.Images,
		Unit:        occupancy.UnitAddress{Block: payload.Block, Floor: payload.Floor, RoomNumber: payload.RoomNumber},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"complaint": created})
}

func (h *AdminHandler) handleGetComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.complaints.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"complaint": c})
}

type updateComplaintPayload struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Department  *string  `json:"department"`
	Block       *string  `json:"block"`
	Floor       *int     `json:"floor"`
	RoomNumber  *int     `json:"room_number"`
	Images      []string `json:"images"`
	Status      *string  `json:"status"`
	WorkerID    *string  `json:"worker_id"`
}

func (h *AdminHandler) handleUpdateComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload updateComplaintPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON", nil)
		return
	}

	input := complaint.AdminUpdateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Department:  payload.Department,
		Images:      payload.Images,
		Status:      payload.Status,
	}
	if payload.Block != nil || payload.Floor != nil || payload.RoomNumber != nil {
		if payload.Block == nil || payload.Floor == nil || payload.RoomNumber == nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "block, floor and room_number must be set together", nil)
			return
		}
		input.Unit = &occupancy.UnitAddress{Block: *payload.Block, Floor: *payload.Floor, RoomNumber: *payload.RoomNumber}
	}
	if payload.WorkerID != nil {
		workerID, err := uuid.Parse(*payload.WorkerID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid worker_id", nil)
			return
		}
		input.WorkerID = &workerID
	}

	updated, err := h.complaints.AdminUpdate(r.Context(), id, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"complaint": updated})
}

func (h *AdminHandler) handleDeleteComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.complaints.AdminDelete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func complaintFilterFromQuery(r *http.Request) (complaint.Filter, error) {
	var filter complaint.Filter
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := complaint.ParseStatus(raw)
		if err != nil {
			return complaint.Filter{}, err
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("department")); raw != "" {
		filter.Department = &raw
	}
	if raw := strings.TrimSpace(q.Get("block")); raw != "" {
		filter.Block = &raw
	}
	if raw := strings.TrimSpace(q.Get("resident")); raw != "" {
		filter.ResidentName = &raw
	}
	if raw := strings.TrimSpace(q.Get("worker")); raw != "" {
		filter.WorkerName = &raw
	}

	return filter, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}
