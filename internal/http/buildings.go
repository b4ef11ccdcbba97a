package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civicflow/api/internal/building"
	"github.com/civicflow/api/internal/rooms"
)

// BuildingHandler exposes the public building directory and room queries.
// These back the registration and edit forms, so they stay unauthenticated.
type BuildingHandler struct {
	buildings *building.Service
	allocator *rooms.Allocator
}

// NewBuildingHandler creates the handler.
func NewBuildingHandler(buildings *building.Service, allocator *rooms.Allocator) *BuildingHandler {
	return &BuildingHandler{buildings: buildings, allocator: allocator}
}

// RegisterRoutes mounts the building routes.
func (h *BuildingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/buildings", h.handleList)
	r.Get("/buildings/available-rooms", h.handleAvailableRooms)
	r.Get("/buildings/available-rooms-for-edit", h.handleAvailableRoomsForEdit)
	r.Get("/buildings/rooms", h.handleAllRooms)
}

func (h *BuildingHandler) handleList(w http.ResponseWriter, r *http.Request) {
	buildings, err := h.buildings.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"buildings": buildings})
}

func (h *BuildingHandler) handleAvailableRooms(w http.ResponseWriter, r *http.Request) {
	block, floor, ok := blockFloorParams(w, r)
	if !ok {
		return
	}

	free, err := h.allocator.AvailableRooms(r.Context(), block, floor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"rooms": free})
}

func (h *BuildingHandler) handleAvailableRoomsForEdit(w http.ResponseWriter, r *http.Request) {
	block, floor, ok := blockFloorParams(w, r)
	if !ok {
		return
	}

	excludeID := uuid.Nil
	if raw := strings.TrimSpace(r.URL.Query().Get("exclude_resident_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid exclude_resident_id", nil)
			return
		}
		excludeID = id
	}

	free, err := h.allocator.AvailableRoomsForEdit(r.Context(), block, floor, excludeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"rooms": free})
}

func (h *BuildingHandler) handleAllRooms(w http.ResponseWriter, r *http.Request) {
	block, floor, ok := blockFloorParams(w, r)
	if !ok {
		return
	}

	all, err := h.allocator.AllRoomNumbers(r.Context(), block, floor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"rooms": all})
}

func blockFloorParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	block := strings.TrimSpace(r.URL.Query().Get("block"))
	if block == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "block is required", nil)
		return "", 0, false
	}

	floor, err := strconv.Atoi(r.URL.Query().Get("floor"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid floor", nil)
		return "", 0, false
	}

	return block, floor, true
}
