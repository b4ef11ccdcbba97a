package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/civicflow/api/internal/building"
	"github.com/civicflow/api/internal/complaint"
	"github.com/civicflow/api/internal/identity"
	"github.com/civicflow/api/internal/occupancy"
	"github.com/civicflow/api/internal/service"
	"github.com/civicflow/api/internal/util"
)

// writeDomainError maps service errors onto HTTP responses. Handlers share
// this so the same domain error always produces the same status and code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid credentials", nil)
	case errors.Is(err, service.ErrRefreshInvalid):
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid refresh token", nil)
	case errors.Is(err, identity.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "CONFLICT", "email already registered", nil)
	case errors.Is(err, occupancy.ErrRoomOccupied):
		WriteError(w, http.StatusConflict, "CONFLICT", "room already occupied", nil)
	case errors.Is(err, building.ErrDuplicateBlock):
		WriteError(w, http.StatusConflict, "CONFLICT", "block already registered", nil)
	case errors.Is(err, building.ErrBlockOccupied):
		WriteError(w, http.StatusConflict, "CONFLICT", "block still has residents", nil)
	case errors.Is(err, complaint.ErrAlreadyProcessed),
		errors.Is(err, complaint.ErrConflict),
		errors.Is(err, complaint.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, complaint.ErrDepartmentMismatch), errors.Is(err, complaint.ErrNotOwner):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, identity.ErrNotFound),
		errors.Is(err, identity.ErrProfileNotFound),
		errors.Is(err, building.ErrNotFound),
		errors.Is(err, complaint.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, building.ErrUnknownBlock),
		errors.Is(err, building.ErrInvalidRange),
		errors.Is(err, building.ErrFloorOutOfRange),
		errors.Is(err, building.ErrRoomOutOfRange),
		errors.Is(err, identity.ErrInvalidDepartment),
		errors.Is(err, complaint.ErrInvalidStatus),
		errors.Is(err, complaint.ErrUnknownResident),
		errors.Is(err, complaint.ErrUnknownWorker),
		errors.Is(err, util.ErrValidation):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		log.Error().Err(err).Msg("request failed")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
