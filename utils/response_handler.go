package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"crm/apperrors"
	"crm/logger"
	"crm/schemas"
)

func SendResponse(w http.ResponseWriter, statusCode int, message string, data any, internalErrorCode int) {
	if internalErrorCode != 0 {
		writeJSON(w, statusCode, schemas.ApiResponse{Message: SendInternalError(internalErrorCode)})
		return
	}

	if message == "" && data == nil {
		w.WriteHeader(statusCode)
		return
	}

	writeJSON(w, statusCode, schemas.ApiResponse{Message: message, Data: data})
}

// SendError writes err with the status matching its kind. Errors that are
// not domain errors are logged and reported through internalErrorCode.
func SendError(w http.ResponseWriter, err error, internalErrorCode int) {
	var verr *apperrors.ValidationError
	var conflict *apperrors.ConflictError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, schemas.ApiResponse{Message: apperrors.ErrValidation.Error(), Errors: verr.Fields})
	case errors.As(err, &conflict):
		body := schemas.ApiResponse{Message: conflict.Message}
		if len(conflict.Blockers) > 0 || len(conflict.Warnings) > 0 {
			body.Data = map[string][]string{"blockers": conflict.Blockers, "warnings": conflict.Warnings}
		}
		writeJSON(w, http.StatusConflict, body)
	case errors.Is(err, apperrors.ErrNotFound):
		SendResponse(w, http.StatusNotFound, err.Error(), nil, 0)
	case errors.Is(err, apperrors.ErrForbidden):
		SendResponse(w, http.StatusForbidden, err.Error(), nil, 0)
	case errors.Is(err, apperrors.ErrUnauthorized):
		SendResponse(w, http.StatusUnauthorized, err.Error(), nil, 0)
	default:
		logger.GetLogger("http").WithError(err).WithField("code", internalErrorCode).Error("request failed")
		SendResponse(w, http.StatusInternalServerError, "", nil, internalErrorCode)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body schemas.ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
