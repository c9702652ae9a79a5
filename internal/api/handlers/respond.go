package handlers

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{Error: message})
}

// respondWithAppError maps an error to its status code. Refusals that only
// mean "nothing to offer" are 422; other validation failures are 400.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		status = http.StatusBadRequest
		if appErr.Reason == apperrors.ReasonNoFacilityForSpecialty || appErr.Reason == apperrors.ReasonNoDatesAvailable {
			status = http.StatusUnprocessableEntity
		}
	case apperrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrorTypeExternal:
		status = http.StatusBadGateway
	}

	message := appErr.Message
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		message = "internal server error"
	} else if status == http.StatusBadGateway {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("collaborator failure")
	}

	respondWithJSON(w, status, errorResponse{Error: message, Reason: string(appErr.Reason)})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// An empty body is accepted when allowEmpty is set.
func decodeAndValidate(r *http.Request, dst interface{}, allowEmpty bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewValidationError("could not read request body")
	}
	if len(body) == 0 {
		if !allowEmpty {
			return apperrors.NewValidationError("request body is required")
		}
	} else if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}

	if err := utils.ValidateStruct(dst); err != nil {
		return apperrors.NewValidationError(utils.FormatFirstValidationError(err))
	}
	return nil
}
