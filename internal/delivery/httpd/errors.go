package httpd

import (
	"errors"
	"net/http"

	"github.com/RubachokBoss/coursework-service/internal/models"
	"github.com/RubachokBoss/coursework-service/pkg/utils"
)

var errorStatuses = []struct {
	kind   error
	status int
}{
	{models.ErrValidation, http.StatusBadRequest},
	{models.ErrUnauthorized, http.StatusUnauthorized},
	{models.ErrForbidden, http.StatusForbidden},
	{models.ErrNotFound, http.StatusNotFound},
	{models.ErrInvalidState, http.StatusConflict},
	{models.ErrConflict, http.StatusConflict},
	{models.ErrServiceUnavailable, http.StatusServiceUnavailable},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.kind) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Service error")
		utils.ErrorResponse(w, status, "Internal server error")
		return
	}

	message := err.Error()
	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	if status == http.StatusServiceUnavailable {
		h.logger.Warn().Err(err).Msg("Dependency unavailable")
	}

	utils.ErrorResponse(w, status, message)
}
