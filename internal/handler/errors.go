package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
)

// sessionErrCode maps a session service error to an HTTP status and error code.
func sessionErrCode(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrInvalidMode):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, service.ErrInvalidAnswer):
		return http.StatusUnprocessableEntity, response.ErrInvalidAnswer
	case errors.Is(err, service.ErrAnswerRequired):
		return http.StatusUnprocessableEntity, response.ErrAnswerRequired
	case errors.Is(err, service.ErrIncomplete):
		return http.StatusUnprocessableEntity, response.ErrIncomplete
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusConflict, response.ErrNotStarted
	case errors.Is(err, service.ErrSessionFinished):
		return http.StatusConflict, response.ErrSessionFinished
	case errors.Is(err, service.ErrSessionRunning):
		return http.StatusConflict, response.ErrSessionRunning
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

func failSession(c *gin.Context, err error) {
	status, code := sessionErrCode(err)
	if status == http.StatusInternalServerError {
		log := response.Logger(c)
		log.Error().Err(err).Msg("Session operation failed")
	}
	response.Fail(c, status, code)
}
