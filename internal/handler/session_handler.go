package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

// SessionHandler exposes quiz and exam sessions over HTTP.
type SessionHandler struct {
	sessions *service.SessionService
	tokens   *service.TokenService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService, tokens *service.TokenService) *SessionHandler {
	return &SessionHandler{sessions: sessions, tokens: tokens}
}

// StartSession godoc
// POST /api/v1/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessions.Start(req.Mode)
	if err != nil {
		failSession(c, err)
		return
	}

	token, err := h.tokens.Issue(view.Session)
	if err != nil {
		_ = h.sessions.Close(view.ID, true)
		log := response.Logger(c)
		log.Error().Err(err).Msg("Failed to issue session token")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session": view,
		"token":   token,
	})
}

// GetSession godoc
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	h.respond(c, h.sessions.Get)
}

// BeginExam godoc
// POST /api/v1/sessions/:id/begin
func (h *SessionHandler) BeginExam(c *gin.Context) {
	h.respond(c, h.sessions.Begin)
}

// SelectAnswer godoc
// POST /api/v1/sessions/:id/answer
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.respond(c, func(id uuid.UUID) (*model.SessionView, error) {
		return h.sessions.Select(id, *req.Index)
	})
}

// NextQuestion godoc
// POST /api/v1/sessions/:id/next
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	h.respond(c, h.sessions.Next)
}

// PreviousQuestion godoc
// POST /api/v1/sessions/:id/previous
func (h *SessionHandler) PreviousQuestion(c *gin.Context) {
	h.respond(c, h.sessions.Previous)
}

// SubmitSession godoc
// POST /api/v1/sessions/:id/submit
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	h.respond(c, h.sessions.Submit)
}

// RetakeSession godoc
// POST /api/v1/sessions/:id/retake
func (h *SessionHandler) RetakeSession(c *gin.Context) {
	h.respond(c, h.sessions.Retake)
}

// CloseSession godoc
// DELETE /api/v1/sessions/:id?force=true
func (h *SessionHandler) CloseSession(c *gin.Context) {
	force := c.Query("force") == "true"
	if err := h.sessions.Close(middleware.SessionID(c), force); err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "session closed"})
}

func (h *SessionHandler) respond(c *gin.Context, op func(id uuid.UUID) (*model.SessionView, error)) {
	view, err := op(middleware.SessionID(c))
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}
