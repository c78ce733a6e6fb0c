package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
	ws "github.com/stemsi/exstem-quiz/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a session's state and countdown and accepts its actions.
type WSHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream?token=
// All writes happen on the handler goroutine; a reader goroutine feeds it actions.
func (h *WSHandler) SessionStream(c *gin.Context) {
	id := middleware.SessionID(c)

	events, unsubscribe, err := h.sessions.Subscribe(id)
	if err != nil {
		failSession(c, err)
		return
	}
	defer unsubscribe()

	view, err := h.sessions.Get(id)
	if err != nil {
		failSession(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", id.String()).Logger()
	wsLog.Info().Msg("Client connected")

	if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, Session: view}); err != nil {
		return
	}

	requests := make(chan ws.Request)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			var req ws.Request
			if err := ws.ReadJSON(conn, &req); err != nil {
				readErr <- err
				return
			}
			select {
			case requests <- req:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return

		case e, ok := <-events:
			if !ok {
				ws.WriteError(conn, response.ErrSessionNotFound)
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := writeEvent(conn, e); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}

		case req := <-requests:
			if err := h.handleAction(conn, id, req); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		}
	}
}

// handleAction applies one client action. The resulting state reaches the
// client through the subscription, so only errors and pongs are written here.
func (h *WSHandler) handleAction(conn *websocket.Conn, id uuid.UUID, req ws.Request) error {
	var err error

	switch req.Action {
	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
	case ws.ActionBegin:
		_, err = h.sessions.Begin(id)
	case ws.ActionSelect:
		if req.Index == nil {
			return ws.WriteError(conn, response.ErrInvalidPayload)
		}
		_, err = h.sessions.Select(id, *req.Index)
	case ws.ActionNext:
		_, err = h.sessions.Next(id)
	case ws.ActionPrevious:
		_, err = h.sessions.Previous(id)
	case ws.ActionSubmit:
		_, err = h.sessions.Submit(id)
	case ws.ActionRetake:
		_, err = h.sessions.Retake(id)
	default:
		h.log.Warn().Str("action", string(req.Action)).Msg("Unknown action")
		return ws.WriteError(conn, response.ErrInvalidPayload)
	}

	if err != nil {
		_, code := sessionErrCode(err)
		return ws.WriteError(conn, code)
	}
	return nil
}

func writeEvent(conn *websocket.Conn, e service.Event) error {
	switch e.Type {
	case service.EventTick:
		return ws.WriteTyped(conn, ws.TickResponse{Event: ws.EventTick, Remaining: *e.Remaining})
	case service.EventCompleted:
		return ws.WriteTyped(conn, ws.CompletedResponse{Event: ws.EventCompleted, Result: e.Result})
	default:
		return ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, Session: e.View})
	}
}
