package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/deepv/driving-backend/internal/engine"
	"github.com/deepv/driving-backend/internal/middleware"
	"github.com/deepv/driving-backend/internal/model"
	ws "github.com/deepv/driving-backend/internal/websocket"
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

// WSHandler streams the exam countdown over WebSocket.
type WSHandler struct {
	engine   *engine.Engine
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(eng *engine.Engine, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		engine:   eng,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ExamCountdownStream godoc
// WS /ws/v1/exam/stream?token=...
// Pushes one countdown frame per second while the session is active and
// one final frame when it finishes. Dropping the connection never touches
// exam state; the recovery snapshot keeps the session resumable.
func (h *WSHandler) ExamCountdownStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	session := h.engine.User(c.Request.Context(), claims.UserID).Exam(c.Request.Context())

	wsLog := h.log.With().Int("user_id", claims.UserID).Logger()
	wsLog.Info().Msg("Countdown stream connected")

	// Reader goroutine: answers pings and signals close. Frames the
	// client sends are otherwise ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	wasActive := false
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			view := session.View()
			frame := ws.TickResponse{
				Event:         ws.EventTick,
				State:         string(view.State),
				TimeLeft:      view.TimeLeft,
				CurrentIndex:  view.CurrentIndex,
				AnsweredCount: view.AnsweredCount,
			}
			if view.State == model.ExamStateFinished && wasActive {
				frame.Event = ws.EventFinished
			}
			if err := ws.WriteTyped(conn, frame); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, closing stream")
				return
			}
			if frame.Event == ws.EventFinished {
				return
			}
			wasActive = view.State == model.ExamStateActive
		}
	}
}
