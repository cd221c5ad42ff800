package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/engine"
	"github.com/prashnahq/pariksha-backend/internal/middleware"
	"github.com/prashnahq/pariksha-backend/internal/response"
	"github.com/prashnahq/pariksha-backend/internal/service"
	ws "github.com/prashnahq/pariksha-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
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

// WSHandler streams a live exam session over a WebSocket: actions in,
// state projections and timer events out.
type WSHandler struct {
	sessions *service.SessionManager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *service.SessionManager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes; the event forwarder and the action loop
// both talk to the same socket.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(code response.ErrCode) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteError(w.conn, string(code), response.GetMessage(code))
}

// SessionStream godoc
// WS /ws/v1/student/tests/:test_id/stream
// Attaches the student to their running session for the test, starting
// one if needed, and streams it until the connection drops or the
// session submits.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sock := &wsConn{conn: conn}
	studentID := claims.UserID

	sess, err := h.sessions.Attach(c.Request.Context(), testID, studentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			sock.writeError(response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrTestNotAvailable):
			sock.writeError(response.ErrTestNotAvailable)
		default:
			h.log.Error().Err(err).Msg("Session attach failed")
			sock.writeError(response.ErrInternal)
		}
		return
	}

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("test_id", testID.String()).
		Logger()
	wsLog.Info().Msg("Student connected")

	if err := h.pushState(sock, sess); err != nil {
		return
	}

	// Each connection gets its own event subscription, so a forwarder
	// left on a dead socket cannot consume events meant for a
	// reconnected client. Cancel closes the channel and stops the
	// forwarder.
	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()
	go h.forwardEvents(sock, events)

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		h.dispatch(sock, sess, wsLog, &msg)
	}
}

// dispatch applies one client action to the session and pushes the
// refreshed state on success.
func (h *WSHandler) dispatch(sock *wsConn, sess *engine.Session, wsLog zerolog.Logger, msg *ws.Request) {
	var err error

	switch msg.Action {
	case ws.ActionAnswer:
		err = sess.SelectOption(msg.Index, msg.Option)
	case ws.ActionReview:
		err = sess.ToggleReview(msg.Index)
	case ws.ActionGoTo:
		err = sess.GoTo(msg.Index)
	case ws.ActionNext:
		err = sess.Next()
	case ws.ActionPrevious:
		err = sess.Previous()
	case ws.ActionFilter:
		err = sess.SetSubjectFilter(msg.Subject)
	case ws.ActionSignal:
		kind, ok := engine.ParseSignal(msg.Signal)
		if !ok {
			wsLog.Warn().Str("signal", msg.Signal).Msg("Unknown signal")
			sock.writeError(response.ErrInvalidPayload)
			return
		}
		err = sess.Signal(kind)
	case ws.ActionAckWarning:
		err = sess.AcknowledgeWarning()
	case ws.ActionFullscreen:
		err = sess.Signal(engine.SignalFullscreenToggled)
	case ws.ActionSubmit:
		err = sess.Submit()
	case ws.ActionState:
		// Explicit refresh; falls through to pushState below.
	case ws.ActionPing:
		sock.write(ws.PongResponse{Event: ws.EventPong})
		return
	default:
		wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		sock.writeError(response.ErrUnknownAction)
		return
	}

	switch {
	case err == nil:
		h.pushState(sock, sess)
	case errors.Is(err, engine.ErrSessionSubmitted):
		sock.writeError(response.ErrSessionSubmitted)
	case errors.Is(err, engine.ErrSessionClosed):
		sock.writeError(response.ErrSessionConflict)
	default:
		wsLog.Error().Err(err).Str("action", string(msg.Action)).Msg("Action failed")
		sock.writeError(response.ErrInternal)
	}
}

func (h *WSHandler) pushState(sock *wsConn, sess *engine.Session) error {
	view, err := sess.State()
	if err != nil {
		return err
	}
	return sock.write(ws.StateResponse{Event: ws.EventState, State: view})
}

// forwardEvents relays engine pushes to the socket until the
// subscription is cancelled. Write failures are left for the read loop
// to notice.
func (h *WSHandler) forwardEvents(sock *wsConn, events <-chan engine.Event) {
	for ev := range events {
		switch ev.Kind {
		case engine.EventClock:
			sock.write(ws.ClockResponse{
				Event:     ws.EventClock,
				Clock:     ev.Clock,
				Remaining: ev.Remaining,
			})
		case engine.EventWarning:
			sock.write(ws.WarningResponse{
				Event:          ws.EventWarning,
				ViolationCount: ev.ViolationCount,
				Final:          ev.Forced,
			})
		case engine.EventSubmitted:
			sock.write(ws.SubmittedResponse{
				Event:   ws.EventSubmitted,
				Trigger: ev.Trigger,
				Forced:  ev.Forced,
			})
		}
	}
}
