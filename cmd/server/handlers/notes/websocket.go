package notes

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"note-vault/cmd/server/ctxkeys"
	"note-vault/cmd/server/handlers/httperr"
	"note-vault/internal/logger"
	"note-vault/internal/services/notes"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

const (
	// WSClosePolicyViolation represents WebSocket close code for policy violation
	WSClosePolicyViolation = 1008

	wsWriteTimeout     = 10 * time.Second
	wsPingInterval     = 25 * time.Second
	wsPingWriteTimeout = 5 * time.Second

	msgFailedToCloseWebSocketConnection = "failed to close WebSocket connection"
)

var (
	errMissingUserID    = errors.New(ctxkeys.UserIDKey + " not found")
	errMissingParentCtx = errors.New(ctxkeys.ParentCtxKey + " not found")
)

// Hub interface for WebSocket management
type Hub interface {
	Subscribe(connULID ulid.ULID, userID string) (*notes.Subscriber, func())
	Unsubscribe(connULID ulid.ULID)
}

// TokenParser validates an access token and returns its user id.
type TokenParser interface {
	ParseToken(raw string) (string, error)
}

// WebSocketHandlers contains WebSocket-related handlers
type WebSocketHandlers struct {
	hub           Hub
	tokens        TokenParser
	maxSessionSec int
}

// NewWebSocketHandlers creates new WebSocket handlers
func NewWebSocketHandlers(hub Hub, tokens TokenParser, maxSessionSec int) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:           hub,
		tokens:        tokens,
		maxSessionSec: maxSessionSec,
	}
}

// WSUpgrade authenticates the ?token= query parameter before the upgrade.
// @Summary Stream note events
// @Description Upgrades to a WebSocket that receives created, updated, trashed,
// @Description restored, purged and reminder events for the token owner.
// @Tags notes
// @Param token query string true "Access token"
// @Success 101
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /ws/notes/stream [get]
func (h *WebSocketHandlers) WSUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		logger.L().Warn("websocket upgrade required", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusBadRequest,
			Message: "WebSocket upgrade required",
		})
	}

	token := c.Query("token")
	if token == "" {
		logger.L().Warn("missing token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusUnauthorized,
			Message: "Missing token",
		})
	}

	userID, err := h.tokens.ParseToken(token)
	if err != nil {
		logger.L().Warn("invalid token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path(), "error", err)
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	c.Locals(ctxkeys.UserIDKey, userID)
	c.Locals(ctxkeys.ParentCtxKey, c.UserContext())

	return c.Next()
}

// WSNotesStream pushes the events of the authenticated user until the client
// leaves or the session expires.
func (h *WebSocketHandlers) WSNotesStream(c *websocket.Conn) {
	conn, parentCtx, err := h.initializeConnection(c)
	if err != nil {
		logger.L().Error("websocket init failed", "error", err)
		h.closeConnection(c)
		return
	}

	ctx, cancelCtx := context.WithCancel(parentCtx)
	defer cancelCtx()

	subscriber, cancel := h.hub.Subscribe(conn.connULID, conn.userID)
	defer cancel()

	logger.L().Info("WebSocket connection established", "user_id", conn.userID, "conn_id", conn.connID)

	sessionTimer := h.startSessionTimer(c, conn, cancelCtx)
	defer sessionTimer.Stop()

	ping := h.startKeepAlive(c, conn)
	defer ping.Stop()

	go h.handleOutgoingMessages(ctx, c, conn, subscriber)

	h.handleIncomingMessages(c, conn)

	logger.L().Info("WebSocket connection closed", "user_id", conn.userID, "conn_id", conn.connID)
}

type wsConnection struct {
	userID   string
	connULID ulid.ULID
	connID   string
}

func (h *WebSocketHandlers) initializeConnection(c *websocket.Conn) (*wsConnection, context.Context, error) {
	userID, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok || userID == "" {
		return nil, nil, errMissingUserID
	}

	parentCtx, ok := c.Locals(ctxkeys.ParentCtxKey).(context.Context)
	if !ok {
		return nil, nil, errMissingParentCtx
	}

	connULID := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	return &wsConnection{
		userID:   userID,
		connULID: connULID,
		connID:   connULID.String(),
	}, parentCtx, nil
}

func (h *WebSocketHandlers) closeConnection(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		logger.L().Error(msgFailedToCloseWebSocketConnection, "error", err)
	}
}

func (h *WebSocketHandlers) startSessionTimer(c *websocket.Conn, conn *wsConnection, cancelCtx context.CancelFunc) *time.Timer {
	return time.AfterFunc(time.Duration(h.maxSessionSec)*time.Second, func() {
		logger.L().Info("WebSocket session timeout", "user_id", conn.userID, "conn_id", conn.connID)
		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(WSClosePolicyViolation, "session timeout"))
		if err != nil {
			logger.L().Error("failed to send close message", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
		}
		h.closeConnection(c)
		cancelCtx()
	})
}

func (h *WebSocketHandlers) startKeepAlive(c *websocket.Conn, conn *wsConnection) *time.Ticker {
	ping := time.NewTicker(wsPingInterval)
	go func() {
		for range ping.C {
			if h.sendPing(c, conn) != nil {
				return
			}
		}
	}()
	return ping
}

func (h *WebSocketHandlers) sendPing(c *websocket.Conn, conn *wsConnection) error {
	if err := c.SetWriteDeadline(time.Now().Add(wsPingWriteTimeout)); err != nil {
		logger.L().Error("failed to set write deadline", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
		return err
	}
	if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
		logger.L().Warn("failed to write ping message", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
		return err
	}
	return nil
}

func (h *WebSocketHandlers) handleOutgoingMessages(ctx context.Context, c *websocket.Conn, conn *wsConnection, subscriber *notes.Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("panic in WebSocket sender", "error", r, "user_id", conn.userID)
		}
	}()

	for {
		select {
		case event, ok := <-subscriber.Ch:
			if !ok {
				return
			}
			if h.sendEvent(c, conn, event) != nil {
				return
			}
		case <-subscriber.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *WebSocketHandlers) sendEvent(c *websocket.Conn, conn *wsConnection, event notes.NoteEvent) error {
	if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		logger.L().Error("failed to set write deadline", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
		return err
	}
	if err := c.WriteJSON(buildEventMessage(event)); err != nil {
		logger.L().Error("failed to write WebSocket message", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
		return err
	}
	return nil
}

// buildEventMessage shapes an event for the wire. A purged note only carries its id.
func buildEventMessage(event notes.NoteEvent) map[string]any {
	if event.Type == notes.EventPurged && event.Note != nil {
		return map[string]any{
			"type": event.Type,
			"note": map[string]any{"id": event.Note.ID},
		}
	}
	return map[string]any{
		"type": event.Type,
		"note": event.Note,
	}
}

func (h *WebSocketHandlers) handleIncomingMessages(c *websocket.Conn, conn *wsConnection) {
	for {
		messageType, _, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.L().Warn("WebSocket error", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
			}
			return
		}

		if messageType == websocket.PingMessage {
			if err := c.WriteMessage(websocket.PongMessage, nil); err != nil {
				logger.L().Error("failed to send pong", "error", err, "user_id", conn.userID)
				return
			}
		}
	}
}

// LogWSConnections logs every WebSocket upgrade attempt. The token is
// verified so the logged user id cannot be spoofed.
func LogWSConnections(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			user := ""
			if token := c.Query("token"); token != "" {
				user, _ = tokens.ParseToken(token)
			}
			logger.L().Info("WebSocket upgrade attempt", "ip", c.IP(), "user", user)
		}
		return c.Next()
	}
}
