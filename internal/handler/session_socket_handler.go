package handler

import (
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/pkg/serverutils"
	"mindstorm-be/internal/service"
	internalWS "mindstorm-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// SessionSocketHandler upgrades participants of a session into its realtime room.
type SessionSocketHandler struct {
	sessions service.ISessionService
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewSessionSocketHandler(sessions service.ISessionService, hub *internalWS.Hub, log logger.ILogger) *SessionSocketHandler {
	return &SessionSocketHandler{
		sessions: sessions,
		hub:      hub,
		logger:   log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *SessionSocketHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on the upgrade request, so the query param comes first.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')")
	}

	claims, err := serverutils.ParseToken(tokenStr)
	if err != nil {
		h.logger.Warn("SessionSocketHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err.Error()})
		return err
	}

	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID format in token")
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session ID")
	}

	if err := h.sessions.Authorize(c.UserContext(), sessionID, userID); err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		details := map[string]interface{}{"session_id": sessionID, "user_id": userID}
		h.logger.Info("SessionSocketHandler", "Starting WebSocket session", details)
		internalWS.ServeWs(h.hub, conn, sessionID, userID)
		h.logger.Info("SessionSocketHandler", "WebSocket session ended", details)
	})(c)
}

func (h *SessionSocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/sessions/:id", h.ServeWs)
}
