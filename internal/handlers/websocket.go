package handlers

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/arnold/jcihub-api/internal/middleware"
	"github.com/arnold/jcihub-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// connection wraps a websocket connection with its member ID
type connection struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	memberID uuid.UUID
}

func (c *connection) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub fans committed points events out to every connected leaderboard
// client. It implements services.Publisher.
type Hub struct {
	mu    sync.RWMutex
	conns map[*connection]bool
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{conns: make(map[*connection]bool), log: log}
}

func (h *Hub) register(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
	h.log.Debug("ws register", zap.Stringer("member_id", conn.memberID), zap.Int("total", len(h.conns)))
}

func (h *Hub) unregister(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	h.log.Debug("ws unregister", zap.Stringer("member_id", conn.memberID), zap.Int("remaining", len(h.conns)))
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Publish sends the event to all connected clients.
func (h *Hub) Publish(event services.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.conns) == 0 {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Warn("ws marshal failed", zap.Error(err))
		return
	}

	for c := range h.conns {
		if err := c.write(msg); err != nil {
			h.log.Debug("ws write failed", zap.Stringer("member_id", c.memberID), zap.Error(err))
		}
	}
}

// WebSocketUpgrade is the middleware that checks the upgrade request and validates JWT
func (h *Handlers) WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(h.JWTSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("memberId", claims.MemberID)
		return c.Next()
	}
}

// HandleLeaderboardSocket keeps a client subscribed to points events until
// it disconnects.
func (h *Handlers) HandleLeaderboardSocket(c *websocket.Conn) {
	memberID, ok := c.Locals("memberId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, memberID: memberID}
	h.Hub.register(conn)
	defer h.Hub.unregister(conn)

	// Keep connection alive; clients only send pings/keepalives
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
