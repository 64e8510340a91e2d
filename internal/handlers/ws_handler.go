package handlers

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/samuelAmenu/vbcs-backend/internal/alert"
	"github.com/samuelAmenu/vbcs-backend/internal/bus"
	"github.com/samuelAmenu/vbcs-backend/internal/config"
	"github.com/samuelAmenu/vbcs-backend/internal/dto"
	"github.com/samuelAmenu/vbcs-backend/internal/presence"
	"github.com/samuelAmenu/vbcs-backend/internal/session"
)

// Inbound message types on the live connection.
const (
	msgPing     = "ping"
	msgLostMode = "lost_mode"
	msgSOS      = "sos"
)

type wsMessage struct {
	Type       string     `json:"type"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Speed      float64    `json:"speed"`
	Battery    int        `json:"battery"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
	Active     bool       `json:"active"`
	Message    string     `json:"message"`
	PlaySiren  bool       `json:"play_siren"`
}

type wsAck struct {
	Type  string `json:"type"`
	Of    string `json:"of"`
	Error string `json:"error,omitempty"`
}

// jsonWriter is the slice of *websocket.Conn the outbound path needs.
type jsonWriter interface {
	WriteJSON(v interface{}) error
}

// wsConn adapts a websocket connection to bus.Conn. Writes are
// serialized; the underlying connection does not allow concurrent writers.
type wsConn struct {
	mu   sync.Mutex
	conn jsonWriter
}

func (w *wsConn) Send(ev bus.Envelope) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(ev)
}

func (w *wsConn) sendAck(of string, err error) {
	ack := wsAck{Type: "ack", Of: of}
	if err != nil {
		ack.Error = err.Error()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if werr := w.conn.WriteJSON(ack); werr != nil {
		slog.Warn("ws ack write failed", "error", werr)
	}
}

// WSHandler serves the live presence connection: inbound pings,
// lost-mode toggles, and SOS triggers; outbound PeerMoved,
// CommandExecute, and SOSAlert events.
type WSHandler struct {
	cfg         *config.Config
	router      *presence.Router
	controller  *alert.Controller
	broadcaster *alert.Broadcaster
}

func NewWSHandler(cfg *config.Config, router *presence.Router, controller *alert.Controller, broadcaster *alert.Broadcaster) *WSHandler {
	return &WSHandler{cfg: cfg, router: router, controller: controller, broadcaster: broadcaster}
}

// Upgrade authenticates the connection before the protocol switch.
// Browsers cannot set headers on websocket dials, so the token may
// arrive as a query parameter instead of an Authorization header.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	}

	phone, err := session.ParsePhone(token, h.cfg.JWTSecret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized: invalid or expired token",
		})
	}

	c.Locals("phone", phone)
	return c.Next()
}

// Serve runs the connection's read loop until the client goes away.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		phone, _ := conn.Locals("phone").(string)
		if phone == "" {
			_ = conn.Close()
			return
		}

		wc := &wsConn{conn: conn}
		cancel := h.router.Connect(context.Background(), phone, wc)
		defer cancel()

		slog.Info("presence connected", "phone", phone)

		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				slog.Info("presence disconnected", "phone", phone, "reason", err.Error())
				return
			}

			h.dispatch(context.Background(), phone, msg, wc)
		}
	})
}

// dispatch handles one inbound message. Every known type is acked back
// on the same connection once the message is accepted; persistence of a
// ping is asynchronous and not part of the ack.
func (h *WSHandler) dispatch(ctx context.Context, phone string, msg wsMessage, wc *wsConn) {
	switch msg.Type {
	case msgPing:
		ping := presence.Ping{
			Lat:     msg.Lat,
			Lng:     msg.Lng,
			Speed:   msg.Speed,
			Battery: msg.Battery,
		}
		if msg.ObservedAt != nil {
			ping.ObservedAt = *msg.ObservedAt
		}
		h.router.HandlePing(ctx, phone, ping, wc)
		wc.sendAck(msgPing, nil)

	case msgLostMode:
		err := h.controller.ToggleLostMode(ctx, phone, msg.Active, msg.Message, msg.PlaySiren)
		wc.sendAck(msgLostMode, err)

	case msgSOS:
		err := h.broadcaster.Trigger(ctx, phone, msg.Lat, msg.Lng)
		wc.sendAck(msgSOS, err)

	default:
		slog.Warn("unknown ws message type", "phone", phone, "type", msg.Type)
	}
}
