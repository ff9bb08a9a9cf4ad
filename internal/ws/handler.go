package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"gymai/internal/chat"
	"gymai/internal/models"
)

// Server handles WebSocket upgrades on /ws/{routineID}.
type Server struct {
	hub      *Hub
	orch     *chat.Orchestrator
	upgrader websocket.Upgrader
}

// NewServer creates the WebSocket endpoint handler.
func NewServer(hub *Hub, orch *chat.Orchestrator) *Server {
	return &Server{
		hub:  hub,
		orch: orch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from the app's own origin; the
			// API has no cross-origin story yet.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// client wraps a websocket connection with a write lock. Gorilla allows
// only one concurrent writer, and broadcasts race with per-message
// replies without this.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// incoming is the client-to-server message envelope. Plain chat text
// arrives as the raw payload when Type is empty.
type incoming struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	ImageData    string `json:"image_data"`
	ExerciseName string `json:"exercise_name"`
	Action       string `json:"action"`
}

// Handle upgrades the request and runs the read loop until the client
// disconnects.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	routineID, err := strconv.ParseInt(r.PathValue("routineID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid routine id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed for routine %d: %v", routineID, err)
		return
	}

	c := &client{conn: conn}
	s.hub.Connect(routineID, c)
	defer func() {
		s.hub.Disconnect(routineID, c)
		conn.Close()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read error on routine %d: %v", routineID, err)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			s.handleText(r.Context(), c, routineID, data)
		case websocket.BinaryMessage:
			c.WriteJSON(map[string]string{
				"error": "Los mensajes binarios no están soportados. Envía las imágenes en base64.",
			})
		}
	}
}

func (s *Server) handleText(ctx context.Context, c *client, routineID int64, data []byte) {
	msg := parseIncoming(data)

	switch msg.Type {
	case "ping":
		// Keepalive: no lookups, no writes.
		c.WriteJSON(map[string]string{"type": "pong"})

	case "analyze_image":
		if msg.ImageData == "" {
			c.WriteJSON(map[string]string{"error": "Datos de imagen no proporcionados"})
			return
		}
		if _, err := s.orch.ProcessImageTurn(ctx, routineID, msg.ImageData, msg.ExerciseName, msg.Action); err != nil {
			s.writeError(c, routineID, err)
		}

	default:
		if msg.Message == "" {
			c.WriteJSON(map[string]string{"error": "Mensaje vacío"})
			return
		}
		if _, err := s.orch.ProcessTurn(ctx, routineID, msg.Message); err != nil {
			s.writeError(c, routineID, err)
		}
	}
}

// parseIncoming decodes an envelope, or wraps bare text as a chat
// message when the payload isn't JSON.
func parseIncoming(data []byte) incoming {
	var msg incoming
	if err := json.Unmarshal(data, &msg); err != nil {
		return incoming{Message: strings.TrimSpace(string(data))}
	}
	return msg
}

func (s *Server) writeError(c *client, routineID int64, err error) {
	if errors.Is(err, models.ErrNotFound) {
		c.WriteJSON(map[string]string{"error": "Rutina no encontrada"})
		return
	}
	log.Printf("ws: turn failed for routine %d: %v", routineID, err)
	c.WriteJSON(map[string]string{"error": "No se pudo procesar el mensaje"})
}
