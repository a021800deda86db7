package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jengzang/pathtrack-backend-go/internal/middleware"
	"github.com/jengzang/pathtrack-backend-go/internal/service"
	"github.com/jengzang/pathtrack-backend-go/internal/session"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamMaxFrame  = 64 * 1024
)

// StreamHandler streams fixes into a session over a websocket. The client sends one
// fix per text frame and receives the outcome of each fix in order. Frames count
// against the same per-user limit as batch ingestion.
type StreamHandler struct {
	trackingService *service.TrackingService
	limiter         *middleware.RateLimiter
	upgrader        websocket.Upgrader
}

// NewStreamHandler creates a new stream handler. A nil limiter disables throttling.
func NewStreamHandler(trackingService *service.TrackingService, limiter *middleware.RateLimiter) *StreamHandler {
	return &StreamHandler{
		trackingService: trackingService,
		limiter:         limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

const errStreamRateLimited = "rate limit exceeded"

type streamError struct {
	Error string `json:"error"`
}

// Stream handles GET /api/v1/sessions/:id/stream
func (h *StreamHandler) Stream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	sess, err := h.trackingService.Session(userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Stream] Upgrade failed for session %s: %v", sess.ID, err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(streamMaxFrame)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	log.Printf("[Stream] Client connected to session %s", sess.ID)
	defer log.Printf("[Stream] Client disconnected from session %s", sess.ID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Stream] Read error on session %s: %v", sess.ID, err)
			}
			return
		}

		// A malformed frame is reported but keeps the connection open
		var req fixRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := h.write(conn, streamError{Error: "invalid fix: " + err.Error()}); err != nil {
				return
			}
			continue
		}
		conn.SetReadDeadline(time.Now().Add(streamPongWait))

		// Throttled frames are dropped, not queued
		if h.limiter != nil && !h.limiter.Allow(userID) {
			if err := h.write(conn, streamError{Error: errStreamRateLimited}); err != nil {
				return
			}
			continue
		}

		out, err := sess.Process(req.toFix())
		if errors.Is(err, session.ErrSessionStopped) {
			h.write(conn, streamError{Error: err.Error()})
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session stopped"),
				time.Now().Add(streamWriteWait))
			return
		}
		if err != nil {
			h.write(conn, streamError{Error: err.Error()})
			return
		}
		if err := h.write(conn, out); err != nil {
			return
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(v)
}
