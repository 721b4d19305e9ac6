package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/placa/internal/pipeline"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsMaxMessage   = 32 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WebSocketPlateRequest is a plate request sent over WebSocket. Image is the
// encoded file, base64 in JSON.
type WebSocketPlateRequest struct {
	Type     string `json:"type"` // "image"
	Image    []byte `json:"image,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// WebSocketPlateResponse is sent back for every request.
type WebSocketPlateResponse struct {
	Type        string           `json:"type"`
	Status      string           `json:"status"` // "processing", "completed", "error"
	Result      *pipeline.Result `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	ErrorType   string           `json:"error_type,omitempty"`
	FailureKind string           `json:"failure_kind,omitempty"`
	RequestID   string           `json:"request_id,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// plateWebSocketHandler handles WebSocket connections for streaming plate reads.
func (s *Server) plateWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage answers one request. Writes happen only on the
// reading goroutine, so the connection is never written concurrently.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	var req WebSocketPlateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err), nil)
		return
	}
	if req.Type != "image" {
		s.sendWebSocketError(conn, "", "invalid_request", "Unsupported request type: "+req.Type, nil)
		return
	}
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, "", "invalid_request", "No image data provided", nil)
		return
	}

	id := uuid.NewString()
	s.sendWebSocketResponse(conn, WebSocketPlateResponse{Type: "plate_response", Status: "processing", RequestID: id})

	img, _, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		s.sendWebSocketError(conn, id, "processing_error", fmt.Sprintf("Failed to decode image: %v", err), nil)
		return
	}
	if s.pipeline == nil {
		s.sendWebSocketError(conn, id, "processing_error", "Plate pipeline not initialized", nil)
		return
	}

	res, err := s.process(ctx, img, id, req.Filename)
	if err != nil {
		plateRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, id, "processing_error", fmt.Sprintf("Plate processing failed: %v", err), err)
		return
	}
	plateRequestsTotal.WithLabelValues("websocket", "success").Inc()

	s.sendWebSocketResponse(conn, WebSocketPlateResponse{
		Type:      "plate_response",
		Status:    "completed",
		Result:    res,
		RequestID: id,
	})
}

func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketPlateResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (s *Server) sendWebSocketError(conn WebSocketConnWriter, id, errorType, message string, cause error) {
	resp := WebSocketPlateResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: id,
	}
	if k := pipeline.KindOf(cause); k != 0 {
		resp.FailureKind = k.String()
	}
	s.sendWebSocketResponse(conn, resp)
}
