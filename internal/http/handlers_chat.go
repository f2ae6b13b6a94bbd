package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"motoinvest/internal/log"
	"motoinvest/internal/services"
)

type chatRequest struct {
	Text   string   `json:"text"`
	Images []string `json:"images"` // base64 or data: URLs
}

func (c chatRequest) input() services.ChatInput {
	return services.ChatInput{Text: sanitizeInput(c.Text), Images: c.Images}
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Body(toMessages(sess.Snapshot().Messages)).Write(w)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, maxChatBody, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.app.Chat(r.Context(), sess, req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toChat(res)).Write(w)
}

type wsTimings struct {
	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

var defaultWSTimings = wsTimings{
	writeWait:  10 * time.Second,
	pongWait:   60 * time.Second,
	pingPeriod: 54 * time.Second,
}

// Websocket frames. The client sends {"type":"chat",...}; the server answers
// with "typing" and then "reply" or "error".
type wsInbound struct {
	Type   string   `json:"type"`
	Text   string   `json:"text"`
	Images []string `json:"images"`
}

type wsOutbound struct {
	Type   string   `json:"type"`
	Chat   *chatDTO `json:"chat,omitempty"`
	Error  string   `json:"error,omitempty"`
	Status int      `json:"status,omitempty"`
}

func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.logger.WarnContext(r.Context(), "Websocket upgrade failed", log.FieldError, err)
		return
	}
	logger := log.FromContext(r.Context())
	logger.InfoContext(r.Context(), "Websocket connected")

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	out := make(chan wsOutbound, 4)
	done := make(chan struct{})
	go s.writePump(ctx, conn, out, done)
	send := func(m wsOutbound) bool {
		select {
		case out <- m:
			return true
		case <-done:
			return false
		}
	}

	conn.SetReadLimit(maxChatBody)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.ws.pongWait))
	})

	for {
		// A mentor turn can outlast pongWait; pongs queued meanwhile are
		// only read here, so every read starts with a fresh deadline.
		_ = conn.SetReadDeadline(time.Now().Add(s.ws.pongWait))
		var msg wsInbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnContext(ctx, "Websocket read failed", log.FieldError, err)
			}
			break
		}
		if msg.Type != "chat" {
			if !send(wsOutbound{Type: "error", Error: "unknown frame type", Status: http.StatusBadRequest}) {
				break
			}
			continue
		}
		if !s.limiter.AllowN(s.rateKey(r), mentorTurnCost) {
			if !send(wsOutbound{Type: "error", Error: msgRateLimited, Status: http.StatusTooManyRequests}) {
				break
			}
			continue
		}
		if !send(wsOutbound{Type: "typing"}) {
			break
		}
		res, err := s.app.Chat(ctx, sess, chatRequest{Text: msg.Text, Images: msg.Images}.input())
		if err != nil {
			status, text := errorStatus(err)
			if !send(wsOutbound{Type: "error", Error: text, Status: status}) {
				break
			}
			continue
		}
		dto := toChat(res)
		if !send(wsOutbound{Type: "reply", Chat: &dto}) {
			break
		}
	}
	cancel()
	// writePump flushes what is queued, then sends the close frame
	close(out)
	<-done
	logger.InfoContext(r.Context(), "Websocket closed")
}

// writePump owns all writes to conn and keeps it alive with pings. It
// returns once out is closed and drained, or on the first write error.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, out <-chan wsOutbound, done chan<- struct{}) {
	ticker := time.NewTicker(s.ws.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()
	for {
		select {
		case msg, ok := <-out:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(s.ws.writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.ws.writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					s.logger.DebugContext(ctx, "Websocket write failed", log.FieldError, err)
				}
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(s.ws.writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
