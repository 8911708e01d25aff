package gameserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spyfall/internal/game/session"
)

const writeTimeout = 10 * time.Second

// WSServer accepts WebSocket connections and bridges them into the
// dispatcher: one read loop decoding command envelopes, one write pump
// draining the connection's event channel to the wire.
type WSServer struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewWSServer creates a WSServer over the given dispatcher.
func NewWSServer(dispatcher *Dispatcher, logger *zap.Logger) *WSServer {
	return &WSServer{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handler returns the HTTP handler serving the WebSocket endpoint at /ws
// plus a liveness probe at /healthz.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *WSServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusGoingAway, "server closing connection")

	ctx := r.Context()
	handle := session.NewHandle(uuid.NewString(), 0)
	client := NewClient(handle)

	go s.writePump(ctx, conn, handle)
	s.readLoop(ctx, conn, client)

	handle.Close()
	s.dispatcher.Disconnected(client)
}

// readLoop decodes inbound command envelopes and hands them to the
// dispatcher until the connection closes.
func (s *WSServer) readLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.logger.Debug("discarding malformed command", zap.Error(err))
			continue
		}
		s.dispatcher.Handle(client, cmd)
	}
}

// writePump drains the handle's event channel to the wire. Exits when the
// handle closes or a write fails.
func (s *WSServer) writePump(ctx context.Context, conn *websocket.Conn, handle *session.Handle) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-handle.Events():
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
