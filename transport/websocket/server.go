package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/sidworks/tictactoe-rooms/internal/usecase"
	"github.com/sidworks/tictactoe-rooms/pkg/metrics"
)

const (
	readLimit    = 1024
	pongWait     = 30 * time.Second
	pingInterval = pongWait * 9 / 10
	writeWait    = 10 * time.Second
)

type roomManager interface {
	CreateRoom(ctx context.Context, connID, roomID, name string) error
	JoinRoom(ctx context.Context, connID, roomID, name string) error
	MakeMove(ctx context.Context, connID, roomID, name string, cell int) error
	RequestRematch(connID, roomID string)
	AcceptRematch(ctx context.Context, connID, roomID, name string) error
	Leave(connID, roomID, name string)
}

type Server struct {
	logger   *slog.Logger
	manager  roomManager
	hub      *Hub
	upgrader websocket.Upgrader
	validate *validator.Validate

	handlers map[string]func(ctx context.Context, client *Client, payload json.RawMessage) error
}

func New(logger *slog.Logger, manager roomManager, hub *Hub, allowedOrigin string) *Server {
	server := &Server{
		logger:   logger,
		manager:  manager,
		hub:      hub,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}

	server.handlers = map[string]func(context.Context, *Client, json.RawMessage) error{
		"createRoom":       server.handleCreateRoom,
		"joinRoom":         server.handleJoinRoom,
		"makeMove":         server.handleMakeMove,
		"handleRematch":    server.handleRematchRequest,
		"acceptRematch":    server.handleAcceptRematch,
		"userDisconnected": server.handleUserDisconnected,
	}

	return server
}

// Start - starts the WebSocket server and blocks until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWS(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - upgrades the connection and runs the read loop until the
// client goes away.
func (that *Server) serveWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn)
	that.hub.Register(client)
	metrics.ActiveConnections.Inc()

	log.Info("WebSocket connection established", "connID", client.id)

	go that.writePump(ctx, client)
	that.readPump(ctx, client)

	that.disconnect(client)
}

// disconnect - translates a dropped connection into leave intents for
// every room the client was still subscribed to.
func (that *Server) disconnect(client *Client) {
	joined := that.hub.Unregister(client)
	metrics.ActiveConnections.Dec()

	for _, roomID := range joined {
		that.manager.Leave(client.id, roomID, client.nameIn(roomID))
	}

	_ = client.conn.Close()

	that.logger.Info("client disconnected", "method", "disconnect", "connID", client.id)
}

func (that *Server) readPump(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readPump", "connID", client.id)

	client.conn.SetReadLimit(readLimit)
	if err := client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error("failed to set read deadline", "error", err)
		return
	}
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, body, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(body, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			that.hub.send(client, usecase.EventError, "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			that.hub.send(client, usecase.EventError, "unknown action: "+message.Action)
			continue
		}

		if err = handler(ctx, client, message.Payload); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
			that.hub.send(client, usecase.EventError, "failed to process "+message.Action)
		}
	}
}

func (that *Server) writePump(ctx context.Context, client *Client) {
	log := that.logger.With("method", "writePump", "connID", client.id)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-client.egress:
			if !ok {
				return
			}

			body, err := json.Marshal(message)
			if err != nil {
				log.Error("failed to marshal message", "error", err)
				continue
			}

			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err = client.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				log.Error("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
