package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"minefield/internal/logging"
	"minefield/internal/minefield"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	clientBuffer   = 16
)

// Command is a control message sent by a websocket client.
type Command struct {
	Action string `json:"action"`
}

const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionReset  = "reset"
)

type ServerConfig struct {
	Interval time.Duration
	Logger   logrus.FieldLogger
}

// Server streams frames of one environment to websocket clients. Run owns
// the environment; connections only ever see Frame copies.
type Server struct {
	env      *minefield.Environment
	interval time.Duration
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
	commands chan Command

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  Frame
	paused  bool
}

func NewServer(env *minefield.Environment, cfg ServerConfig) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Server{
		env:      env,
		interval: cfg.Interval,
		log:      logging.OrDiscard(cfg.Logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		commands: make(chan Command, 8),
		clients:  make(map[*client]struct{}),
		latest:   Capture(env),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/frame", s.handleFrame)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run ticks the environment every interval and applies client commands until
// ctx is done or the environment fails.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-s.commands:
			if err := s.Apply(ctx, cmd); err != nil {
				return err
			}
		case <-ticker.C:
			if s.Paused() {
				continue
			}
			if _, err := s.Step(ctx); err != nil {
				return err
			}
		}
	}
}

// Step advances the environment one tick and broadcasts the new frame.
func (s *Server) Step(ctx context.Context) (Frame, error) {
	if err := s.env.Tick(ctx); err != nil {
		return Frame{}, err
	}
	frame := Capture(s.env)
	s.broadcast(frame)
	return frame, nil
}

// Apply executes a client command on the scheduler goroutine.
func (s *Server) Apply(ctx context.Context, cmd Command) error {
	switch cmd.Action {
	case ActionPause, ActionResume:
		s.mu.Lock()
		s.paused = cmd.Action == ActionPause
		s.mu.Unlock()
	case ActionReset:
		if err := s.env.Reset(ctx); err != nil {
			return err
		}
		s.broadcast(Capture(s.env))
	default:
		s.log.WithField("action", cmd.Action).Warn("unknown command")
	}
	return nil
}

func (s *Server) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// Latest returns the most recently broadcast frame.
func (s *Server) Latest() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) broadcast(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = frame
	for c := range s.clients {
		select {
		case c.send <- frame:
		default:
			s.log.Debug("client too slow, dropping frame")
		}
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
	c.send <- s.latest
	s.log.WithField("clients", len(s.clients)).Info("client connected")
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	s.log.WithField("clients", len(s.clients)).Info("client disconnected")
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Latest()); err != nil {
		s.log.WithError(err).Warn("encode frame")
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &client{server: s, conn: conn, send: make(chan Frame, clientBuffer)}
	s.register(c)
	go c.writePump()
	go c.readPump()
}

type client struct {
	server *Server
	conn   *websocket.Conn
	send   chan Frame
}

// readPump forwards commands to the scheduler and detects disconnects.
func (c *client) readPump() {
	defer func() {
		c.server.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.log.WithError(err).Warn("websocket read failed")
			}
			return
		}
		select {
		case c.server.commands <- cmd:
		default:
			c.server.log.WithField("action", cmd.Action).Warn("command queue full, dropping")
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.server.log.WithError(err).Debug("write frame failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
