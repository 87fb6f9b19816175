package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestServerStreamsFrames(t *testing.T) {
	env := newTestEnv(t)
	s := NewServer(env, ServerConfig{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	first := readFrame(t, conn)
	if first.Tick != 0 || first.Generation != 1 || len(first.Shapes) == 0 {
		t.Fatalf("unexpected initial frame: %+v", first)
	}

	stepped, err := s.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	got := readFrame(t, conn)
	if got.Tick != 1 || got.Status != stepped.Status {
		t.Fatalf("unexpected streamed frame: %+v", got)
	}
	if s.Latest().Tick != 1 {
		t.Fatalf("latest frame not updated: %+v", s.Latest())
	}
}

func TestServerFrameEndpoint(t *testing.T) {
	env := newTestEnv(t)
	s := NewServer(env, ServerConfig{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/frame")
	if err != nil {
		t.Fatalf("get frame: %v", err)
	}
	defer resp.Body.Close()
	var f Frame
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Width != 6 || f.Height != 4 {
		t.Fatalf("unexpected frame: %+v", f)
	}

	health, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("unexpected health status %d", health.StatusCode)
	}
}

func TestServerApplyCommands(t *testing.T) {
	env := newTestEnv(t)
	s := NewServer(env, ServerConfig{})
	ctx := context.Background()

	if err := s.Apply(ctx, Command{Action: ActionPause}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !s.Paused() {
		t.Fatal("expected paused")
	}
	if err := s.Apply(ctx, Command{Action: ActionResume}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if s.Paused() {
		t.Fatal("expected resumed")
	}

	if _, err := s.Step(ctx); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := s.Apply(ctx, Command{Action: ActionReset}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.Latest().Tick != 0 || env.TickCount() != 0 {
		t.Fatalf("reset not reflected: %+v", s.Latest())
	}
	if err := s.Apply(ctx, Command{Action: "dance"}); err != nil {
		t.Fatalf("unknown command should be ignored, got %v", err)
	}
}

func TestServerRunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	s := NewServer(env, ServerConfig{Interval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected context error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
