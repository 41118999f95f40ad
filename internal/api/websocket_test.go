package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DamienReichhart/TradeForge-sub000/internal/events"
)

type wsMessage struct {
	Type    string   `json:"type"`
	ConnID  string   `json:"conn_id"`
	Fields  []string `json:"fields"`
	Field   string   `json:"field"`
	Seq     uint64   `json:"seq"`
	State   string   `json:"state"`
	Valid   *bool    `json:"valid"`
	Message string   `json:"message"`
}

func dialEditor(t *testing.T, env *testEnv, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.gateway.URL, "http") + "/ws/editor?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func sendEdit(t *testing.T, conn *websocket.Conn, field, text string) {
	t.Helper()
	if err := conn.WriteJSON(map[string]string{"field": field, "text": text}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestEditorSocketRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t, Options{})
	url := "ws" + strings.TrimPrefix(env.gateway.URL, "http") + "/ws/editor"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("resp = %v", resp)
	}
}

func TestEditorSocketValidatesEdits(t *testing.T) {
	env := newTestEnv(t, Options{})
	connected, unsub := env.server.Bus.Subscribe(events.EventEditorConnected, 1)
	defer unsub()

	conn := dialEditor(t, env, makeToken(t, "alice", time.Now().Add(time.Hour)))

	ready := readWS(t, conn)
	if ready.Type != "ready" || ready.ConnID == "" || len(ready.Fields) != 4 {
		t.Fatalf("ready = %+v", ready)
	}
	select {
	case ev := <-connected:
		if c, ok := ev.(events.Connection); !ok || c.User != "alice" || c.ConnID != ready.ConnID {
			t.Fatalf("connected event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no connected event")
	}

	sendEdit(t, conn, "buy_condition", "RSI1 > 70")
	if m := readWS(t, conn); m.Type != "status" || m.State != "validating" || m.Seq != 1 || m.Valid != nil {
		t.Fatalf("local status = %+v", m)
	}
	m := readWS(t, conn)
	if m.State != "valid" || m.Seq != 1 || m.Valid == nil || !*m.Valid || m.Message != "Valid expression" {
		t.Fatalf("remote status = %+v", m)
	}

	sendEdit(t, conn, "sell_condition", "(close > open")
	m = readWS(t, conn)
	if m.Field != "sell_condition" || m.State != "invalid" || m.Message != "Invalid expression: Unbalanced parentheses" {
		t.Fatalf("unbalanced status = %+v", m)
	}

	sendEdit(t, conn, "entry", "x")
	if m := readWS(t, conn); m.Type != "error" || m.Field != "entry" {
		t.Fatalf("bad field = %+v", m)
	}
}

func TestEditorSocketCollapsesRapidEdits(t *testing.T) {
	env := newTestEnv(t, Options{Debounce: 80 * time.Millisecond})
	conn := dialEditor(t, env, makeToken(t, "alice", time.Now().Add(time.Hour)))
	readWS(t, conn) // ready

	for _, text := range []string{"R", "RS", "RSI1 > 7", "RSI1 > 70"} {
		sendEdit(t, conn, "buy_condition", text)
	}
	for seq := uint64(1); seq <= 4; seq++ {
		if m := readWS(t, conn); m.State != "validating" || m.Seq != seq {
			t.Fatalf("edit %d status = %+v", seq, m)
		}
	}
	m := readWS(t, conn)
	if m.State != "valid" || m.Seq != 4 {
		t.Fatalf("final status = %+v", m)
	}
	if n := env.backend.calls.Load(); n != 1 {
		t.Fatalf("backend calls = %d, want 1", n)
	}
}

func TestEditorSocketDropsSupersededAnswer(t *testing.T) {
	env := newTestEnv(t, Options{Debounce: 10 * time.Millisecond})
	stale, unsub := env.server.Bus.Subscribe(events.EventValidationStale, 4)
	defer unsub()

	conn := dialEditor(t, env, makeToken(t, "alice", time.Now().Add(time.Hour)))
	readWS(t, conn) // ready

	sendEdit(t, conn, "buy_condition", "SLOW > 1")
	readWS(t, conn) // validating seq 1

	// Let the request for seq 1 reach the slow backend.
	time.Sleep(50 * time.Millisecond)
	sendEdit(t, conn, "buy_condition", "BAD > 1")

	m := readWS(t, conn)
	if m.State != "validating" || m.Seq != 2 {
		t.Fatalf("second edit = %+v", m)
	}
	m = readWS(t, conn)
	if m.Seq != 2 || m.State != "invalid" || m.Message != "Invalid expression: Unknown identifier BAD" {
		t.Fatalf("final status = %+v", m)
	}

	select {
	case ev := <-stale:
		if v := ev.(events.Validation); v.Seq != 1 {
			t.Fatalf("stale event = %+v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("seq 1 answer was not reported stale")
	}

	// Nothing for seq 1 may follow.
	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var extra wsMessage
	if err := conn.ReadJSON(&extra); err == nil {
		t.Fatalf("unexpected message %+v", extra)
	}
}
