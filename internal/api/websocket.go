package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/DamienReichhart/TradeForge-sub000/internal/condition"
	"github.com/DamienReichhart/TradeForge-sub000/internal/events"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/i18n"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// editorMessage is one edit sent by the client: the full text of a field.
type editorMessage struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

type readyMessage struct {
	Type   string   `json:"type"`
	ConnID string   `json:"conn_id"`
	Fields []string `json:"fields"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.Opts.AllowedOrigins {
		if o == "*" || strings.TrimRight(o, "/") == origin {
			return true
		}
	}
	return false
}

// editorSocket runs one editor session. Every edit goes through the
// session's Validator, which hands out one status at a time and skips any
// whose field was edited again, so the client always ends on the status of
// its latest text.
func (s *Server) editorSocket(c *gin.Context) {
	up := s.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Log.Warn().Err(err).Msg("ws upgrade error")
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log := s.Log.With().Str("conn", connID).Logger()
	s.publish(events.EventEditorConnected, events.Connection{ConnID: connID, User: CurrentUserID(c)})
	log.Info().Str("user", CurrentUserID(c)).Msg(i18n.M().EditorConnected)
	defer func() {
		s.publish(events.EventEditorDisconnected, events.Connection{ConnID: connID, User: CurrentUserID(c)})
		log.Info().Msg(i18n.M().EditorDisconnected)
	}()

	out := make(chan any, 32)
	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(done) }) }

	send := func(msg any) {
		select {
		case out <- msg:
		case <-done:
		}
	}

	validator := condition.New(s.remoteFor(CurrentToken(c)), func(st condition.Status) {
		resp := newValidityResponse(st.Field, st.Seq, st.Validity)
		resp.Type = "status"
		send(resp)
	},
		condition.WithDebounce(s.Opts.Debounce),
		condition.WithTimeout(s.Opts.Timeout),
		condition.WithLogger(log),
		condition.WithHooks(s.validationHooks(connID)),
	)

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		s.writePump(conn, out, done, stop)
	}()

	fields := make([]string, 0, len(expr.Fields()))
	for _, f := range expr.Fields() {
		fields = append(fields, string(f))
	}
	send(readyMessage{Type: "ready", ConnID: connID, Fields: fields})

	s.readPump(conn, validator, send)

	stop()
	validator.Close()
	writer.Wait()
}

func (s *Server) readPump(conn *websocket.Conn, validator *condition.Validator, send func(any)) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg editorMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Log.Debug().Err(err).Msg("ws read error")
			}
			return
		}
		field, err := expr.ParseField(msg.Field)
		if err != nil {
			s.Log.Debug().Str("field", msg.Field).Msg(i18n.M().EditorBadMessage)
			send(errorMessage{Type: "error", Field: msg.Field, Message: err.Error()})
			continue
		}
		validator.Submit(field, msg.Text)
	}
}

// writePump is the only goroutine writing to conn.
func (s *Server) writePump(conn *websocket.Conn, out <-chan any, done <-chan struct{}, stop func()) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				s.Log.Debug().Err(err).Msg("ws write error")
				stop()
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				stop()
				_ = conn.Close()
				return
			}
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// validationHooks turns validator activity into bus events for the monitor.
func (s *Server) validationHooks(connID string) condition.Hooks {
	return condition.Hooks{
		OnRequest: func(field expr.Field, seq uint64) {
			s.publish(events.EventValidationRequest, events.Validation{ConnID: connID, Field: string(field), Seq: seq})
		},
		OnResult: func(field expr.Field, seq uint64, v expr.Validity, took time.Duration) {
			s.publish(events.EventValidationResult, events.Validation{
				ConnID: connID,
				Field:  string(field),
				Seq:    seq,
				State:  v.State.String(),
				Failed: v.Reason == condition.FailedToValidate,
				Took:   took,
			})
		},
		OnStale: func(field expr.Field, seq uint64) {
			s.publish(events.EventValidationStale, events.Validation{ConnID: connID, Field: string(field), Seq: seq})
		},
	}
}
