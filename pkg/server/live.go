package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/observability"
	"github.com/matzehuels/chaintwin/pkg/view"
)

const liveWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// liveEvent is one interaction sent by a live client:
//
//	{"type": "hover", "node": "mills"}
//	{"type": "route", "route": "export"}
//	{"type": "zoom", "direction": "in"}
type liveEvent struct {
	Type      string       `json:"type"`
	Node      flow.NodeID  `json:"node,omitempty"`
	Route     flow.RouteID `json:"route,omitempty"`
	Direction string       `json:"direction,omitempty"`
}

// liveMessage answers every event with either the new state or an error.
type liveMessage struct {
	View  *viewResponse  `json:"view,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

// apply dispatches ev to v. Unknown event types are rejected without a
// state change.
func apply(v *view.View, ev liveEvent) error {
	switch ev.Type {
	case "hover":
		return v.HoverEnter(ev.Node)
	case "leave":
		v.HoverLeave()
	case "click":
		return v.Click(ev.Node)
	case "unpin":
		v.Unpin()
	case "route":
		return v.SelectRoute(ev.Route)
	case "clear-route":
		v.ClearRoute()
	case "zoom":
		return zoom(v, ev.Direction)
	default:
		return cterr.New(cterr.ErrCodeInvalidInput, "unknown event type %q", ev.Type)
	}
	return nil
}

// liveConn serializes writes to a websocket, which allows one writer at a
// time. The read loop and the view watcher both write.
type liveConn struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	closing atomic.Bool
	once    sync.Once
}

func (c *liveConn) send(msg liveMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// gone reports err to the client and starts the close handshake. The read
// loop ends when the client answers the close frame or the deadline passes.
func (c *liveConn) gone(err error) {
	c.once.Do(func() {
		c.closing.Store(true)
		_, body := errorBody(err)
		_ = c.send(liveMessage{Error: &body})
		deadline := time.Now().Add(liveWriteTimeout)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "view gone"), deadline)
		_ = c.conn.SetReadDeadline(deadline)
	})
}

// handleLive drives a view over a websocket. The current state is sent on
// connect and after every event. The connection ends when the view expires
// or is unmounted, or when it sits idle for longer than the view TTL.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := s.views.get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Debug("live upgrade failed", "id", id, "error", err)
		return
	}
	defer ws.Close()
	conn := &liveConn{conn: ws}

	ctx := r.Context()
	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()

	quit := make(chan struct{})
	defer close(quit)
	go func() {
		select {
		case <-e.done:
			conn.gone(cterr.New(cterr.ErrCodeViewNotFound, "view %s was unmounted or expired", id))
		case <-quit:
		}
	}()

	e.mu.Lock()
	state := s.describe(e)
	e.mu.Unlock()
	if err := conn.send(liveMessage{View: &state}); err != nil {
		return
	}

	for {
		if s.views.ttl > 0 && !conn.closing.Load() {
			_ = ws.SetReadDeadline(time.Now().Add(s.views.ttl))
		}
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("live connection closed", "id", id, "error", err)
			}
			return
		}
		if conn.closing.Load() {
			continue
		}

		var ev liveEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			_, body := errorBody(cterr.Wrap(cterr.ErrCodeInvalidInput, err, "decode event"))
			if conn.send(liveMessage{Error: &body}) != nil {
				return
			}
			continue
		}

		e, err := s.views.get(id)
		if err != nil {
			conn.gone(err)
			continue
		}

		e.mu.Lock()
		err = apply(e.view, ev)
		observability.View().OnViewEvent(ctx, id, ev.Type, err)
		var msg liveMessage
		if err != nil {
			_, body := errorBody(err)
			msg.Error = &body
		} else {
			state := s.describe(e)
			msg.View = &state
		}
		e.mu.Unlock()

		if err := conn.send(msg); err != nil {
			return
		}
	}
}
