package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"flyer-server/flyer"
	"flyer-server/sessions"
	"fmt"
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// SessionGetter resolves the session a socket joins.
type SessionGetter interface {
	Get(ctx context.Context, id string) (*sessions.Session, error)
}

var (
	errNoSession        = errors.New("join a session first")
	errSessionIDMissing = errors.New("session id is required")
	errPointerMissing   = errors.New("pointer payload is required")
)

// SetupSocketIO builds the gesture channel. Besides localhost and tauri, the
// origins in allowedOrigins may connect.
func SetupSocketIO(reg SessionGetter, allowedOrigins ...string) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	origins := []any{
		"tauri://localhost",
		regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`),
	}
	for _, o := range allowedOrigins {
		origins = append(origins, o)
	}
	opts.SetCors(&types.Cors{
		Origin:      origins,
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		c := &client{srv: srv, socket: socket, reg: reg}
		utils.Log().Printf("socket %v connected\n", socket.Id())

		socket.On("join-session", c.join)
		socket.On("drag-mode", c.dragMode)
		socket.On("drag-start", c.dragStart)
		socket.On("drag-move", c.dragMove)
		socket.On("drag-end", c.dragEnd)

		socket.On("disconnecting", func(...any) {
			for _, room := range socket.Rooms().Keys() {
				if string(room) != string(socket.Id()) {
					c.announceUsers(room, socket.Id())
				}
			}
		})

		socket.On("disconnect", func(...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return srv
}

// client is the per-connection state: the session the socket has joined.
type client struct {
	srv    *socketio.Server
	socket *socketio.Socket
	reg    SessionGetter

	mu      sync.Mutex
	session *sessions.Session
}

func (c *client) current() *sessions.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *client) join(datas ...any) {
	ack, args := extractAck(datas)
	id := ""
	if len(args) > 0 {
		id, _ = args[0].(string)
	}
	if id == "" {
		respondWithAck(c.socket, ack, "join-session-ack", ackPayload(errSessionIDMissing), errSessionIDMissing)
		return
	}

	s, err := c.reg.Get(context.Background(), id)
	if err != nil {
		respondWithAck(c.socket, ack, "join-session-ack", ackPayload(err), err)
		return
	}

	c.mu.Lock()
	prev := c.session
	c.session = s
	c.mu.Unlock()
	if prev != nil && prev.ID != s.ID {
		c.socket.Leave(socketio.Room(prev.ID))
	}

	room := socketio.Room(s.ID)
	c.socket.Join(room)
	logrus.WithFields(logrus.Fields{"session_id": s.ID, "socket_id": c.socket.Id()}).Info("Socket joined session")
	c.announceUsers(room, "")

	enabled, state := s.DragState()
	payload := ackPayload(nil)
	payload["dragMode"] = enabled
	payload["state"] = stateMap(state)
	respondWithAck(c.socket, ack, "join-session-ack", payload, nil)
}

func (c *client) dragMode(datas ...any) {
	ack, args := extractAck(datas)
	s := c.current()
	if s == nil {
		respondWithAck(c.socket, ack, "", ackPayload(errNoSession), errNoSession)
		return
	}
	enabled := len(args) > 0 && truthy(args[0])
	s.SetDragMode(enabled)
	c.emitState(s)
	respondWithAck(c.socket, ack, "", ackPayload(nil), nil)
}

func (c *client) dragStart(datas ...any) {
	ack, args := extractAck(datas)
	s := c.current()
	if s == nil {
		respondWithAck(c.socket, ack, "", ackPayload(errNoSession), errNoSession)
		return
	}
	p, err := decodePointer(args)
	if err != nil {
		respondWithAck(c.socket, ack, "", ackPayload(err), err)
		return
	}
	accepted, _, err := s.Press(p)
	if err != nil {
		respondWithAck(c.socket, ack, "", ackPayload(err), err)
		return
	}
	c.emitState(s)
	payload := ackPayload(nil)
	payload["accepted"] = accepted
	respondWithAck(c.socket, ack, "", payload, nil)
}

func (c *client) dragMove(datas ...any) {
	ack, args := extractAck(datas)
	s := c.current()
	if s == nil {
		respondWithAck(c.socket, ack, "", ackPayload(errNoSession), errNoSession)
		return
	}
	p, err := decodePointer(args)
	if err != nil {
		respondWithAck(c.socket, ack, "", ackPayload(err), err)
		return
	}
	moved, err := s.Move(p)
	if err != nil {
		respondWithAck(c.socket, ack, "", ackPayload(err), err)
		return
	}

	payload := ackPayload(nil)
	payload["moved"] = moved != nil
	if moved != nil {
		msg := movedMap(*moved)
		if err := c.srv.In(socketio.Room(s.ID)).Emit("layer-moved", msg); err != nil {
			logrus.WithField("session_id", s.ID).WithError(err).Error("Failed to broadcast layer move")
		}
		payload["position"] = msg["position"]
	}
	respondWithAck(c.socket, ack, "", payload, nil)
}

func (c *client) dragEnd(datas ...any) {
	ack, _ := extractAck(datas)
	s := c.current()
	if s == nil {
		respondWithAck(c.socket, ack, "", ackPayload(errNoSession), errNoSession)
		return
	}
	s.Release()
	c.emitState(s)
	respondWithAck(c.socket, ack, "", ackPayload(nil), nil)
}

// emitState sends the drag state to this socket only.
func (c *client) emitState(s *sessions.Session) {
	enabled, state := s.DragState()
	msg := stateMap(state)
	msg["enabled"] = enabled
	_ = c.socket.Emit("drag-state", msg)
}

// announceUsers tells a room who is in it, leaving out the socket that is on
// its way out.
func (c *client) announceUsers(room socketio.Room, leaving socketio.SocketId) {
	c.srv.In(room).FetchSockets()(func(users []*socketio.RemoteSocket, err error) {
		if err != nil {
			utils.Log().Printf("fetch sockets of room %v: %v\n", room, err)
			return
		}
		ids := make([]socketio.SocketId, 0, len(users))
		for _, u := range users {
			if u.Id() != leaving {
				ids = append(ids, u.Id())
			}
		}
		if len(ids) > 0 {
			c.srv.In(room).Emit("room-user-change", ids)
		}
	})
}

// decodePointer reads the first argument as a pointer event. Socket payloads
// arrive as generic maps, so they go through JSON once.
func decodePointer(args []any) (sessions.Pointer, error) {
	var p sessions.Pointer
	if len(args) == 0 || args[0] == nil {
		return p, errPointerMissing
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return p, fmt.Errorf("invalid pointer payload: %w", err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("invalid pointer payload: %w", err)
	}
	return p, nil
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case map[string]any:
		enabled, _ := b["enabled"].(bool)
		return enabled
	default:
		return false
	}
}

func ackPayload(err error) map[string]any {
	if err != nil {
		return map[string]any{"status": "error", "error": err.Error()}
	}
	return map[string]any{"status": "ok"}
}

func stateMap(s flyer.DragState) map[string]any {
	m := map[string]any{
		"dragging":   s.Dragging,
		"grabOffset": map[string]any{"x": s.GrabOffset.X, "y": s.GrabOffset.Y},
	}
	if s.Dragging {
		m["layerId"] = s.LayerID
		m["kind"] = string(s.Kind)
	}
	return m
}

func movedMap(m sessions.Moved) map[string]any {
	return map[string]any{
		"layerId":  m.LayerID,
		"kind":     string(m.Kind),
		"position": map[string]any{"x": m.Position.X, "y": m.Position.Y},
	}
}
