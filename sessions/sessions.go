// Package sessions hosts the live documents. Each session serializes every
// mutation of its document behind one mutex, so the flyer core only ever sees a
// single mutator.
package sessions

import (
	"context"
	"errors"
	"flyer-server/core"
	"flyer-server/flyer"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	ID string

	mu   sync.Mutex
	doc  *flyer.Document
	drag *flyer.DragController
}

// Do runs fn with exclusive access to the session's document and drag
// controller. fn must not keep either past its return.
func (s *Session) Do(fn func(doc *flyer.Document, drag *flyer.DragController)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc, s.drag)
}

// State is a convenience around Do for read-only callers.
func (s *Session) State() flyer.DocumentState {
	var st flyer.DocumentState
	s.Do(func(doc *flyer.Document, _ *flyer.DragController) { st = doc.State() })
	return st
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    core.RoomRegistry
	docOpts  []flyer.Option
}

// NewRegistry keeps sessions in memory and reports activity to rooms. The
// document options apply to every session created.
func NewRegistry(rooms core.RoomRegistry, docOpts ...flyer.Option) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rooms:    rooms,
		docOpts:  docOpts,
	}
}

func (r *Registry) Create(ctx context.Context) *Session {
	doc := flyer.NewDocument(r.docOpts...)
	s := &Session{
		ID:   uuid.NewString(),
		doc:  doc,
		drag: flyer.NewDragController(doc),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	logrus.WithField("session_id", s.ID).Info("Session created")
	r.touch(ctx, s.ID)
	return s
}

// Get returns the session and marks it active.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	r.touch(ctx, id)
	return s, nil
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}

	if err := r.rooms.DeleteRoom(ctx, id); err != nil {
		logrus.WithField("session_id", id).WithError(err).Warn("Failed to drop session from room registry")
	}
	logrus.WithField("session_id", id).Info("Session deleted")
	return nil
}

// Rooms lists sessions by recent activity as the room registry sees them.
func (r *Registry) Rooms(ctx context.Context) ([]core.Room, error) {
	return r.rooms.ListRooms(ctx)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// touch never fails the caller; a stale registry entry is harmless.
func (r *Registry) touch(ctx context.Context, id string) {
	if err := r.rooms.TouchRoom(ctx, id); err != nil {
		logrus.WithField("session_id", id).WithError(err).Warn("Failed to touch room")
	}
}
