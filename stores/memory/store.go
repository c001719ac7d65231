package memory

import (
	"context"
	"flyer-server/core"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type store struct {
	mu      sync.RWMutex
	exports map[string]core.Export
	rooms   map[string]int64
}

// NewStore returns an in-process store. It serves both exports and the room
// registry and loses everything on restart.
func NewStore() *store {
	return &store{
		exports: make(map[string]core.Export),
		rooms:   make(map[string]int64),
	}
}

func (s *store) Create(ctx context.Context, export *core.Export) (string, error) {
	export.ID = ulid.Make().String()
	if export.CreatedAt.IsZero() {
		export.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.exports[export.ID] = *export
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"export_id":   export.ID,
		"session_id":  export.SessionID,
		"data_length": len(export.Data),
	}).Info("Export created successfully")

	return export.ID, nil
}

func (s *store) FindID(ctx context.Context, id string) (*core.Export, error) {
	log := logrus.WithField("export_id", id)

	s.mu.RLock()
	export, ok := s.exports[id]
	s.mu.RUnlock()

	if !ok {
		log.Warn("Export with specified ID not found")
		return nil, fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
	}

	log.Info("Export retrieved successfully")
	return &export, nil
}

func (s *store) List(ctx context.Context, sessionID string) ([]*core.Export, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exports := make([]*core.Export, 0)
	for _, e := range s.exports {
		if e.SessionID != sessionID {
			continue
		}
		e.Data = nil
		exports = append(exports, &e)
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].ID < exports[j].ID })

	logrus.WithField("session_id", sessionID).Debugf("Listed %d exports", len(exports))
	return exports, nil
}

func (s *store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exports[id]; !ok {
		return fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
	}
	delete(s.exports, id)

	logrus.WithField("export_id", id).Info("Export deleted successfully")
	return nil
}

func (s *store) TouchRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}

	s.mu.Lock()
	s.rooms[roomID] = time.Now().UnixMilli()
	s.mu.Unlock()

	return nil
}

func (s *store) ListRooms(ctx context.Context) ([]core.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]core.Room, 0, len(s.rooms))
	for id, last := range s.rooms {
		rooms = append(rooms, core.Room{ID: id, LastActive: last})
	}
	sortRooms(rooms)

	return rooms, nil
}

func (s *store) DeleteRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, roomID)
	return nil
}

// sortRooms orders most recently active first, ties by id.
func sortRooms(rooms []core.Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].LastActive == rooms[j].LastActive {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].LastActive > rooms[j].LastActive
	})
}
