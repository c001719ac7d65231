package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrExportNotFound = errors.New("export not found")

type (
	// Export is a render tree frozen at the moment it was requested. Exports are
	// write-once; they are never loaded back into a session.
	Export struct {
		ID        string          `json:"id"`
		SessionID string          `json:"sessionId"`
		OwnerID   string          `json:"-"` // Token subject when auth is on.
		Name      string          `json:"name,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
		Data      json.RawMessage `json:"data,omitempty"` // Omitted in list views.
	}

	ExportStore interface {
		// Create assigns the id and creation time and stores the export.
		Create(ctx context.Context, export *Export) (string, error)
		FindID(ctx context.Context, id string) (*Export, error)
		// List returns the exports of one session, oldest first, without Data.
		List(ctx context.Context, sessionID string) ([]*Export, error)
		Delete(ctx context.Context, id string) error
	}

	Room struct {
		ID         string `json:"id"`
		LastActive int64  `json:"lastActive"`
	}

	// RoomRegistry records which sessions were active and when.
	RoomRegistry interface {
		ListRooms(ctx context.Context) ([]Room, error)
		TouchRoom(ctx context.Context, roomID string) error
		DeleteRoom(ctx context.Context, roomID string) error
	}
)
