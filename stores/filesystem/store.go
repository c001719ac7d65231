package filesystem

import (
	"context"
	"encoding/json"
	"flyer-server/core"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const fileExt = ".json"

type fsStore struct {
	basePath string
}

// record is the on-disk form of an export. It keeps the owner, which the API
// representation hides.
type record struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	OwnerID   string          `json:"ownerId,omitempty"`
	Name      string          `json:"name,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Data      json.RawMessage `json:"data"`
}

// NewStore creates a filesystem-backed export store. Each export is one JSON
// file named after its id.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

// exportPath rejects ids that would escape the base directory.
func (s *fsStore) exportPath(id string) (string, error) {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid export id %q", id)
	}
	return filepath.Join(s.basePath, id+fileExt), nil
}

func (s *fsStore) Create(ctx context.Context, export *core.Export) (string, error) {
	export.ID = ulid.Make().String()
	if export.CreatedAt.IsZero() {
		export.CreatedAt = time.Now().UTC()
	}
	filePath, _ := s.exportPath(export.ID)
	log := logrus.WithFields(logrus.Fields{
		"export_id":  export.ID,
		"session_id": export.SessionID,
		"file_path":  filePath,
	})

	data, err := json.Marshal(record{
		ID:        export.ID,
		SessionID: export.SessionID,
		OwnerID:   export.OwnerID,
		Name:      export.Name,
		CreatedAt: export.CreatedAt,
		Data:      export.Data,
	})
	if err != nil {
		log.WithError(err).Error("Failed to marshal export")
		return "", err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to create export")
		return "", err
	}

	log.Info("Export created successfully")
	return export.ID, nil
}

func (s *fsStore) FindID(ctx context.Context, id string) (*core.Export, error) {
	log := logrus.WithField("export_id", id)
	filePath, err := s.exportPath(id)
	if err != nil {
		log.Warn("Rejected export id")
		return nil, fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
	}

	rec, err := readRecord(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Export with specified ID not found")
			return nil, fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
		}
		log.WithError(err).Error("Failed to retrieve export")
		return nil, err
	}

	log.Info("Export retrieved successfully")
	return rec.export(), nil
}

func (s *fsStore) List(ctx context.Context, sessionID string) ([]*core.Export, error) {
	log := logrus.WithField("session_id", sessionID)

	files, err := os.ReadDir(s.basePath)
	if err != nil {
		log.WithError(err).Error("Failed to read export directory")
		return nil, err
	}

	exports := make([]*core.Export, 0)
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), fileExt) {
			continue
		}
		rec, err := readRecord(filepath.Join(s.basePath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read export file %s, skipping", file.Name())
			continue
		}
		if rec.SessionID != sessionID {
			continue
		}
		e := rec.export()
		e.Data = nil
		exports = append(exports, e)
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].ID < exports[j].ID })

	log.Debugf("Listed %d exports", len(exports))
	return exports, nil
}

func (s *fsStore) Delete(ctx context.Context, id string) error {
	log := logrus.WithField("export_id", id)
	filePath, err := s.exportPath(id)
	if err != nil {
		return fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Export file not found for deletion")
			return fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
		}
		log.WithError(err).Error("Failed to delete export file")
		return err
	}

	log.Info("Export deleted successfully")
	return nil
}

func readRecord(filePath string) (*record, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *record) export() *core.Export {
	return &core.Export{
		ID:        r.ID,
		SessionID: r.SessionID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		Data:      r.Data,
	}
}
