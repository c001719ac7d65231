package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"flyer-server/core"
	"fmt"
	stdlog "log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqlStore struct {
	db *sql.DB
	d  dialect
}

// DefaultSQLiteDriver is the sqlite driver used when none is named: the cgo
// driver when it is linked in, the pure Go one otherwise.
func DefaultSQLiteDriver() string {
	if CGOEnabled {
		return DriverSQLite3
	}
	return DriverSQLite
}

// Open connects to the database and creates the tables it needs.
func Open(driver, dataSourceName string) (*sqlStore, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, err
	}
	for _, stmt := range d.schema() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &sqlStore{db: db, d: d}, nil
}

// NewStore is Open for startup code: any failure is fatal.
func NewStore(driver, dataSourceName string) *sqlStore {
	s, err := Open(driver, dataSourceName)
	if err != nil {
		stdlog.Fatal(err)
	}
	return s
}

func (s *sqlStore) Close() error { return s.db.Close() }

func (s *sqlStore) Create(ctx context.Context, export *core.Export) (string, error) {
	export.ID = ulid.Make().String()
	if export.CreatedAt.IsZero() {
		export.CreatedAt = time.Now().UTC()
	}
	export.CreatedAt = export.CreatedAt.Truncate(time.Millisecond)
	log := logrus.WithFields(logrus.Fields{
		"export_id":   export.ID,
		"session_id":  export.SessionID,
		"data_length": len(export.Data),
	})

	data := []byte(export.Data)
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		s.d.rebind("INSERT INTO exports (id, session_id, owner_id, name, created_at, data) VALUES (?, ?, ?, ?, ?, ?)"),
		export.ID, export.SessionID, export.OwnerID, export.Name, export.CreatedAt.UnixMilli(), data)
	if err != nil {
		log.WithError(err).Error("Failed to create export")
		return "", err
	}

	log.Info("Export created successfully")
	return export.ID, nil
}

func (s *sqlStore) FindID(ctx context.Context, id string) (*core.Export, error) {
	log := logrus.WithField("export_id", id)
	log.Debug("Retrieving export by ID")

	var (
		e           core.Export
		owner, name sql.NullString
		createdAt   int64
		data        []byte
	)
	err := s.db.QueryRowContext(ctx,
		s.d.rebind("SELECT id, session_id, owner_id, name, created_at, data FROM exports WHERE id = ?"), id).
		Scan(&e.ID, &e.SessionID, &owner, &name, &createdAt, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Export with specified ID not found")
			return nil, fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
		}
		log.WithError(err).Error("Failed to retrieve export")
		return nil, err
	}
	e.OwnerID = owner.String
	e.Name = name.String
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	e.Data = data

	log.Info("Export retrieved successfully")
	return &e, nil
}

func (s *sqlStore) List(ctx context.Context, sessionID string) ([]*core.Export, error) {
	log := logrus.WithField("session_id", sessionID)

	rows, err := s.db.QueryContext(ctx,
		s.d.rebind("SELECT id, session_id, owner_id, name, created_at FROM exports WHERE session_id = ? ORDER BY id ASC"),
		sessionID)
	if err != nil {
		log.WithError(err).Error("Failed to list exports")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close export rows")
		}
	}()

	exports := make([]*core.Export, 0)
	for rows.Next() {
		var (
			e           core.Export
			owner, name sql.NullString
			createdAt   int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &owner, &name, &createdAt); err != nil {
			log.WithError(err).Error("Failed to scan export")
			continue
		}
		e.OwnerID = owner.String
		e.Name = name.String
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		exports = append(exports, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debugf("Listed %d exports", len(exports))
	return exports, nil
}

func (s *sqlStore) Delete(ctx context.Context, id string) error {
	log := logrus.WithField("export_id", id)

	result, err := s.db.ExecContext(ctx, s.d.rebind("DELETE FROM exports WHERE id = ?"), id)
	if err != nil {
		log.WithError(err).Error("Failed to delete export")
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("export %s: %w", id, core.ErrExportNotFound)
	}

	log.Info("Export deleted successfully")
	return nil
}

func (s *sqlStore) TouchRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	_, err := s.db.ExecContext(ctx, s.d.rebind(s.d.upsertRoom), roomID, time.Now().UnixMilli())
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to touch room")
	}
	return err
}

func (s *sqlStore) ListRooms(ctx context.Context) ([]core.Room, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, last_active FROM rooms ORDER BY last_active DESC, id ASC")
	if err != nil {
		logrus.WithError(err).Error("Failed to list rooms")
		return nil, err
	}
	defer rows.Close()

	rooms := make([]core.Room, 0)
	for rows.Next() {
		var r core.Room
		if err := rows.Scan(&r.ID, &r.LastActive); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (s *sqlStore) DeleteRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	_, err := s.db.ExecContext(ctx, s.d.rebind("DELETE FROM rooms WHERE id = ?"), roomID)
	return err
}
