package sqldb

import (
	"fmt"
	"strconv"
	"strings"
)

// Driver names accepted by Open. They are the database/sql names the drivers
// register under.
const (
	DriverSQLite   = "sqlite"  // modernc.org/sqlite, pure Go
	DriverSQLite3  = "sqlite3" // mattn/go-sqlite3, needs cgo
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

type dialect struct {
	placeholder byte // 0 keeps '?'
	keyType     string
	blobType    string
	upsertRoom  string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		keyType:    "TEXT",
		blobType:   "BLOB",
		upsertRoom: "INSERT INTO rooms (id, last_active) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET last_active = excluded.last_active",
	},
	DriverSQLite3: {
		keyType:    "TEXT",
		blobType:   "BLOB",
		upsertRoom: "INSERT INTO rooms (id, last_active) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET last_active = excluded.last_active",
	},
	DriverPostgres: {
		placeholder: '$',
		keyType:     "TEXT",
		blobType:    "BYTEA",
		upsertRoom:  "INSERT INTO rooms (id, last_active) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET last_active = excluded.last_active",
	},
	DriverMySQL: {
		keyType:    "VARCHAR(64)",
		blobType:   "LONGBLOB",
		upsertRoom: "INSERT INTO rooms (id, last_active) VALUES (?, ?) ON DUPLICATE KEY UPDATE last_active = VALUES(last_active)",
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
	}
	return d, nil
}

func (d dialect) schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS exports (
		id %[1]s PRIMARY KEY,
		session_id %[1]s NOT NULL,
		owner_id %[1]s,
		name TEXT,
		created_at BIGINT NOT NULL,
		data %[2]s NOT NULL
	)`, d.keyType, d.blobType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rooms (
		id %s PRIMARY KEY,
		last_active BIGINT NOT NULL
	)`, d.keyType),
	}
}

// rebind rewrites '?' placeholders into the driver's ordinal form.
func (d dialect) rebind(query string) string {
	if d.placeholder == 0 || d.placeholder == '?' {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		b.WriteByte(d.placeholder)
		b.WriteString(strconv.Itoa(n))
		n++
	}
	return b.String()
}
