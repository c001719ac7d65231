//go:build cgo

package sqldb

import _ "github.com/mattn/go-sqlite3"

// CGOEnabled reports whether the sqlite3 driver is linked in. It requires cgo;
// without it only the pure Go sqlite driver is available.
const CGOEnabled = true
