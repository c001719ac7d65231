//go:build !cgo

package sqldb

const CGOEnabled = false
