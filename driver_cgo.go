//go:build cgo

package wilderblog

// Registers the "sqlite3" driver for DATABASE_DRIVER=sqlite3.
import _ "github.com/mattn/go-sqlite3"
