package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrTxAborted = errors.New("db: transaction aborted")
	ErrNotReady  = errors.New("db: not ready")
)

// Op constants map to Redis command names or SQL statement kinds for error context.
const (
	OpPing      = "PING"
	OpHGetAll   = "HGETALL"
	OpHSet      = "HSET"
	OpExists    = "EXISTS"
	OpZAdd      = "ZADD"
	OpZRem      = "ZREM"
	OpZRevRange = "ZREVRANGE"
	OpExec      = "EXEC"

	OpSelect  = "SELECT"
	OpInsert  = "INSERT"
	OpUpdate  = "UPDATE"
	OpMigrate = "MIGRATE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
