package db

import "errors"

// ErrKeyNotFound is returned by KVStore.Get for absent or expired entries.
var ErrKeyNotFound = errors.New("db: key not found")

// Op names the storage command that failed. Redis command names double as
// labels for the equivalent SQLite statements.
type Op string

// Operations reported in Error.
const (
	OpCreateIndex Op = "FT.CREATE"
	OpSearch      Op = "FT.SEARCH"
	OpAggregate   Op = "FT.AGGREGATE"
	OpHSet        Op = "HSET"
	OpHGetAll     Op = "HGETALL"
	OpGet         Op = "GET"
	OpSet         Op = "SET"
	OpDel         Op = "DEL"
	OpIncrBy      Op = "INCRBY"
	OpExpire      Op = "EXPIRE"
	OpQuery       Op = "QUERY"
	OpMigrate     Op = "MIGRATE"
)

// Error is a backend failure tagged with the operation that produced it.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string { return "db " + string(e.Op) + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// FailedOp returns the operation of the first *Error in err's chain.
func FailedOp(err error) (Op, bool) {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr.Op, true
	}
	return "", false
}
