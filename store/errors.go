package store

import (
	"context"
	"errors"

	sqlitedriver "github.com/glebarez/go-sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when a unique key (room number, CIN, university name) is already taken.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrForeignKey is returned when a write references a missing parent or a
	// delete would orphan rows that still point at the record.
	ErrForeignKey = errors.New("store: foreign key violation")
	// ErrConflict is returned when the database aborted a write because of a
	// concurrent one (deadlock, lock wait timeout, serialization failure).
	// The whole operation may be retried.
	ErrConflict = errors.New("store: write conflict")
)

// MySQL error numbers
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// SQLite result codes, extended where the constraint kind matters.
const (
	sqliteBusy       = 5
	sqliteLocked     = 6
	sqliteForeignKey = 787
	sqlitePrimaryKey = 1555
	sqliteUnique     = 2067
)

// translate maps driver errors onto the store error values. Anything it does
// not recognise is returned untouched so callers still see the driver error.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return wrap(ErrDuplicate, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return wrap(ErrForeignKey, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return wrap(ErrDuplicate, err)
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return wrap(ErrForeignKey, err)
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return wrap(ErrConflict, err)
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return wrap(ErrDuplicate, err)
		case "23503":
			return wrap(ErrForeignKey, err)
		case "40001", "40P01", "55P03":
			return wrap(ErrConflict, err)
		}
		return err
	}

	var liteErr *sqlitedriver.Error
	if errors.As(err, &liteErr) {
		switch code := liteErr.Code(); {
		case code == sqliteUnique || code == sqlitePrimaryKey:
			return wrap(ErrDuplicate, err)
		case code == sqliteForeignKey:
			return wrap(ErrForeignKey, err)
		case code&0xff == sqliteBusy || code&0xff == sqliteLocked:
			return wrap(ErrConflict, err)
		}
		return err
	}

	return err
}

type wrappedError struct {
	kind  error
	cause error
}

func wrap(kind, cause error) error {
	return &wrappedError{kind: kind, cause: cause}
}

func (e *wrappedError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *wrappedError) Is(target error) bool {
	return target == e.kind
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}
