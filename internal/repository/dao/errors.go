package dao

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNoActiveRound         = errors.New("no active round for tickets")
	ErrNoPendingRound        = errors.New("no closed round awaiting results")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrTicketExists          = errors.New("ticket already exists")
	ErrInvalidRoundReference = errors.New("invalid round reference")
	ErrInvalidTicketData     = errors.New("invalid ticket data")
	ErrPersistence           = errors.New("persistence failure")
)

var businessErrors = []error{
	ErrNoActiveRound,
	ErrNoPendingRound,
	ErrTicketNotFound,
}

// translate maps store signals onto the package errors. Anything it does not
// recognise is wrapped as ErrPersistence.
func translate(err error) error {
	if err == nil {
		return nil
	}

	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return err
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			if pgErr.ConstraintName == singleActiveIndex {
				return fmt.Errorf("%w: concurrent round open: %w", ErrPersistence, err)
			}
			return ErrTicketExists
		case pgerrcode.ForeignKeyViolation:
			return ErrInvalidRoundReference
		case pgerrcode.InvalidTextRepresentation:
			return ErrInvalidTicketData
		}
	}

	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// isTransient reports whether retrying the whole transaction may succeed.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure,
			pgerrcode.DeadlockDetected,
			pgerrcode.AdminShutdown,
			pgerrcode.CannotConnectNow:
			return true
		case pgerrcode.UniqueViolation:
			return pgErr.ConstraintName == singleActiveIndex
		}

		return pgerrcode.IsConnectionException(pgErr.Code)
	}

	return errors.Is(err, driver.ErrBadConn) || pgconn.SafeToRetry(err)
}
