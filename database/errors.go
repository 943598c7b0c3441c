package database

import (
	"errors"

	"github.com/computersciencehouse/borda/logging"
	"github.com/computersciencehouse/borda/poll"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// logError records a driver failure against the calling store method and
// hands it back unchanged. kv is a flat list of field name/value pairs.
func logError(err error, kv ...interface{}) error {
	fields := logrus.Fields{"module": "database", "method": logging.Caller(1), "error": err}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	logging.Logger.WithFields(fields).Error("database operation failed")
	return err
}

func isDomainError(err error) bool {
	for _, target := range []error{
		poll.ErrNotFound,
		poll.ErrPollNotOpen,
		poll.ErrAlreadyVoted,
		poll.ErrInvalidStateTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isUniqueViolation covers dialects whose errors gorm translates and raw
// postgres errors that slip through untranslated.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
