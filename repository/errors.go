package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"echofm/apperr"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// wrapStore wraps a store error, classifying connection/timeout failures as
// transient so callers can retry with backoff.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return apperr.Wrap(apperr.KindTransientStore, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// isDuplicateEntry reports whether err is a MySQL unique-constraint
// violation.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	// Fallback for wrapped drivers that only expose the message.
	return strings.Contains(strings.ToLower(err.Error()), "duplicate entry")
}
