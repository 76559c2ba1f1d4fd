package dbx

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
)

// Classify maps low-level driver failures onto the shared sentinel taxonomy
// so that callers can use errors.Is regardless of the storage engine.
// Referential-integrity and uniqueness failures become ErrConstraintViolation,
// connectivity failures become ErrStoreUnavailable. Anything else is returned
// unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23 covers integrity constraint violations.
		if strings.HasPrefix(pgErr.Code, "23") {
			return fmt.Errorf("%w: %s", common.ErrConstraintViolation, pgErr.Message)
		}
		// Class 08 covers connection exceptions.
		if strings.HasPrefix(pgErr.Code, "08") {
			return fmt.Errorf("%w: %s", common.ErrStoreUnavailable, pgErr.Message)
		}
		return err
	}

	// modernc.org/sqlite reports constraint failures as plain error strings.
	msg := err.Error()
	if strings.Contains(msg, "constraint failed") || strings.Contains(msg, "constraint violation") {
		return fmt.Errorf("%w: %v", common.ErrConstraintViolation, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	return err
}
