package errx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// WrapDB maps statistics database errors to AppError. A query returning no rows
// is not a failure for the aggregate views; callers handle empty result sets
// through the no_data warning path, so pgx.ErrNoRows passes through untouched.
func WrapDB(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	return New(err, http.StatusBadGateway, DatabaseErrorMessage)
}
