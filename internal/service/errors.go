package service

import (
	"database/sql"
	"errors"

	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

// lookupError maps a repository read failure to NOT_FOUND or INTERNAL_ERROR.
func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
