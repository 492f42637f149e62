package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	appErrors "github.com/edudiario/escola-api/pkg/errors"
)

// translateDBError maps Postgres constraint violations onto the domain error
// taxonomy. Uniqueness lives in the schema, so a concurrent duplicate insert
// surfaces here instead of slipping past an application-level pre-check.
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "unique_violation":
		if strings.Contains(pqErr.Constraint, "email") {
			return appErrors.Wrap(err, appErrors.ErrDuplicateEmail.Code, appErrors.ErrDuplicateEmail.Status, appErrors.ErrDuplicateEmail.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrDuplicateName.Code, appErrors.ErrDuplicateName.Status, appErrors.ErrDuplicateName.Message)
	case "foreign_key_violation":
		return appErrors.Wrap(err, appErrors.ErrReferenced.Code, appErrors.ErrReferenced.Status, appErrors.ErrReferenced.Message)
	}
	return err
}
