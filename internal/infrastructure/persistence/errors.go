package persistence

import (
	"errors"

	"github.com/freightdesk/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// translateError maps driver and GORM failures onto domain errors:
// missing rows become shared.ErrNotFound, unique violations become
// shared.ErrDuplicateKey and everything else is a transient storage error.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if isDuplicateKey(err) {
		return shared.ErrDuplicateKey.Wrap(err)
	}
	return shared.NewStorageError(op, err)
}

// isDuplicateKey relies on typed errors only. Connections opened with
// TranslateError get gorm.ErrDuplicatedKey from both dialectors; raw pgx and
// lib/pq errors cover statements issued outside GORM.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
