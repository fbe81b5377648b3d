package postgres

import (
	"errors"

	"reflectio/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// translate maps driver errors onto the apperr kinds the core branches on.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what + " not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(what + " already exists")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict(what + " already exists")
	}
	return apperr.Upstream("query "+what, err)
}
