package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"gorm.io/gorm"
)

const (
	sqlStateUniqueViolation    = "23505"
	sqlStateExclusionViolation = "23P01"
)

// translate maps storage errors onto the scheduling error taxonomy. A unique
// or exclusion violation on appointments means the doctor is double booked.
func translate(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &scheduling.NotFoundError{Resource: resource, ID: id}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUniqueViolation, sqlStateExclusionViolation:
			return &scheduling.ConflictError{}
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &scheduling.ConflictError{}
	}
	return err
}
