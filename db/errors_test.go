package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "appointment", "x"))

	err := translate(gorm.ErrRecordNotFound, "doctor", "42")
	assert.True(t, scheduling.IsNotFound(err))
	assert.Equal(t, "doctor 42 not found", err.Error())

	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_appointments_active_slot"})
	assert.True(t, scheduling.IsConflict(translate(unique, "appointment", "")))

	exclusion := &pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"}
	assert.True(t, scheduling.IsConflict(translate(exclusion, "appointment", "")))

	assert.True(t, scheduling.IsConflict(translate(gorm.ErrDuplicatedKey, "appointment", "")))

	other := &pgconn.PgError{Code: "23503"}
	assert.Same(t, error(other), translate(other, "appointment", ""))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translate(plain, "appointment", ""))
}
