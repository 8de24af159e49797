package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolationPostgres(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_voucher_applications_order_voucher"}

	assert.True(t, IsUniqueViolation(pgErr, ""))
	assert.True(t, IsUniqueViolation(pgErr, "idx_voucher_applications_order_voucher"))
	assert.False(t, IsUniqueViolation(pgErr, "some_other_constraint"))

	wrapped := fmt.Errorf("recording voucher application: %w", pgErr)
	assert.True(t, IsUniqueViolation(wrapped, "idx_voucher_applications_order_voucher"))
}

func TestIsUniqueViolationIgnoresOtherPGCodes(t *testing.T) {
	notNull := &pgconn.PgError{Code: "23502", ConstraintName: "voucher_applications_voucher_id"}
	assert.False(t, IsUniqueViolation(notNull, ""))
}

func TestIsUniqueViolationSqliteFallback(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: voucher_applications.order_id, voucher_applications.voucher_id")
	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "voucher_applications.order_id"))
	assert.False(t, IsUniqueViolation(errors.New("no such table: vouchers"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}
