package user

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQuery(t *testing.T) {
	sql, args, err := listQuery(UserFilter{
		Email:     "gym",
		Page:      2,
		PageSize:  10,
		SortBy:    "email",
		SortOrder: "ASC",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "u.email ILIKE $1")
	assert.Contains(t, sql, "AS reservation_count")
	assert.Contains(t, sql, "AS service_count")
	assert.Contains(t, sql, "ORDER BY u.email ASC")
	assert.Contains(t, sql, "LIMIT 10 OFFSET 10")
	assert.Equal(t, []any{"%gym%"}, args)
}

func TestListQuery_Defaults(t *testing.T) {
	sql, args, err := listQuery(UserFilter{SortOrder: "sideways"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "ORDER BY u.created_at DESC")
	assert.Contains(t, sql, "LIMIT 20 OFFSET 0")
	assert.Empty(t, args)
}

func TestMapCreateError(t *testing.T) {
	t.Run("unique violation", func(t *testing.T) {
		err := mapCreateError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("wrapped unique violation", func(t *testing.T) {
		err := mapCreateError(fmt.Errorf("scan: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}))
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("other constraint", func(t *testing.T) {
		cause := &pgconn.PgError{Code: pgerrcode.NotNullViolation}
		err := mapCreateError(cause)
		assert.NotErrorIs(t, err, ErrEmailAlreadyUsed)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "create user failed")
	})

	t.Run("driver error", func(t *testing.T) {
		cause := errors.New("conn closed")
		err := mapCreateError(cause)
		assert.ErrorIs(t, err, cause)
	})
}
