package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: sql.ErrNoRows, want: storage.ErrNotFound},
		{name: "unique", err: &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "one_sub"}, want: storage.ErrUniqueViolation},
		{name: "bad uuid", err: &pgconn.PgError{Code: codeInvalidTextRepresentation}, want: storage.ErrNotFound},
		{name: "missing parent row", err: &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "subscriptions_restaurant_id_fkey"}, want: storage.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError("storage.Op", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "storage.Op")
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		cause := errors.New("conn reset")
		err := mapError("storage.Op", cause)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, storage.ErrNotFound)
	})
}
