package postgres

import (
	"errors"
	"testing"

	"geckohub/internal/domain/access"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapWriteErr(t *testing.T) {
	assert.NoError(t, mapWriteErr(nil, "insert"))

	fk := pkgerrors.Wrap(&pgconn.PgError{Code: pgForeignKeyViolation}, "exec")
	assert.ErrorIs(t, mapWriteErr(fk, "insert event"), access.ErrNotFound)

	tooLong := &pgconn.PgError{Code: pgStringTooLong, Message: "value too long for type character varying(50)"}
	err := mapWriteErr(tooLong, "insert event")
	_, ok := access.AsValidation(err)
	require.True(t, ok, "over-long text must surface as a validation error, got %v", err)
	assert.Equal(t, 400, access.StatusOf(err))

	other := errors.New("connection reset")
	err = mapWriteErr(other, "insert event")
	assert.ErrorIs(t, err, other)
	assert.Equal(t, 500, access.StatusOf(err))
}
