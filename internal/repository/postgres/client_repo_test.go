package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/servista/servista/internal/errs"
	"github.com/servista/servista/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestClientRepo_Insert_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)
	ctx := context.Background()
	c := &model.Client{Username: "alice", Email: "a@x.com", PasswordHash: "h"}

	// OK
	mock.ExpectQuery(`INSERT INTO clients \(username, email, password_hash\) VALUES \(\$1, \$2, \$3\) RETURNING id, created_at`).
		WithArgs(c.Username, c.Email, c.PasswordHash).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))
	got, err := r.Insert(ctx, c)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)

	// duplicate email constraint
	mock.ExpectQuery(`INSERT INTO clients`).
		WithArgs(c.Username, c.Email, c.PasswordHash).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "clients_email_key"})
	_, err = r.Insert(ctx, c)
	uv, ok := errs.AsUniqueViolation(err)
	require.True(t, ok)
	require.Equal(t, "email", uv.Field)

	// duplicate username constraint
	mock.ExpectQuery(`INSERT INTO clients`).
		WithArgs(c.Username, c.Email, c.PasswordHash).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "clients_username_key"})
	_, err = r.Insert(ctx, c)
	uv, ok = errs.AsUniqueViolation(err)
	require.True(t, ok)
	require.Equal(t, "username", uv.Field)
}

func TestClientRepo_FindBy(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)
	ctx := context.Background()

	cols := []string{"id", "username", "email", "password_hash", "created_at"}

	mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at FROM clients WHERE id=\$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(7), "alice", "a@x.com", "h", time.Now()))
	c, err := r.FindByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "alice", c.Username)

	mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at FROM clients WHERE username=\$1`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(7), "alice", "a@x.com", "h", time.Now()))
	c, err = r.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(7), c.ID)

	mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at FROM clients WHERE email=\$1`).
		WithArgs("a@x.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.FindByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestClientRepo_UpdateUsername(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE clients SET username=\$2 WHERE id=\$1`).
		WithArgs(int64(7), "bob").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.UpdateUsername(ctx, 7, "bob"))

	// new username already taken
	mock.ExpectExec(`UPDATE clients SET username=\$2 WHERE id=\$1`).
		WithArgs(int64(7), "taken").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "clients_username_key"})
	err := r.UpdateUsername(ctx, 7, "taken")
	uv, ok := errs.AsUniqueViolation(err)
	require.True(t, ok)
	require.Equal(t, "username", uv.Field)

	// vanished row
	mock.ExpectExec(`UPDATE clients SET username=\$2 WHERE id=\$1`).
		WithArgs(int64(8), "bob").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.UpdateUsername(ctx, 8, "bob"), errs.ErrNotFound)
}

func TestClientRepo_UpdatePassword(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE clients SET password_hash=\$2 WHERE id=\$1`).
		WithArgs(int64(7), "newhash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.UpdatePassword(ctx, 7, "newhash"))

	mock.ExpectExec(`UPDATE clients SET password_hash=\$2 WHERE id=\$1`).
		WithArgs(int64(8), "newhash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.UpdatePassword(ctx, 8, "newhash"), errs.ErrNotFound)
}
