package postgres

import (
	"context"

	"github.com/servista/servista/internal/errs"
	"github.com/servista/servista/internal/model"
)

// ClientRepo implements ClientRepository using PostgreSQL.
type ClientRepo struct{ db *DB }

// NewClientRepo constructs a client repository.
func NewClientRepo(db *DB) *ClientRepo { return &ClientRepo{db: db} }

const clientCols = "id, username, email, password_hash, created_at"

// Insert persists a new client row.
func (r *ClientRepo) Insert(ctx context.Context, c *model.Client) (*model.Client, error) {
	const q = `
INSERT INTO clients (username, email, password_hash)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	row := r.db.Pool.QueryRow(ctx, q, c.Username, c.Email, c.PasswordHash)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		if uv := uniqueViolation(err); uv != nil {
			return nil, uv
		}
		return nil, err
	}
	return c, nil
}

// FindByID selects a client by ID.
func (r *ClientRepo) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	return r.findBy(ctx, "id", id)
}

// FindByUsername selects a client by username.
func (r *ClientRepo) FindByUsername(ctx context.Context, username string) (*model.Client, error) {
	return r.findBy(ctx, "username", username)
}

// FindByEmail selects a client by email.
func (r *ClientRepo) FindByEmail(ctx context.Context, email string) (*model.Client, error) {
	return r.findBy(ctx, "email", email)
}

func (r *ClientRepo) findBy(ctx context.Context, col string, val any) (*model.Client, error) {
	q := "SELECT " + clientCols + " FROM clients WHERE " + col + "=$1"
	row := r.db.Pool.QueryRow(ctx, q, val)
	var c model.Client
	if err := row.Scan(&c.ID, &c.Username, &c.Email, &c.PasswordHash, &c.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &c, nil
}

// UpdateUsername changes the stored username.
func (r *ClientRepo) UpdateUsername(ctx context.Context, id int64, username string) error {
	const q = `UPDATE clients SET username=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, username)
	if err != nil {
		if uv := uniqueViolation(err); uv != nil {
			return uv
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UpdatePassword changes the stored password hash.
func (r *ClientRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE clients SET password_hash=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
