package postgres

import (
	"context"

	"github.com/servista/servista/internal/errs"
	"github.com/servista/servista/internal/model"
	"github.com/servista/servista/internal/query"
)

// ProviderRepo implements ProviderRepository using PostgreSQL.
type ProviderRepo struct{ db *DB }

// NewProviderRepo constructs a provider repository.
func NewProviderRepo(db *DB) *ProviderRepo { return &ProviderRepo{db: db} }

const providerCols = "id, username, email, password_hash, name, country, state, city, street, zipcode, latitude, longitude, attributes, created_at"

// providerBase is the base SELECT that composed query plans extend.
const providerBase = "SELECT " + providerCols + " FROM providers"

// Insert persists a new provider row, including address, coordinates and
// the jsonb attributes payload.
func (r *ProviderRepo) Insert(ctx context.Context, p *model.Provider) (*model.Provider, error) {
	const q = `
INSERT INTO providers (username, email, password_hash, name, country, state, city, street, zipcode, latitude, longitude, attributes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at`
	row := r.db.Pool.QueryRow(ctx, q,
		p.Username, p.Email, p.PasswordHash,
		p.Name, p.Country, p.State, p.City, p.Street, p.Zipcode,
		p.Latitude, p.Longitude, p.Attributes,
	)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		if uv := uniqueViolation(err); uv != nil {
			return nil, uv
		}
		return nil, err
	}
	return p, nil
}

// FindByID selects a provider by ID, with reviews loaded.
func (r *ProviderRepo) FindByID(ctx context.Context, id int64) (*model.Provider, error) {
	p, err := r.findBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}
	if err := r.loadReviews(ctx, []*model.Provider{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByUsername selects a provider by username.
func (r *ProviderRepo) FindByUsername(ctx context.Context, username string) (*model.Provider, error) {
	return r.findBy(ctx, "username", username)
}

// FindByEmail selects a provider by email.
func (r *ProviderRepo) FindByEmail(ctx context.Context, email string) (*model.Provider, error) {
	return r.findBy(ctx, "email", email)
}

func (r *ProviderRepo) findBy(ctx context.Context, col string, val any) (*model.Provider, error) {
	q := providerBase + " WHERE " + col + "=$1"
	row := r.db.Pool.QueryRow(ctx, q, val)
	var p model.Provider
	if err := row.Scan(
		&p.ID, &p.Username, &p.Email, &p.PasswordHash,
		&p.Name, &p.Country, &p.State, &p.City, &p.Street, &p.Zipcode,
		&p.Latitude, &p.Longitude, &p.Attributes, &p.CreatedAt,
	); err != nil {
		return nil, scanErr(err)
	}
	return &p, nil
}

// UpdateUsername changes the stored username.
func (r *ProviderRepo) UpdateUsername(ctx context.Context, id int64, username string) error {
	const q = `UPDATE providers SET username=$2 WHERE id=$1`
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
func (r *ProviderRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE providers SET password_hash=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Search executes a composed query plan and returns matching providers with
// reviews loaded. An empty result is a valid, non-error outcome.
func (r *ProviderRepo) Search(ctx context.Context, plan query.Plan) ([]*model.Provider, error) {
	sql, args := plan.SQL(providerBase)
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []*model.Provider
	for rows.Next() {
		var p model.Provider
		if err := rows.Scan(
			&p.ID, &p.Username, &p.Email, &p.PasswordHash,
			&p.Name, &p.Country, &p.State, &p.City, &p.Street, &p.Zipcode,
			&p.Latitude, &p.Longitude, &p.Attributes, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		providers = append(providers, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadReviews(ctx, providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// loadReviews attaches reviews to the given providers in one query.
func (r *ProviderRepo) loadReviews(ctx context.Context, providers []*model.Provider) error {
	if len(providers) == 0 {
		return nil
	}
	byID := make(map[int64]*model.Provider, len(providers))
	ids := make([]int64, 0, len(providers))
	for _, p := range providers {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	const q = `
SELECT id, provider_id, rating, comment, created_at
FROM reviews WHERE provider_id = ANY($1)
ORDER BY created_at`
	rows, err := r.db.Pool.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.ProviderID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return err
		}
		if p, ok := byID[rv.ProviderID]; ok {
			p.Reviews = append(p.Reviews, rv)
		}
	}
	return rows.Err()
}
