// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/servista/servista/internal/model"
	"github.com/servista/servista/internal/query"
)

// ActorStore is the kind-independent surface the identity resolver needs.
// Lookups return errs.ErrNotFound when no record matches; Insert and
// UpdateUsername return *errs.UniqueViolation on duplicate username/email.
type ActorStore[T model.Actor] interface {
	// FindByID loads an actor by ID.
	FindByID(ctx context.Context, id int64) (T, error)
	// FindByUsername loads an actor by its unique username.
	FindByUsername(ctx context.Context, username string) (T, error)
	// FindByEmail loads an actor by its unique email.
	FindByEmail(ctx context.Context, email string) (T, error)
	// Insert persists a new actor and returns it with generated fields set.
	Insert(ctx context.Context, rec T) (T, error)
	// UpdateUsername changes the stored username.
	UpdateUsername(ctx context.Context, id int64, username string) error
	// UpdatePassword changes the stored password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// ClientRepository provides access to client accounts.
type ClientRepository interface {
	ActorStore[*model.Client]
}

// ProviderRepository provides access to provider accounts and the
// directory search.
type ProviderRepository interface {
	ActorStore[*model.Provider]
	// Search executes a composed query plan and returns matching providers
	// with their reviews loaded.
	Search(ctx context.Context, plan query.Plan) ([]*model.Provider, error)
}
