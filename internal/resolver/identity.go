// Package resolver implements the identity and directory operations exposed
// by the API. One generic identity implementation serves both actor kinds;
// every operation returns a tagged result (payload or field-scoped errors),
// never a fault.
package resolver

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/servista/servista/internal/crypto"
	"github.com/servista/servista/internal/errs"
	"github.com/servista/servista/internal/model"
	"github.com/servista/servista/internal/repository"
	"github.com/servista/servista/internal/session"
)

// minPasswordLen is the registration password policy.
const minPasswordLen = 8

// Binding is the per-request session surface the resolvers need.
// Implemented by *session.Manager.
type Binding interface {
	Actor(ctx context.Context, kind session.Kind) (*int64, error)
	Bind(ctx context.Context, kind session.Kind, id int64) error
	Destroy(ctx context.Context) error
}

// fieldErr builds a single field-scoped error list.
func fieldErr(field, message string) []model.FieldError {
	return []model.FieldError{{Field: field, Message: message}}
}

// genericErr is returned when an internal failure must not leak detail.
func genericErr() []model.FieldError {
	return fieldErr("error", "something went wrong")
}

// validateCredentials batches registration input checks; nil means valid.
func validateCredentials(c model.Credentials) []model.FieldError {
	var out []model.FieldError
	if c.Username == "" {
		out = append(out, model.FieldError{Field: "username", Message: "username must not be empty"})
	} else if strings.Contains(c.Username, "@") {
		out = append(out, model.FieldError{Field: "username", Message: "username cannot include an @"})
	}
	if !strings.Contains(c.Email, "@") {
		out = append(out, model.FieldError{Field: "email", Message: "invalid email"})
	}
	if len(c.Password) < minPasswordLen {
		out = append(out, model.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	return out
}

// uniquenessErr maps a store uniqueness violation to its field-scoped message.
func uniquenessErr(uv *errs.UniqueViolation) []model.FieldError {
	return fieldErr(uv.Field, "this "+uv.Field+" already exists")
}

// identity implements the credential lifecycle for one actor kind.
type identity[T model.Actor] struct {
	store repository.ActorStore[T]
	kind  session.Kind
	log   *zap.Logger
}

func newIdentity[T model.Actor](store repository.ActorStore[T], kind session.Kind, log *zap.Logger) identity[T] {
	return identity[T]{store: store, kind: kind, log: log}
}

// register inserts the prepared record and binds it into the session.
// The caller has already validated credentials and hashed the password.
func (i *identity[T]) register(ctx context.Context, sess Binding, rec T) (T, []model.FieldError) {
	var zero T
	created, err := i.store.Insert(ctx, rec)
	if err != nil {
		if uv, ok := errs.AsUniqueViolation(err); ok {
			return zero, uniquenessErr(uv)
		}
		i.log.Error("register insert", zap.String("kind", string(i.kind)), zap.Error(err))
		return zero, genericErr()
	}
	if err := sess.Bind(ctx, i.kind, created.ActorID()); err != nil {
		i.log.Error("register session bind", zap.String("kind", string(i.kind)), zap.Error(err))
		return zero, genericErr()
	}
	return created, nil
}

// resolve looks up an actor by username or email. Classification is purely
// syntactic: presence of '@' means email, never both ways.
func (i *identity[T]) resolve(ctx context.Context, usernameOrEmail string) (T, string, error) {
	if strings.Contains(usernameOrEmail, "@") {
		a, err := i.store.FindByEmail(ctx, usernameOrEmail)
		return a, "email", err
	}
	a, err := i.store.FindByUsername(ctx, usernameOrEmail)
	return a, "username", err
}

// login authenticates and binds the actor into the session.
func (i *identity[T]) login(ctx context.Context, sess Binding, usernameOrEmail, password string) (T, []model.FieldError) {
	var zero T
	actor, field, err := i.resolve(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return zero, fieldErr(field, field+" does not exist")
		}
		i.log.Error("login lookup", zap.String("kind", string(i.kind)), zap.Error(err))
		return zero, genericErr()
	}
	if !crypto.VerifyPassword(actor.Secret(), password) {
		return zero, fieldErr("password", "incorrect password")
	}
	if err := sess.Bind(ctx, i.kind, actor.ActorID()); err != nil {
		i.log.Error("login session bind", zap.String("kind", string(i.kind)), zap.Error(err))
		return zero, genericErr()
	}
	return actor, nil
}

// forgotUsername verifies identity by email and password, then renames the
// account. A duplicate new username surfaces as a field-scoped error.
func (i *identity[T]) forgotUsername(ctx context.Context, email, password, newUsername string) (T, []model.FieldError) {
	var zero T
	if !strings.Contains(email, "@") {
		return zero, fieldErr("email", "invalid email")
	}
	actor, err := i.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return zero, fieldErr("email", "email does not exist")
		}
		i.log.Error("forgot username lookup", zap.String("kind", string(i.kind)), zap.Error(err))
		return zero, genericErr()
	}
	if !crypto.VerifyPassword(actor.Secret(), password) {
		return zero, fieldErr("password", "incorrect password")
	}
	if err := i.store.UpdateUsername(ctx, actor.ActorID(), newUsername); err != nil {
		if uv, ok := errs.AsUniqueViolation(err); ok {
			return zero, uniquenessErr(uv)
		}
		i.log.Error("forgot username update", zap.String("kind", string(i.kind)), zap.Error(err))
		return zero, genericErr()
	}
	updated, err := i.store.FindByID(ctx, actor.ActorID())
	if err != nil {
		i.log.Error("forgot username reload", zap.String("kind", string(i.kind)), zap.Error(err))
		return zero, genericErr()
	}
	return updated, nil
}

// forgotPassword rotates the stored password hash. Any failed precondition
// short-circuits to false with no mutation.
func (i *identity[T]) forgotPassword(ctx context.Context, usernameOrEmail, oldPassword, repeatNewPassword, newPassword string) bool {
	actor, _, err := i.resolve(ctx, usernameOrEmail)
	if err != nil {
		return false
	}
	if !crypto.VerifyPassword(actor.Secret(), oldPassword) {
		return false
	}
	if newPassword != repeatNewPassword {
		return false
	}
	if len(newPassword) < minPasswordLen {
		return false
	}
	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return false
	}
	if err := i.store.UpdatePassword(ctx, actor.ActorID(), hash); err != nil {
		i.log.Error("forgot password update", zap.String("kind", string(i.kind)), zap.Error(err))
		return false
	}
	return true
}

// logout destroys the session binding. It always settles: a destruction
// failure is logged and reported as false, never raised.
func (i *identity[T]) logout(ctx context.Context, sess Binding) bool {
	if err := sess.Destroy(ctx); err != nil {
		i.log.Error("logout destroy", zap.String("kind", string(i.kind)), zap.Error(err))
		return false
	}
	return true
}

// self returns the session-bound actor for this kind, or the zero value
// when the request carries no binding. Absence is not an error.
func (i *identity[T]) self(ctx context.Context, sess Binding) (T, error) {
	var zero T
	id, err := sess.Actor(ctx, i.kind)
	if err != nil {
		return zero, err
	}
	if id == nil {
		return zero, nil
	}
	actor, err := i.store.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// stale session entry; treat as unauthenticated
			return zero, nil
		}
		return zero, err
	}
	return actor, nil
}

// findByID loads an actor, mapping absence to a field-scoped error.
func (i *identity[T]) findByID(ctx context.Context, id int64) (T, []model.FieldError) {
	var zero T
	actor, err := i.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return zero, fieldErr("id", "this id does not exist")
		}
		i.log.Error("find by id", zap.String("kind", string(i.kind)), zap.Error(err))
		return zero, genericErr()
	}
	return actor, nil
}
