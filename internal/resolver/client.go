package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/servista/servista/internal/crypto"
	"github.com/servista/servista/internal/model"
	"github.com/servista/servista/internal/repository"
	"github.com/servista/servista/internal/session"
)

// ClientResolver exposes the credential lifecycle for client accounts.
type ClientResolver struct {
	id  identity[*model.Client]
	log *zap.Logger
}

// NewClientResolver constructs a client resolver.
func NewClientResolver(store repository.ClientRepository, log *zap.Logger) *ClientResolver {
	return &ClientResolver{id: newIdentity[*model.Client](store, session.KindClient, log), log: log}
}

// Register creates a new client account and binds it into the session.
func (r *ClientResolver) Register(ctx context.Context, sess Binding, creds model.Credentials) model.ClientResult {
	if ferrs := validateCredentials(creds); ferrs != nil {
		return model.ClientResult{Errors: ferrs}
	}
	hash, err := crypto.HashPassword(creds.Password)
	if err != nil {
		r.log.Error("hash password", zap.Error(err))
		return model.ClientResult{Errors: genericErr()}
	}
	c := &model.Client{Username: creds.Username, Email: creds.Email, PasswordHash: hash}
	created, ferrs := r.id.register(ctx, sess, c)
	if ferrs != nil {
		return model.ClientResult{Errors: ferrs}
	}
	return model.ClientResult{Client: created}
}

// Login authenticates by username or email and binds the session.
func (r *ClientResolver) Login(ctx context.Context, sess Binding, usernameOrEmail, password string) model.ClientResult {
	c, ferrs := r.id.login(ctx, sess, usernameOrEmail, password)
	if ferrs != nil {
		return model.ClientResult{Errors: ferrs}
	}
	return model.ClientResult{Client: c}
}

// ForgotUsername renames the account after verifying email and password.
func (r *ClientResolver) ForgotUsername(ctx context.Context, email, password, newUsername string) model.ClientResult {
	c, ferrs := r.id.forgotUsername(ctx, email, password, newUsername)
	if ferrs != nil {
		return model.ClientResult{Errors: ferrs}
	}
	return model.ClientResult{Client: c}
}

// ForgotPassword rotates the password; false on any failed precondition.
func (r *ClientResolver) ForgotPassword(ctx context.Context, usernameOrEmail, oldPassword, repeatNewPassword, newPassword string) bool {
	return r.id.forgotPassword(ctx, usernameOrEmail, oldPassword, repeatNewPassword, newPassword)
}

// Logout destroys the session binding; always settles.
func (r *ClientResolver) Logout(ctx context.Context, sess Binding) bool {
	return r.id.logout(ctx, sess)
}

// Self returns the session-bound client, or nil when unauthenticated.
func (r *ClientResolver) Self(ctx context.Context, sess Binding) (*model.Client, error) {
	return r.id.self(ctx, sess)
}

// FindByID loads a client by id.
func (r *ClientResolver) FindByID(ctx context.Context, clientID int64) model.ClientResult {
	c, ferrs := r.id.findByID(ctx, clientID)
	if ferrs != nil {
		return model.ClientResult{Errors: ferrs}
	}
	return model.ClientResult{Client: c}
}
