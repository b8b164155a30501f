package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/servista/servista/internal/crypto"
	"github.com/servista/servista/internal/geocode"
	"github.com/servista/servista/internal/model"
	"github.com/servista/servista/internal/query"
	"github.com/servista/servista/internal/repository"
	"github.com/servista/servista/internal/session"
)

// ProviderResolver exposes the credential lifecycle and the directory
// search for provider accounts.
type ProviderResolver struct {
	id        identity[*model.Provider]
	providers repository.ProviderRepository
	geo       geocode.Resolver
	log       *zap.Logger
}

// NewProviderResolver constructs a provider resolver.
func NewProviderResolver(store repository.ProviderRepository, geo geocode.Resolver, log *zap.Logger) *ProviderResolver {
	return &ProviderResolver{
		id:        newIdentity[*model.Provider](store, session.KindProvider, log),
		providers: store,
		geo:       geo,
		log:       log,
	}
}

// Register creates a new provider account. When an address is supplied it is
// geocoded best-effort: a failed lookup leaves the coordinates null and
// never fails the registration.
func (r *ProviderResolver) Register(ctx context.Context, sess Binding, creds model.Credentials, attrs map[string]any, addr *model.Address) model.ProviderResult {
	if ferrs := validateCredentials(creds); ferrs != nil {
		return model.ProviderResult{Errors: ferrs}
	}
	hash, err := crypto.HashPassword(creds.Password)
	if err != nil {
		r.log.Error("hash password", zap.Error(err))
		return model.ProviderResult{Errors: genericErr()}
	}

	p := &model.Provider{
		Username:     creds.Username,
		Email:        creds.Email,
		PasswordHash: hash,
		Attributes:   attrs,
	}
	if addr != nil {
		p.Name = addr.Name
		p.Country = addr.Country
		p.State = addr.State
		p.City = addr.City
		p.Street = addr.Street
		p.Zipcode = addr.Zipcode

		point, err := r.geo.Resolve(ctx, *addr)
		if err != nil {
			r.log.Warn("geocode lookup failed", zap.Error(err))
		} else if point != nil {
			p.Latitude = &point.Latitude
			p.Longitude = &point.Longitude
		}
	}

	created, ferrs := r.id.register(ctx, sess, p)
	if ferrs != nil {
		return model.ProviderResult{Errors: ferrs}
	}
	return model.ProviderResult{Provider: created}
}

// Login authenticates by username or email and binds the session.
func (r *ProviderResolver) Login(ctx context.Context, sess Binding, usernameOrEmail, password string) model.ProviderResult {
	p, ferrs := r.id.login(ctx, sess, usernameOrEmail, password)
	if ferrs != nil {
		return model.ProviderResult{Errors: ferrs}
	}
	return model.ProviderResult{Provider: p}
}

// ForgotUsername renames the account after verifying email and password.
func (r *ProviderResolver) ForgotUsername(ctx context.Context, email, password, newUsername string) model.ProviderResult {
	p, ferrs := r.id.forgotUsername(ctx, email, password, newUsername)
	if ferrs != nil {
		return model.ProviderResult{Errors: ferrs}
	}
	return model.ProviderResult{Provider: p}
}

// ForgotPassword rotates the password; false on any failed precondition.
func (r *ProviderResolver) ForgotPassword(ctx context.Context, usernameOrEmail, oldPassword, repeatNewPassword, newPassword string) bool {
	return r.id.forgotPassword(ctx, usernameOrEmail, oldPassword, repeatNewPassword, newPassword)
}

// Logout destroys the session binding; always settles.
func (r *ProviderResolver) Logout(ctx context.Context, sess Binding) bool {
	return r.id.logout(ctx, sess)
}

// Self returns the session-bound provider with reviews, or nil when
// unauthenticated.
func (r *ProviderResolver) Self(ctx context.Context, sess Binding) (*model.Provider, error) {
	return r.id.self(ctx, sess)
}

// FindByID loads a provider by id, with reviews.
func (r *ProviderResolver) FindByID(ctx context.Context, providerID int64) model.ProviderResult {
	p, ferrs := r.id.findByID(ctx, providerID)
	if ferrs != nil {
		return model.ProviderResult{Errors: ferrs}
	}
	return model.ProviderResult{Provider: p}
}

// Search runs the directory query: filters, then the distance restriction,
// then ordering. Store failures are logged and surfaced as a single generic
// error; an empty result is a valid non-error outcome.
func (r *ProviderResolver) Search(ctx context.Context, filters []query.Filter, sort []query.Sort, distance *query.Distance) model.ProvidersResult {
	plan, err := query.Compose(filters, distance, sort)
	if err != nil {
		if spec, ok := err.(*query.SpecError); ok {
			return model.ProvidersResult{Errors: fieldErr(spec.Field, spec.Message)}
		}
		return model.ProvidersResult{Errors: genericErr()}
	}

	providers, err := r.providers.Search(ctx, plan)
	if err != nil {
		r.log.Error("provider search", zap.Error(err))
		return model.ProvidersResult{Errors: fieldErr("query", "query failed")}
	}
	if providers == nil {
		providers = []*model.Provider{}
	}
	return model.ProvidersResult{Providers: providers}
}
