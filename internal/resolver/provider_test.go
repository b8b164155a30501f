package resolver

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/servista/servista/internal/errs"
	"github.com/servista/servista/internal/geocode"
	"github.com/servista/servista/internal/model"
	"github.com/servista/servista/internal/query"
	"github.com/servista/servista/internal/repository"
	"github.com/servista/servista/internal/session"
)

type fakeProviderStore struct {
	byID   map[int64]*model.Provider
	nextID int64

	searchErr error
	lastPlan  *query.Plan
}

var _ repository.ProviderRepository = (*fakeProviderStore)(nil)

func newFakeProviderStore() *fakeProviderStore {
	return &fakeProviderStore{byID: map[int64]*model.Provider{}}
}

func (f *fakeProviderStore) Insert(_ context.Context, p *model.Provider) (*model.Provider, error) {
	for _, ex := range f.byID {
		if ex.Username == p.Username {
			return nil, &errs.UniqueViolation{Field: "username"}
		}
		if ex.Email == p.Email {
			return nil, &errs.UniqueViolation{Field: "email"}
		}
	}
	f.nextID++
	cpy := *p
	cpy.ID = f.nextID
	f.byID[cpy.ID] = &cpy
	out := cpy
	return &out, nil
}

func (f *fakeProviderStore) FindByID(_ context.Context, id int64) (*model.Provider, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *p
	return &cpy, nil
}

func (f *fakeProviderStore) FindByUsername(_ context.Context, username string) (*model.Provider, error) {
	for _, p := range f.byID {
		if p.Username == username {
			cpy := *p
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeProviderStore) FindByEmail(_ context.Context, email string) (*model.Provider, error) {
	for _, p := range f.byID {
		if p.Email == email {
			cpy := *p
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeProviderStore) UpdateUsername(_ context.Context, id int64, username string) error {
	p, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.Username = username
	return nil
}

func (f *fakeProviderStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	p, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.PasswordHash = hash
	return nil
}

// Search evaluates the plan in memory: filters are ignored (covered by the
// query package tests), the distance stage uses the same haversine as the
// SQL rendering.
func (f *fakeProviderStore) Search(_ context.Context, plan query.Plan) ([]*model.Provider, error) {
	f.lastPlan = &plan
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []*model.Provider
	for _, p := range f.byID {
		if d := plan.Distance; d != nil {
			if p.Latitude == nil || p.Longitude == nil {
				continue
			}
			if !d.Contains(*p.Latitude, *p.Longitude) {
				continue
			}
		}
		cpy := *p
		out = append(out, &cpy)
	}
	return out, nil
}

type fakeGeo struct {
	point *geocode.Point
	err   error

	calls int
	last  model.Address
}

var _ geocode.Resolver = (*fakeGeo)(nil)

func (f *fakeGeo) Resolve(_ context.Context, addr model.Address) (*geocode.Point, error) {
	f.calls++
	f.last = addr
	return f.point, f.err
}

func newProviderResolver(store *fakeProviderStore, geo *fakeGeo) *ProviderResolver {
	return NewProviderResolver(store, geo, zap.NewNop())
}

func TestProvider_Register_NoAddressSkipsGeocode(t *testing.T) {
	t.Parallel()
	store := newFakeProviderStore()
	geo := &fakeGeo{}
	r := newProviderResolver(store, geo)
	sess := newFakeBinding()

	res := r.Register(context.Background(), sess, validCreds(), nil, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("Register: %+v", res.Errors)
	}
	if geo.calls != 0 {
		t.Fatalf("geocode called without an address")
	}
	if res.Provider.Latitude != nil || res.Provider.Longitude != nil {
		t.Fatalf("coordinates set without an address: %+v", res.Provider)
	}
	if id, ok := sess.bound[session.KindProvider]; !ok || id != res.Provider.ID {
		t.Fatalf("session not bound: %+v", sess.bound)
	}
}

func TestProvider_Register_GeocodesAddress(t *testing.T) {
	t.Parallel()
	store := newFakeProviderStore()
	geo := &fakeGeo{point: &geocode.Point{Latitude: 38.7, Longitude: -9.1}}
	r := newProviderResolver(store, geo)

	addr := &model.Address{Name: "Acme", Country: "PT", City: "Lisbon", Zipcode: "1100"}
	attrs := map[string]any{"specialty": "plumbing"}
	res := r.Register(context.Background(), newFakeBinding(), validCreds(), attrs, addr)
	if len(res.Errors) != 0 {
		t.Fatalf("Register: %+v", res.Errors)
	}
	if geo.calls != 1 || geo.last.City != "Lisbon" {
		t.Fatalf("geocode not consulted with the address: %+v", geo.last)
	}
	p := res.Provider
	if p.Latitude == nil || *p.Latitude != 38.7 || p.Longitude == nil || *p.Longitude != -9.1 {
		t.Fatalf("coordinates not applied: %+v", p)
	}
	if p.Country != "PT" || p.Name != "Acme" || p.Attributes["specialty"] != "plumbing" {
		t.Fatalf("address/attributes not merged: %+v", p)
	}
}

func TestProvider_Register_GeocodeFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	store := newFakeProviderStore()
	geo := &fakeGeo{err: errors.New("upstream down")}
	r := newProviderResolver(store, geo)

	res := r.Register(context.Background(), newFakeBinding(), validCreds(), nil,
		&model.Address{City: "Lisbon"})
	if len(res.Errors) != 0 {
		t.Fatalf("geocode failure must not fail registration: %+v", res.Errors)
	}
	if res.Provider.Latitude != nil || res.Provider.Longitude != nil {
		t.Fatalf("want null coordinates on lookup failure: %+v", res.Provider)
	}
}

func TestProvider_Register_NotFoundLookupLeavesNullCoords(t *testing.T) {
	t.Parallel()
	store := newFakeProviderStore()
	geo := &fakeGeo{} // resolves to (nil, nil)
	r := newProviderResolver(store, geo)

	res := r.Register(context.Background(), newFakeBinding(), validCreds(), nil,
		&model.Address{City: "Nowhere"})
	if len(res.Errors) != 0 {
		t.Fatalf("Register: %+v", res.Errors)
	}
	if res.Provider.Latitude != nil {
		t.Fatalf("want null coordinates when address not found")
	}
}

func TestProvider_Search_EmptySpecsReturnFullSet(t *testing.T) {
	t.Parallel()
	store := newFakeProviderStore()
	r := newProviderResolver(store, &fakeGeo{})
	ctx := context.Background()

	r.Register(ctx, newFakeBinding(), validCreds(), nil, nil)
	creds2 := model.Credentials{Username: "bob", Email: "b@x.com", Password: "secret123"}
	r.Register(ctx, newFakeBinding(), creds2, nil, nil)

	res := r.Search(ctx, nil, nil, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("Search: %+v", res.Errors)
	}
	if len(res.Providers) != 2 {
		t.Fatalf("want full set, got %d", len(res.Providers))
	}
	if store.lastPlan == nil || !store.lastPlan.Empty() {
		t.Fatalf("empty specs must compose the empty plan: %+v", store.lastPlan)
	}
}

func TestProvider_Search_EmptyResultIsNotAnError(t *testing.T) {
	t.Parallel()
	r := newProviderResolver(newFakeProviderStore(), &fakeGeo{})

	res := r.Search(context.Background(), nil, nil, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("Search: %+v", res.Errors)
	}
	if res.Providers == nil || len(res.Providers) != 0 {
		t.Fatalf("want empty non-nil result, got %+v", res.Providers)
	}
}

func TestProvider_Search_BadSpecIsFieldScoped(t *testing.T) {
	t.Parallel()
	store := newFakeProviderStore()
	r := newProviderResolver(store, &fakeGeo{})

	res := r.Search(context.Background(),
		[]query.Filter{{Field: "city", Op: "like", Value: "L%"}}, nil, nil)
	if len(res.Errors) != 1 || res.Errors[0].Field != "city" {
		t.Fatalf("want city-scoped spec error, got %+v", res.Errors)
	}
	if store.lastPlan != nil {
		t.Fatalf("store consulted despite invalid spec")
	}
}

func TestProvider_Search_StoreFailureIsGeneric(t *testing.T) {
	t.Parallel()
	store := newFakeProviderStore()
	store.searchErr = errors.New("connection refused: 10.0.0.7:5432")
	r := newProviderResolver(store, &fakeGeo{})

	res := r.Search(context.Background(), nil, nil, nil)
	if len(res.Errors) != 1 {
		t.Fatalf("want single generic error, got %+v", res.Errors)
	}
	if res.Errors[0].Field != "query" || res.Errors[0].Message != "query failed" {
		t.Fatalf("internal error leaked to caller: %+v", res.Errors[0])
	}
}

func TestProvider_Search_DistanceRadius(t *testing.T) {
	t.Parallel()
	store := newFakeProviderStore()
	geo := &fakeGeo{point: &geocode.Point{Latitude: 38.7223, Longitude: -9.1393}}
	r := newProviderResolver(store, geo)
	ctx := context.Background()

	// one geocoded provider in Lisbon, one with no coordinates
	r.Register(ctx, newFakeBinding(), validCreds(), nil, &model.Address{City: "Lisbon"})
	creds2 := model.Credentials{Username: "bob", Email: "b@x.com", Password: "secret123"}
	r.Register(ctx, newFakeBinding(), creds2, nil, nil)

	// zero radius around the provider's own coordinates includes it
	res := r.Search(ctx, nil, nil, &query.Distance{Latitude: 38.7223, Longitude: -9.1393, RadiusKm: 0})
	if len(res.Errors) != 0 || len(res.Providers) != 1 || res.Providers[0].Username != "alice" {
		t.Fatalf("zero radius at own coordinates must include provider: %+v", res)
	}

	// radius smaller than the true distance excludes (Porto is ~274 km away)
	res = r.Search(ctx, nil, nil, &query.Distance{Latitude: 41.1579, Longitude: -8.6291, RadiusKm: 100})
	if len(res.Errors) != 0 || len(res.Providers) != 0 {
		t.Fatalf("radius below true distance must exclude: %+v", res.Providers)
	}

	// increasing the radius never removes a previously included result
	res = r.Search(ctx, nil, nil, &query.Distance{Latitude: 41.1579, Longitude: -8.6291, RadiusKm: 300})
	if len(res.Providers) != 1 {
		t.Fatalf("larger radius must include provider: %+v", res.Providers)
	}
}

func TestProvider_LoginAndLogoutScenario(t *testing.T) {
	t.Parallel()
	store := newFakeProviderStore()
	r := newProviderResolver(store, &fakeGeo{})
	sess := newFakeBinding()
	ctx := context.Background()

	if res := r.Register(ctx, newFakeBinding(), validCreds(), nil, nil); len(res.Errors) != 0 {
		t.Fatalf("seed register: %+v", res.Errors)
	}

	res := r.Login(ctx, sess, "a@x.com", "secret123")
	if len(res.Errors) != 0 {
		t.Fatalf("login: %+v", res.Errors)
	}
	if _, ok := sess.bound[session.KindProvider]; !ok {
		t.Fatalf("session not bound after login")
	}

	if res := r.Login(ctx, newFakeBinding(), "a@x.com", "wrong"); len(res.Errors) != 1 || res.Errors[0].Field != "password" {
		t.Fatalf("want password-scoped error, got %+v", res.Errors)
	}

	if !r.Logout(ctx, sess) {
		t.Fatalf("Logout: want true")
	}
	if len(sess.bound) != 0 {
		t.Fatalf("session not cleared after logout")
	}
}
