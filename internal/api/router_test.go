package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
	"github.com/storefront/commerce-api/internal/core/service"
	redisdb "github.com/storefront/commerce-api/internal/infrastructure/db/redis"
)

// memUserRepo is a minimal in-memory ports.UserRepository.
type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]domain.User
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	r.byID[u.ID] = *u
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) List(context.Context, ports.UserFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		u := u
		out = append(out, &u)
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) Update(_ context.Context, id string, upd ports.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	r.byID[id] = u
	return &u, nil
}

func (r *memUserRepo) SetRefreshTokenHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshTokenHash = hash
	r.byID[id] = u
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

// emptyCatalog has no products and stores no orders.
type emptyCatalog struct{}

func (emptyCatalog) Create(context.Context, *domain.Product) error { return nil }
func (emptyCatalog) FindByID(context.Context, string) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}
func (emptyCatalog) FindByName(context.Context, string) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}
func (emptyCatalog) FindByIDs(context.Context, []string) ([]*domain.Product, error) { return nil, nil }
func (emptyCatalog) List(context.Context, ports.ProductFilter) ([]*domain.Product, int64, error) {
	return []*domain.Product{}, 0, nil
}
func (emptyCatalog) Update(context.Context, string, ports.ProductUpdate) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}
func (emptyCatalog) Delete(context.Context, string) error { return domain.ErrProductNotFound }

type emptyOrders struct{}

func (emptyOrders) Create(context.Context, *domain.Order) error { return nil }
func (emptyOrders) FindByID(context.Context, string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}
func (emptyOrders) List(context.Context, ports.OrderFilter) ([]*domain.Order, int64, error) {
	return []*domain.Order{}, 0, nil
}
func (emptyOrders) UpdateStatus(context.Context, string, domain.OrderStatus) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}
func (emptyOrders) Delete(context.Context, string) error                { return domain.ErrOrderNotFound }
func (emptyOrders) DeleteByUser(context.Context, string) (int64, error) { return 0, nil }

type fixedLimiter struct{ decision redisdb.RateDecision }

func (l fixedLimiter) Allow(context.Context, string) (redisdb.RateDecision, error) {
	return l.decision, nil
}

// recordingLimiter allows every request and keeps the keys it was asked for.
type recordingLimiter struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLimiter) Allow(_ context.Context, key string) (redisdb.RateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return redisdb.RateDecision{Allowed: true, Limit: 10, Remaining: 9}, nil
}

type testServer struct {
	e      *echo.Echo
	users  *memUserRepo
	hasher *service.BcryptHasher
}

func newTestServer(t *testing.T, limiter middleware.Limiter) *testServer {
	t.Helper()
	log := zerolog.Nop()
	users := &memUserRepo{byID: make(map[string]domain.User)}
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	tokens := service.NewJWTTokenService(service.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})

	d := Deps{
		Log:               log,
		Auth:              service.NewAuthService(users, hasher, tokens, nil, log),
		Users:             service.NewUserService(users, emptyOrders{}, hasher, log),
		Products:          service.NewProductService(emptyCatalog{}, log),
		Orders:            service.NewOrderService(emptyOrders{}, emptyCatalog{}, users, nil, log),
		MetricsRegisterer: prometheus.NewRegistry(),
	}
	if limiter != nil {
		d.SignInLimiter = limiter
	}
	return &testServer{e: NewRouter(d), users: users, hasher: hasher}
}

func (s *testServer) seed(t *testing.T, id, email, password string, role domain.Role) {
	t.Helper()
	hash, err := s.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	s.users.byID[id] = domain.User{ID: id, Email: email, Name: id, PasswordHash: hash, Role: role, Provider: domain.ProviderLocal}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signIn(t *testing.T, email, password string) ports.TokenPair {
	t.Helper()
	rec := s.do(http.MethodPost, "/auth/signin", `{"email":"`+email+`","password":"`+password+`"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signin: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var pair ports.TokenPair
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return pair
}

func TestRouter_SignIn(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "u1", "a@x.com", "password1", domain.RoleUser)

	rec := s.do(http.MethodPost, "/auth/signin", `{"email":"b@x.com","password":"password1"}`, "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Invalid credentials") {
		t.Fatalf("unknown email: expected 400 Invalid credentials, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodPost, "/auth/signin", `{"email":"a@x.com","password":"wrong"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong password: expected 400, got %d", rec.Code)
	}

	pair := s.signIn(t, "a@x.com", "password1")
	if pair.ID != "u1" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
}

func TestRouter_ProfileAndSignOut(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "u1", "a@x.com", "password1", domain.RoleEditor)
	pair := s.signIn(t, "a@x.com", "password1")

	if rec := s.do(http.MethodGet, "/auth/profile", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/auth/profile", "", pair.RefreshToken); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token as access: expected 401, got %d", rec.Code)
	}

	rec := s.do(http.MethodGet, "/auth/profile", "", pair.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"role":"EDITOR"`) {
		t.Fatalf("unexpected profile: %s", rec.Body.String())
	}

	if rec := s.do(http.MethodPost, "/auth/signout", "", pair.AccessToken); rec.Code != http.StatusCreated {
		t.Fatalf("signout: expected 201, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/auth/refresh", "", pair.RefreshToken); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after signout: expected 401, got %d", rec.Code)
	}
}

func TestRouter_RefreshRotation(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "u1", "a@x.com", "password1", domain.RoleUser)
	pair := s.signIn(t, "a@x.com", "password1")

	rec := s.do(http.MethodPost, "/auth/refresh", "", pair.RefreshToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("refresh: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var rotated ports.TokenPair
	_ = json.Unmarshal(rec.Body.Bytes(), &rotated)
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	if rec := s.do(http.MethodPost, "/auth/refresh", "", pair.RefreshToken); rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: expected 401, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/auth/refresh", "", rotated.AccessToken); rec.Code != http.StatusUnauthorized {
		t.Fatalf("access token as refresh: expected 401, got %d", rec.Code)
	}
}

func TestRouter_RoleBasedAccess(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "admin", "admin@x.com", "password1", domain.RoleAdmin)
	s.seed(t, "u1", "a@x.com", "password1", domain.RoleUser)
	admin := s.signIn(t, "admin@x.com", "password1")
	user := s.signIn(t, "a@x.com", "password1")

	if rec := s.do(http.MethodGet, "/users", "", user.AccessToken); rec.Code != http.StatusForbidden {
		t.Fatalf("user listing users: expected 403, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/users", "", admin.AccessToken); rec.Code != http.StatusOK {
		t.Fatalf("admin listing users: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/products", `{"productName":"Mug","price":3}`, user.AccessToken); rec.Code != http.StatusForbidden {
		t.Fatalf("user creating product: expected 403, got %d", rec.Code)
	}

	// The guard reads the role on every request, so a promotion applies
	// to a token issued before it.
	rec := s.do(http.MethodPatch, "/users/u1/role", `{"role":"ADMIN"}`, admin.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("change role: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodGet, "/users", "", user.AccessToken); rec.Code != http.StatusOK {
		t.Fatalf("promoted user listing users: expected 200, got %d", rec.Code)
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/users", `{"name":"Ana","email":"ana@x.com","password":"secret1"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, "/users", `{"name":"Ana","email":"ana@x.com","password":"secret1"}`, ""); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/products", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("catalog: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/auth/google/signin", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("google without config: expected 503, got %d", rec.Code)
	}
}

func TestRouter_PlaceOrderWithoutValidProducts(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "u1", "a@x.com", "password1", domain.RoleUser)
	pair := s.signIn(t, "a@x.com", "password1")

	rec := s.do(http.MethodPost, "/orders", `{"productIds":["missing"]}`, pair.AccessToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, "/orders", `{"productIds":["missing"]}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous order: expected 401, got %d", rec.Code)
	}
}

func TestRouter_SignInRateLimited(t *testing.T) {
	s := newTestServer(t, &fixedLimiter{decision: redisdb.RateDecision{
		Allowed:    false,
		Limit:      10,
		Remaining:  0,
		RetryAfter: 1500 * time.Millisecond,
	}})

	rec := s.do(http.MethodPost, "/auth/signin", `{"email":"a@x.com","password":"password1"}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderRetryAfter); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
}

func TestRouter_SignInRateLimitKeyIgnoresForwardingHeaders(t *testing.T) {
	limiter := &recordingLimiter{}
	s := newTestServer(t, limiter)

	for _, forwarded := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(`{"email":"a@x.com","password":"password1"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderXForwardedFor, forwarded)
		req.Header.Set(echo.HeaderXRealIP, forwarded)
		req.RemoteAddr = "9.9.9.9:1234"
		s.e.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(limiter.keys) != 3 {
		t.Fatalf("expected 3 limiter calls, got %d", len(limiter.keys))
	}
	for _, k := range limiter.keys {
		if k != "9.9.9.9" {
			t.Fatalf("expected every request keyed on the peer address, got %v", limiter.keys)
		}
	}
}
