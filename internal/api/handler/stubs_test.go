package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// newContext builds an echo context with the validator wired in.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withPrincipal(c echo.Context, id string, role domain.Role) {
	middleware.SetPrincipal(c, domain.Principal{ID: id, Role: role})
}

// httpCode returns the status carried by an *echo.HTTPError, or 0.
func httpCode(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// --- Auth ---

type stubAuthService struct {
	validateFn func(ctx context.Context, email, password string) (string, error)
	loginFn    func(ctx context.Context, userID string) (*ports.TokenPair, error)
	refreshFn  func(ctx context.Context, token string) (*ports.TokenPair, error)
	signOutFn  func(ctx context.Context, userID string) error
	resolveFn  func(ctx context.Context, p ports.OAuthProfile) (string, error)
}

func (s *stubAuthService) ValidateLocalCredentials(ctx context.Context, email, password string) (string, error) {
	return s.validateFn(ctx, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, userID string) (*ports.TokenPair, error) {
	return s.loginFn(ctx, userID)
}

func (s *stubAuthService) Refresh(context.Context, string, string) (*ports.TokenPair, error) {
	return nil, errors.New("not used")
}

func (s *stubAuthService) RefreshWithToken(ctx context.Context, token string) (*ports.TokenPair, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) SignOut(ctx context.Context, userID string) error {
	return s.signOutFn(ctx, userID)
}

func (s *stubAuthService) ResolveOAuthUser(ctx context.Context, p ports.OAuthProfile) (string, error) {
	return s.resolveFn(ctx, p)
}

func (s *stubAuthService) AuthenticateByAccessToken(context.Context, string) (*domain.Principal, error) {
	return nil, errors.New("not used")
}

func pairFor(id string) *ports.TokenPair {
	return &ports.TokenPair{ID: id, AccessToken: "at-" + id, RefreshToken: "rt-" + id}
}

type stubExchanger struct {
	profile *ports.OAuthProfile
	err     error
}

func (s *stubExchanger) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (s *stubExchanger) ExchangeCodeForProfile(context.Context, string) (*ports.OAuthProfile, error) {
	return s.profile, s.err
}

type stubStates struct {
	issued map[string]bool
}

func (s *stubStates) Issue(context.Context) (string, error) {
	s.issued["st-1"] = true
	return "st-1", nil
}

func (s *stubStates) Consume(_ context.Context, state string) (bool, error) {
	ok := s.issued[state]
	delete(s.issued, state)
	return ok, nil
}

// --- Users ---

type stubUserService struct {
	registerFn func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	updateFn   func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error)
	roleFn     func(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	listFn     func(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error)
	deleted    []string
}

func (s *stubUserService) Register(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubUserService) Get(_ context.Context, id string) (*domain.User, error) {
	if id != "u1" {
		return nil, domain.ErrUserNotFound
	}
	return &domain.User{ID: "u1", Email: "a@x.com", PasswordHash: "secret-hash", RefreshTokenHash: "rt-hash"}, nil
}

func (s *stubUserService) List(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	return s.listFn(ctx, in)
}

func (s *stubUserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) ChangeRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	return s.roleFn(ctx, id, role)
}

func (s *stubUserService) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

// --- Products ---

type stubProductService struct {
	createFn func(ctx context.Context, in ports.CreateProductInput) (*domain.Product, error)
	listIn   ports.ListProductsInput
	updateFn func(ctx context.Context, id string, u ports.ProductUpdate) (*domain.Product, error)
}

func (s *stubProductService) Create(ctx context.Context, in ports.CreateProductInput) (*domain.Product, error) {
	return s.createFn(ctx, in)
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	if id != "p1" {
		return nil, domain.ErrProductNotFound
	}
	return &domain.Product{ID: "p1", ProductName: "Mug"}, nil
}

func (s *stubProductService) List(_ context.Context, in ports.ListProductsInput) (*ports.ListProductsResult, error) {
	s.listIn = in
	return &ports.ListProductsResult{Items: []*domain.Product{{ID: "p1"}}, Total: 1, Page: 1, Limit: 20, TotalPages: 1}, nil
}

func (s *stubProductService) Update(ctx context.Context, id string, u ports.ProductUpdate) (*domain.Product, error) {
	return s.updateFn(ctx, id, u)
}

func (s *stubProductService) Delete(context.Context, string) error { return nil }

// --- Orders ---

type stubOrderService struct {
	placeFn func(ctx context.Context, in ports.PlaceOrderInput) (*ports.PlaceOrderResult, error)
	listIn  ports.ListOrdersInput
	getFn   func(ctx context.Context, caller domain.Principal, id string) (*domain.Order, error)
}

func (s *stubOrderService) Place(ctx context.Context, in ports.PlaceOrderInput) (*ports.PlaceOrderResult, error) {
	return s.placeFn(ctx, in)
}

func (s *stubOrderService) Get(ctx context.Context, caller domain.Principal, id string) (*domain.Order, error) {
	return s.getFn(ctx, caller, id)
}

func (s *stubOrderService) List(_ context.Context, in ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
	s.listIn = in
	return &ports.ListOrdersResult{Items: []*domain.Order{}, Page: 1, Limit: 20}, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return &domain.Order{ID: id, Status: status}, nil
}

func (s *stubOrderService) Delete(context.Context, string) error { return nil }
