package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

func newTestUserService() (*UserService, *stubUserRepo, *stubOrderRepo) {
	users := newStubUserRepo()
	orders := newStubOrderRepo()
	return NewUserService(users, orders, testHasher(), zerolog.Nop()), users, orders
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestUserService_Register_LocalHashesPassword(t *testing.T) {
	svc, users, _ := newTestUserService()

	u, err := svc.Register(context.Background(), ports.CreateUserInput{
		Name: " Ana ", Email: "ana@x.com", Password: "secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated id")
	}
	if u.Name != "Ana" {
		t.Errorf("name = %q, want trimmed", u.Name)
	}
	if u.Role != domain.RoleUser || u.Provider != domain.ProviderLocal {
		t.Errorf("role/provider = %s/%s", u.Role, u.Provider)
	}

	stored := users.stored(u.ID)
	if stored.PasswordHash == "" || stored.PasswordHash == "secret" {
		t.Fatal("expected hashed password")
	}
	if !testHasher().Verify("secret", stored.PasswordHash) {
		t.Fatal("stored hash does not verify")
	}
}

func TestUserService_Register_LocalWithoutPassword(t *testing.T) {
	svc, _, _ := newTestUserService()
	_, err := svc.Register(context.Background(), ports.CreateUserInput{Email: "a@x.com"})
	if !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestUserService_Register_OAuthWithoutPassword(t *testing.T) {
	svc, users, _ := newTestUserService()
	u, err := svc.Register(context.Background(), ports.CreateUserInput{
		Email: "g@x.com", Provider: domain.ProviderGoogle,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if users.stored(u.ID).HasPassword() {
		t.Fatal("oauth account must not store a password")
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newTestUserService()
	in := ports.CreateUserInput{Email: "a@x.com", Password: "pw"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_Register_UnknownProvider(t *testing.T) {
	svc, _, _ := newTestUserService()
	_, err := svc.Register(context.Background(), ports.CreateUserInput{Email: "a@x.com", Provider: "GITHUB"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

// ---------------------------------------------------------------------------
// Update / ChangeRole
// ---------------------------------------------------------------------------

func TestUserService_Update(t *testing.T) {
	svc, users, _ := newTestUserService()
	u, _ := svc.Register(context.Background(), ports.CreateUserInput{Email: "a@x.com", Password: "old"})

	if _, err := svc.Update(context.Background(), u.ID, ports.UpdateUserInput{Name: strPtr("  ")}); !errors.Is(err, domain.ErrEmptyUpdate) {
		t.Fatalf("blank-only update: expected ErrEmptyUpdate, got %v", err)
	}

	updated, err := svc.Update(context.Background(), u.ID, ports.UpdateUserInput{
		Name:     strPtr("Bea"),
		Password: strPtr("new"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Bea" {
		t.Errorf("name = %q", updated.Name)
	}
	if !testHasher().Verify("new", users.stored(u.ID).PasswordHash) {
		t.Error("expected new password hash")
	}

	if _, err := svc.Update(context.Background(), "ghost", ports.UpdateUserInput{Name: strPtr("x")}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_ChangeRole(t *testing.T) {
	svc, _, _ := newTestUserService()
	u, _ := svc.Register(context.Background(), ports.CreateUserInput{Email: "a@x.com", Password: "pw"})

	if _, err := svc.ChangeRole(context.Background(), u.ID, "ROOT"); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	got, err := svc.ChangeRole(context.Background(), u.ID, domain.RoleEditor)
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if got.Role != domain.RoleEditor {
		t.Fatalf("role = %s", got.Role)
	}
}

// ---------------------------------------------------------------------------
// List / Delete
// ---------------------------------------------------------------------------

func TestUserService_List_Pagination(t *testing.T) {
	svc, _, _ := newTestUserService()
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if _, err := svc.Register(context.Background(), ports.CreateUserInput{Email: e, Password: "pw"}); err != nil {
			t.Fatalf("register %s: %v", e, err)
		}
	}

	res, err := svc.List(context.Background(), ports.ListUsersInput{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 3 || res.Page != 1 || res.Limit != 2 || res.TotalPages != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, _ = svc.List(context.Background(), ports.ListUsersInput{Limit: 1000})
	if res.Limit != maxPageSize {
		t.Fatalf("limit = %d, want capped at %d", res.Limit, maxPageSize)
	}
}

func TestUserService_Delete_CascadesOrders(t *testing.T) {
	svc, users, orders := newTestUserService()
	u, _ := svc.Register(context.Background(), ports.CreateUserInput{Email: "a@x.com", Password: "pw"})
	other, _ := svc.Register(context.Background(), ports.CreateUserInput{Email: "b@x.com", Password: "pw"})

	_ = orders.Create(context.Background(), &domain.Order{ID: "o1", UserID: u.ID})
	_ = orders.Create(context.Background(), &domain.Order{ID: "o2", UserID: u.ID})
	_ = orders.Create(context.Background(), &domain.Order{ID: "o3", UserID: other.ID})

	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if users.stored(u.ID) != nil {
		t.Fatal("user should be gone")
	}
	if len(orders.byID) != 1 {
		t.Fatalf("expected only the other user's order to remain, got %d", len(orders.byID))
	}
	if _, ok := orders.byID["o3"]; !ok {
		t.Fatal("order of another user was removed")
	}

	if err := svc.Delete(context.Background(), u.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("second delete: expected ErrUserNotFound, got %v", err)
	}
}
