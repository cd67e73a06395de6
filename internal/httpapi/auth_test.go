package httpapi

import (
	"context"
	"testing"
	"time"

	"wiggies/backend/internal/domain"
	"wiggies/backend/internal/store/memory"
)

func newTestAuthManager(t *testing.T) *AuthManager {
	t.Helper()
	return NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, memory.NewSeeded())
}

func TestLoginIssuesParseableToken(t *testing.T) {
	auth := newTestAuthManager(t)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %q", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	issuer := newTestAuthManager(t)
	verifier := NewAuthManager("a-completely-different-secret-value", time.Hour, memory.NewSeeded())

	resp, err := issuer.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuthManager(t)
	if _, err := auth.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}

func TestCreateStaffValidation(t *testing.T) {
	auth := newTestAuthManager(t)

	cases := []struct {
		name string
		req  domain.StaffCreateRequest
	}{
		{"short username", domain.StaffCreateRequest{Username: "ab", Password: "secret123"}},
		{"username with spaces", domain.StaffCreateRequest{Username: "bad name", Password: "secret123"}},
		{"short password", domain.StaffCreateRequest{Username: "newstaff", Password: "abc"}},
		{"duplicate username", domain.StaffCreateRequest{Username: "staff", Password: "secret123"}},
	}
	for _, tc := range cases {
		if _, err := auth.CreateStaff(tc.req); err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
		}
	}
}

func TestCreateStaffThenLogin(t *testing.T) {
	auth := newTestAuthManager(t)

	user, err := auth.CreateStaff(domain.StaffCreateRequest{Username: "Cashier01", Password: "secret123"})
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	if user.Username != "cashier01" {
		t.Fatalf("expected lowercased username, got %q", user.Username)
	}
	if user.Role != domain.RoleStaff {
		t.Fatalf("expected staff role, got %q", user.Role)
	}

	resp, err := auth.Login(domain.LoginRequest{Username: "cashier01", Password: "secret123"})
	if err != nil {
		t.Fatalf("login as new staff failed: %v", err)
	}
	if resp.Role != domain.RoleStaff {
		t.Fatalf("expected staff role on login, got %q", resp.Role)
	}
}

func TestListStaffExcludesAdmins(t *testing.T) {
	auth := newTestAuthManager(t)

	if _, err := auth.CreateStaff(domain.StaffCreateRequest{Username: "zeta", Password: "secret123"}); err != nil {
		t.Fatalf("create staff failed: %v", err)
	}

	staff := auth.ListStaff()
	for _, s := range staff {
		if s.Role != domain.RoleStaff {
			t.Fatalf("expected staff only, found %+v", s)
		}
		if s.Username == "admin" {
			t.Fatalf("admin should not appear in staff listing")
		}
	}
}

func TestBootstrapUpgradesPlaintextPasswords(t *testing.T) {
	repo := memory.NewSeeded()
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username:  "legacy",
		Password:  "plaintext1",
		Role:      domain.RoleStaff,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed legacy user: %v", err)
	}

	auth := NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, repo)

	if _, err := auth.Login(domain.LoginRequest{Username: "legacy", Password: "plaintext1"}); err != nil {
		t.Fatalf("legacy user should log in after hash upgrade: %v", err)
	}

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	for _, u := range users {
		if u.Username == "legacy" && !isPasswordHash(u.Password) {
			t.Fatalf("expected stored password to be upgraded to a hash, got %q", u.Password)
		}
	}
}
