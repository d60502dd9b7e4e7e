package service

import (
	"context"
	"testing"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func newAuthService(users *memUserRepo) *AuthService {
	return NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            4,
	}, users)
}

func TestRegisterIssuesCustomerToken(t *testing.T) {
	svc := newAuthService(newMemUserRepo())
	ctx := context.Background()

	user, token, _, err := svc.Register(ctx, "Alice", "a@x.com", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleCustomer {
		t.Fatalf("self-service signup must create a customer, got %s", user.Role)
	}

	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != domain.RoleCustomer {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(newMemUserRepo())
	ctx := context.Background()

	if _, _, _, err := svc.Register(ctx, "Alice", "a@x.com", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, _, err := svc.Register(ctx, "Clone", "a@x.com", "pw")
	assertCode(t, err, apperrors.CodeDuplicateEmail)
}

func TestLogin(t *testing.T) {
	users := newMemUserRepo()
	svc := newAuthService(users)
	ctx := context.Background()

	if _, _, _, err := svc.Register(ctx, "Alice", "a@x.com", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, _, err := svc.Login(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, _, _, err := svc.Login(ctx, "a@x.com", "wrong")
	assertCode(t, err, apperrors.CodeUnauthorized)

	_, _, _, err = svc.Login(ctx, "nobody@x.com", "pw")
	assertCode(t, err, apperrors.CodeUnauthorized)
}
