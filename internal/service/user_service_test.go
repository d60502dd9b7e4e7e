package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func newUserService(users *memUserRepo) *UserService {
	return NewUserService(UserDependencies{
		UserRepo:   users,
		BcryptCost: 4, // minimum cost keeps the tests fast
	})
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	users := newMemUserRepo()
	svc := newUserService(users)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Alice", "a@x.com", "pw", domain.RoleCustomer); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, "Imposter", "a@x.com", "pw2", domain.RoleAgent)
	assertCode(t, err, apperrors.CodeDuplicateEmail)

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("duplicate attempt must not mutate the store, count = %d", len(all))
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := newUserService(newMemUserRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "a@x.com", "pw", domain.RoleCustomer)
	assertCode(t, err, apperrors.CodeValidationFailed)

	_, err = svc.Create(ctx, "Bob", "b@x.com", "pw", domain.Role("superuser"))
	assertCode(t, err, apperrors.CodeValidationFailed)
}

func TestCreateUserHashesCredential(t *testing.T) {
	users := newMemUserRepo()
	svc := newUserService(users)

	created, err := svc.Create(context.Background(), "Alice", "a@x.com", "pw", domain.RoleAgent)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.PasswordHash == "pw" || created.PasswordHash == "" {
		t.Fatal("credential must be stored hashed")
	}
}

func TestUpdateProfile(t *testing.T) {
	users := newMemUserRepo()
	svc := newUserService(users)
	ctx := context.Background()

	alice, err := svc.Create(ctx, "Alice", "a@x.com", "pw", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "Bob", "b@x.com", "pw", domain.RoleCustomer); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("name only", func(t *testing.T) {
		name := "Alice Cooper"
		updated, err := svc.UpdateProfile(ctx, alice.ID, &name, nil)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Name != "Alice Cooper" || updated.Email != "a@x.com" {
			t.Fatalf("partial update wrong: %+v", updated)
		}
	})

	t.Run("email taken by another account", func(t *testing.T) {
		email := "b@x.com"
		_, err := svc.UpdateProfile(ctx, alice.ID, nil, &email)
		assertCode(t, err, apperrors.CodeDuplicateEmail)
	})

	t.Run("email unchanged is not a conflict", func(t *testing.T) {
		email := "a@x.com"
		if _, err := svc.UpdateProfile(ctx, alice.ID, nil, &email); err != nil {
			t.Fatalf("resubmitting own email should succeed: %v", err)
		}
	})

	t.Run("email changed to free address", func(t *testing.T) {
		email := "alice@x.com"
		updated, err := svc.UpdateProfile(ctx, alice.ID, nil, &email)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Email != "alice@x.com" {
			t.Fatalf("email = %s, want alice@x.com", updated.Email)
		}
	})
}

func TestListAgents(t *testing.T) {
	users := newMemUserRepo()
	svc := newUserService(users)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Alice", "a@x.com", "pw", domain.RoleCustomer); err != nil {
		t.Fatalf("create: %v", err)
	}
	agent, err := svc.Create(ctx, "Yusuf", "y@x.com", "pw", domain.RoleAgent)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "Ada", "ada@x.com", "pw", domain.RoleAdmin); err != nil {
		t.Fatalf("create: %v", err)
	}

	agents, err := svc.ListAgents(ctx)
	if err != nil {
		t.Fatalf("list agents: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("agents = %d, want 1", len(agents))
	}
	if agents[0].ID != agent.ID || agents[0].Email != "y@x.com" {
		t.Fatalf("agent projection wrong: %+v", agents[0])
	}
}

func TestGetProfileMissing(t *testing.T) {
	svc := newUserService(newMemUserRepo())
	_, err := svc.GetProfile(context.Background(), "user-missing")
	assertCode(t, err, apperrors.CodeNotFound)
}

// flakyEmailRepo injects a store failure into the email lookup.
type flakyEmailRepo struct {
	*memUserRepo
	emailErr error
}

func (r *flakyEmailRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if r.emailErr != nil {
		return nil, r.emailErr
	}
	return r.memUserRepo.GetByEmail(ctx, email)
}

func TestEmailCheckFailureMessages(t *testing.T) {
	repo := &flakyEmailRepo{memUserRepo: newMemUserRepo()}
	svc := NewUserService(UserDependencies{UserRepo: repo, BcryptCost: 4})
	ctx := context.Background()

	alice, err := svc.Create(ctx, "Alice", "a@x.com", "pw", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	repo.emailErr = errors.New("connection reset")

	assertMessage := func(err error, want string) {
		t.Helper()
		var de *apperrors.DomainError
		if !errors.As(err, &de) {
			t.Fatalf("expected DomainError, got %v", err)
		}
		if de.Message != want {
			t.Fatalf("message = %q, want %q", de.Message, want)
		}
	}

	_, err = svc.Create(ctx, "Bob", "b@x.com", "pw", domain.RoleCustomer)
	assertMessage(err, "Error creating user")

	email := "new@x.com"
	_, err = svc.UpdateProfile(ctx, alice.ID, nil, &email)
	assertMessage(err, "Error updating profile")
}
