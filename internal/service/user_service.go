package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	agentRosterKey = "support-desk:agents"
	agentRosterTTL = time.Minute
)

// UserService orchestrates account administration and profile
// self-service. The agent roster is cached in Redis since it backs the
// assignment picker and changes rarely.
type UserService struct {
	users      repository.UserRepository
	cache      *redis.Client
	logger     *zap.Logger
	bcryptCost int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Cache      *redis.Client
	Logger     *zap.Logger
	BcryptCost int
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		cache:      deps.Cache,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
	}
}

// ListAll returns every account. Handlers must project away the
// credential before serializing.
func (s *UserService) ListAll(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("Error fetching users", err)
	}
	return users, nil
}

// Create registers a new account with the given role. Fails with
// DuplicateEmail when the address is already taken; no record is
// written in that case.
func (s *UserService) Create(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email, password required")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role value")
	}

	if err := s.ensureEmailFree(ctx, email, "Error creating user"); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("Error creating user", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewInternalError("Error creating user", err)
	}

	if role == domain.RoleAgent {
		s.invalidateAgentRoster(ctx)
	}
	return user, nil
}

// GetProfile returns the caller's own record.
func (s *UserService) GetProfile(ctx context.Context, actorID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User")
		}
		return nil, apperrors.NewInternalError("Error fetching profile", err)
	}
	return user, nil
}

// UpdateProfile applies the provided name and/or email to the caller's
// own record. A changed email must not collide with another account.
func (s *UserService) UpdateProfile(ctx context.Context, actorID string, name, email *string) (*domain.User, error) {
	user, err := s.GetProfile(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if email != nil && *email != user.Email {
		if err := s.ensureEmailFree(ctx, *email, "Error updating profile"); err != nil {
			return nil, err
		}
		user.Email = *email
	}
	if name != nil && *name != "" {
		user.Name = *name
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewInternalError("Error updating profile", err)
	}

	if user.Role == domain.RoleAgent {
		s.invalidateAgentRoster(ctx)
	}
	return user, nil
}

// AgentRef is the minimal agent projection served to admins.
type AgentRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListAgents returns all accounts with role agent, served from the
// Redis roster cache when warm.
func (s *UserService) ListAgents(ctx context.Context) ([]AgentRef, error) {
	if cached := s.cachedAgentRoster(ctx); cached != nil {
		return cached, nil
	}

	agents, err := s.users.ListByRole(ctx, domain.RoleAgent)
	if err != nil {
		return nil, apperrors.NewInternalError("Error fetching agents", err)
	}

	refs := make([]AgentRef, 0, len(agents))
	for _, agent := range agents {
		refs = append(refs, AgentRef{ID: agent.ID, Name: agent.Name, Email: agent.Email})
	}
	s.storeAgentRoster(ctx, refs)
	return refs, nil
}

// ensureEmailFree reports DuplicateEmail when the address is taken.
// Store failures are wrapped with the calling operation's message.
func (s *UserService) ensureEmailFree(ctx context.Context, email, failMessage string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return apperrors.NewDuplicateEmail()
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewInternalError(failMessage, err)
	}
	return nil
}

func (s *UserService) cachedAgentRoster(ctx context.Context) []AgentRef {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, agentRosterKey).Bytes()
	if err != nil {
		return nil
	}
	var refs []AgentRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil
	}
	return refs
}

func (s *UserService) storeAgentRoster(ctx context.Context, refs []AgentRef) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(refs)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, agentRosterKey, raw, agentRosterTTL).Err(); err != nil {
		s.logger.Debug("agent roster cache write failed", zap.Error(err))
	}
}

func (s *UserService) invalidateAgentRoster(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, agentRosterKey).Err(); err != nil {
		s.logger.Debug("agent roster cache invalidation failed", zap.Error(err))
	}
}
