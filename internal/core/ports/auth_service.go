package ports

import (
	"context"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// RegisterInput carries the data needed to create an account. Either RoleID
// or LegacyRole identifies the role.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	RoleID     string
	LegacyRole string
}

// AuthService builds and tears down sessions.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Logout(ctx context.Context, session *domain.Session) error
	// Authenticate validates a bearer token and rebuilds its session.
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// DirectoryService exposes reference data used by forms and filters.
type DirectoryService interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	UserOptions(ctx context.Context) ([]domain.UserOption, error)
	ListRoles(ctx context.Context) ([]domain.Role, error)
}
