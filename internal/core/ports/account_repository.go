package ports

import (
	"context"
	"time"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// AccountRepository defines persistence for user accounts.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	// List returns accounts ordered by name; activeOnly drops inactive ones.
	List(ctx context.Context, activeOnly bool) ([]*domain.Account, error)
}

// RoleRepository defines persistence for structured roles (cargos).
type RoleRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
}

// TokenRevoker records session tokens invalidated by logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
