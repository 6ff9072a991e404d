package ports

import (
	"context"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// ProjectRepository returns projects without their stages; callers hydrate
// stages through StageRepository when they need them.
type ProjectRepository interface {
	List(ctx context.Context) ([]*domain.Project, error)
	FindByID(ctx context.Context, id string) (*domain.Project, error)
}

// StageRepository defines persistence operations for stages.
type StageRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Stage, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Stage, error)
	// ListByMember returns stages where userID is executor or team member.
	ListByMember(ctx context.Context, userID string) ([]domain.Stage, error)
	// UpdateStatus moves the stage from one status to another. It fails with
	// domain.ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.StageStatus) error
	SetItemMarked(ctx context.Context, id string, index int, marked bool) error
}

// TxRunner runs fn inside a storage transaction; fn's ctx must be passed to
// every repository call that belongs to the transaction.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
