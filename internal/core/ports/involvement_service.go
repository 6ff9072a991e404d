package ports

import (
	"context"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// MyTasksResult lists the stages a user may act on and their projects.
type MyTasksResult struct {
	Stages   []domain.Stage
	Projects []*domain.Project
	Stats    domain.StageStats
}

// DashboardResult is the per-user project roll-up.
type DashboardResult struct {
	Projects []*domain.Project
	Summary  domain.PortfolioSummary
	// Skipped counts projects whose stage hydration failed.
	Skipped int
}

// InvolvementService derives per-user project and stage views.
type InvolvementService interface {
	ListProjects(ctx context.Context) ([]*domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	InvolvedProjects(ctx context.Context, userID string) ([]*domain.Project, error)
	MyTasks(ctx context.Context, userID string) (*MyTasksResult, error)
	Dashboard(ctx context.Context, userID string) (*DashboardResult, error)
}

// UnreadResult is the unread-notification badge payload.
type UnreadResult struct {
	Count int64
	Items []domain.Notification
}

// NotificationService serves the notification badge and feed.
type NotificationService interface {
	Unread(ctx context.Context, userID string) (*UnreadResult, error)
	MarkRead(ctx context.Context, userID, id string) error
	Subscribe(ctx context.Context, userID string) (<-chan int64, error)
}
