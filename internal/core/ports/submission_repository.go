package ports

import (
	"context"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// ChecklistSubmissionRepository persists checklist objective submissions.
type ChecklistSubmissionRepository interface {
	Create(ctx context.Context, s *domain.ChecklistSubmission) error
	FindByID(ctx context.Context, id string) (*domain.ChecklistSubmission, error)
	// Latest returns the newest submission for the index, or nil when none exists.
	Latest(ctx context.Context, stageID string, index int) (*domain.ChecklistSubmission, error)
	ListByStage(ctx context.Context, stageID string) ([]domain.ChecklistSubmission, error)
	UpdateReview(ctx context.Context, s *domain.ChecklistSubmission) error
}

// DeliverableRepository persists whole-stage deliverables.
type DeliverableRepository interface {
	Create(ctx context.Context, d *domain.Deliverable) error
	FindByID(ctx context.Context, id string) (*domain.Deliverable, error)
	// Latest returns the deliverable with the newest submission time, or nil.
	Latest(ctx context.Context, stageID string) (*domain.Deliverable, error)
	ListByStage(ctx context.Context, stageID string) ([]domain.Deliverable, error)
	UpdateContent(ctx context.Context, d *domain.Deliverable) error
	UpdateReview(ctx context.Context, d *domain.Deliverable) error
}
