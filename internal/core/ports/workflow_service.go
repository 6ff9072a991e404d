package ports

import (
	"context"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// AttachmentInput is a file sent as a data URI.
type AttachmentInput struct {
	Name string
	Data string
}

// MarkItemInput toggles the marked flag of one checklist item.
type MarkItemInput struct {
	StageID string
	Index   int
	Marked  bool
}

// SubmitObjectiveInput carries a checklist objective submission.
type SubmitObjectiveInput struct {
	StageID        string
	ChecklistIndex int
	Description    string
	Images         []AttachmentInput
	Documents      []AttachmentInput
}

// ReviewInput carries a reviewer decision for a submission or deliverable.
type ReviewInput struct {
	SubjectID string
	Decision  string
	Comment   string
}

// SubmitDeliverableInput carries a whole-stage deliverable.
type SubmitDeliverableInput struct {
	StageID     string
	Description string
	Image       *AttachmentInput // optional
}

// EditDeliverableInput replaces the content of an UNDER_REVIEW deliverable.
// A nil Image keeps the current one unless RemoveImage is set.
type EditDeliverableInput struct {
	StageID       string
	DeliverableID string
	Description   string
	Image         *AttachmentInput
	RemoveImage   bool
}

// ChecklistService drives the per-item objective workflow.
type ChecklistService interface {
	MarkItem(ctx context.Context, session *domain.Session, in MarkItemInput) (*domain.Stage, error)
	SubmitObjective(ctx context.Context, session *domain.Session, in SubmitObjectiveInput) (*domain.ChecklistSubmission, error)
	GetSubmission(ctx context.Context, id string) (*domain.ChecklistSubmission, error)
	ReviewObjective(ctx context.Context, session *domain.Session, in ReviewInput) (*domain.ChecklistSubmission, error)
}

// DeliverableService drives the whole-stage deliverable workflow.
type DeliverableService interface {
	Submit(ctx context.Context, session *domain.Session, in SubmitDeliverableInput) (*domain.Deliverable, error)
	Edit(ctx context.Context, session *domain.Session, in EditDeliverableInput) (*domain.Deliverable, error)
	Review(ctx context.Context, session *domain.Session, in ReviewInput) (*domain.Deliverable, error)
}

// ChecklistItemView is one checklist entry joined with its latest submission.
type ChecklistItemView struct {
	Index     int
	Text      string
	Marked    bool
	Status    domain.SubmissionStatus
	Latest    *domain.ChecklistSubmission
	CanSubmit bool
}

// StageDetail is the full stage view for the task screen.
type StageDetail struct {
	Stage                domain.Stage
	Progress             domain.StageProgress
	Items                []ChecklistItemView
	Deliverables         []domain.Deliverable
	LatestDeliverable    *domain.Deliverable
	MayAct               bool
	CanSubmitDeliverable bool
	CanEditDeliverable   bool
}

// StageService exposes stage read models.
type StageService interface {
	GetDetail(ctx context.Context, session *domain.Session, stageID string) (*StageDetail, error)
}

// WorkflowEventPublisher hands persisted workflow events to async consumers.
type WorkflowEventPublisher interface {
	Publish(event domain.WorkflowEvent)
}

// WorkflowEventHandler consumes workflow events.
type WorkflowEventHandler interface {
	HandleWorkflowEvent(ctx context.Context, event domain.WorkflowEvent) error
}
