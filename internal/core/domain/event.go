package domain

import "time"

// WorkflowEventKind names a review workflow occurrence.
type WorkflowEventKind string

const (
	WorkflowObjectiveSubmitted   WorkflowEventKind = "objective_submitted"
	WorkflowObjectiveReviewed    WorkflowEventKind = "objective_reviewed"
	WorkflowDeliverableSubmitted WorkflowEventKind = "deliverable_submitted"
	WorkflowDeliverableEdited    WorkflowEventKind = "deliverable_edited"
	WorkflowDeliverableReviewed  WorkflowEventKind = "deliverable_reviewed"
)

// WorkflowEvent is emitted after a submission or review has been persisted.
type WorkflowEvent struct {
	Kind           WorkflowEventKind
	StageID        string
	ProjectID      string
	SubjectID      string // submission or deliverable id
	ChecklistIndex int
	ActorID        string
	Status         string
	OccurredAt     time.Time
}
