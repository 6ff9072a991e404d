package domain

import (
	"fmt"
	"slices"
	"time"
)

// StageStatus represents the lifecycle state of a work stage (etapa).
type StageStatus string

const (
	StagePending     StageStatus = "PENDING"
	StageInProgress  StageStatus = "IN_PROGRESS"
	StageUnderReview StageStatus = "UNDER_REVIEW"
	StageApproved    StageStatus = "APPROVED"
	StageRejected    StageStatus = "REJECTED"
)

// StageEvent is a signal that can move a stage through its lifecycle.
type StageEvent string

const (
	EventWorkStarted          StageEvent = "work_started"
	EventDeliverableSubmitted StageEvent = "deliverable_submitted"
	EventDeliverableApproved  StageEvent = "deliverable_approved"
	EventDeliverableRejected  StageEvent = "deliverable_rejected"
)

// stageTransitions defines the allowed state machine transitions per event.
var stageTransitions = map[StageStatus]map[StageEvent]StageStatus{
	StagePending: {
		EventWorkStarted:          StageInProgress,
		EventDeliverableSubmitted: StageUnderReview,
	},
	StageInProgress: {
		EventDeliverableSubmitted: StageUnderReview,
	},
	StageRejected: {
		EventDeliverableSubmitted: StageUnderReview,
	},
	StageUnderReview: {
		EventDeliverableApproved: StageApproved,
		EventDeliverableRejected: StageRejected,
	},
}

func (s StageStatus) Valid() bool {
	switch s {
	case StagePending, StageInProgress, StageUnderReview, StageApproved, StageRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether some event moves s to next.
func (s StageStatus) CanTransitionTo(next StageStatus) bool {
	for _, to := range stageTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Apply returns the status reached from s on ev. EventWorkStarted is a no-op
// once work is already under way; every other undefined pair is an
// ErrInvalidTransition.
func (s StageStatus) Apply(ev StageEvent) (StageStatus, error) {
	if next, ok := stageTransitions[s][ev]; ok {
		return next, nil
	}
	if ev == EventWorkStarted {
		return s, nil
	}
	return s, fmt.Errorf("%w: stage %s on %s", ErrInvalidTransition, s, ev)
}

// AcceptsDeliverable reports whether a new deliverable may be submitted.
func (s StageStatus) AcceptsDeliverable() bool {
	_, ok := stageTransitions[s][EventDeliverableSubmitted]
	return ok
}

// Stage is a unit of work inside a project, owned by one executor.
type Stage struct {
	ID          string          `json:"id" bson:"_id"`
	ProjectID   string          `json:"project_id" bson:"project_id"`
	Name        string          `json:"name" bson:"name"`
	Description string          `json:"description" bson:"description"`
	Status      StageStatus     `json:"status" bson:"status"`
	ExecutorID  string          `json:"executor_id" bson:"executor_id"`
	TeamIDs     []string        `json:"team_ids" bson:"team_ids"`
	Checklist   []ChecklistItem `json:"checklist" bson:"checklist"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
}

// MayAct reports whether userID is the executor or a team member.
func (s *Stage) MayAct(userID string) bool {
	if s == nil || userID == "" {
		return false
	}
	return s.ExecutorID == userID || slices.Contains(s.TeamIDs, userID)
}

func (s *Stage) TotalItems() int { return len(s.Checklist) }

// ItemsMarked counts checklist entries flagged as marked, regardless of
// their review status.
func (s *Stage) ItemsMarked() int {
	n := 0
	for _, item := range s.Checklist {
		if item.Marked {
			n++
		}
	}
	return n
}

func (s *Stage) HasItem(index int) bool {
	return index >= 0 && index < len(s.Checklist)
}

// StageProgress is the itemsMarked/totalItems read model of a stage.
type StageProgress struct {
	ItemsMarked int     `json:"items_marked"`
	TotalItems  int     `json:"total_items"`
	Percent     float64 `json:"percent"`
}

func (s *Stage) Progress() StageProgress {
	p := StageProgress{ItemsMarked: s.ItemsMarked(), TotalItems: s.TotalItems()}
	if p.TotalItems > 0 {
		p.Percent = float64(p.ItemsMarked) * 100 / float64(p.TotalItems)
	}
	return p
}

// DeriveStageStatus computes the status a stage must have given its
// checklist and deliverable records. The latest deliverable dominates; any
// marked item or checklist submission means work has started. IN_PROGRESS
// has no way back to PENDING, so a stage stays started after its items are
// unmarked.
func DeriveStageStatus(stage *Stage, submissions []ChecklistSubmission, latest *Deliverable) StageStatus {
	if latest != nil {
		switch latest.Status {
		case DeliverableUnderReview:
			return StageUnderReview
		case DeliverableApproved:
			return StageApproved
		case DeliverableRejected:
			return StageRejected
		}
	}
	if stage.Status == StageInProgress || stage.ItemsMarked() > 0 || len(submissions) > 0 {
		return StageInProgress
	}
	return StagePending
}
