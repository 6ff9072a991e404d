package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeliverableStatus is the review state of a whole-stage deliverable (entrega).
type DeliverableStatus string

const (
	DeliverableUnderReview DeliverableStatus = "UNDER_REVIEW"
	DeliverableApproved    DeliverableStatus = "APPROVED"
	DeliverableRejected    DeliverableStatus = "REJECTED"
)

// Deliverable is the narrative plus evidence submitted for a whole stage.
type Deliverable struct {
	ID          string            `json:"id" bson:"_id"`
	StageID     string            `json:"stage_id" bson:"stage_id"`
	Description string            `json:"description" bson:"description"`
	Image       *Attachment       `json:"image,omitempty" bson:"image,omitempty"`
	Status      DeliverableStatus `json:"status" bson:"status"`
	SubmittedBy string            `json:"submitted_by" bson:"submitted_by"`
	ReviewedBy  string            `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	Comment     string            `json:"comment,omitempty" bson:"comment,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at" bson:"submitted_at"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
	ReviewedAt  *time.Time        `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
}

func (d *Deliverable) Editable() bool {
	return d != nil && d.Status == DeliverableUnderReview
}

// Review records the reviewer's decision and returns the stage event it
// produces.
func (d *Deliverable) Review(reviewerID string, decision ReviewDecision, comment string, at time.Time) (StageEvent, error) {
	if d.Status != DeliverableUnderReview {
		return "", fmt.Errorf("%w: deliverable is %s", ErrInvalidTransition, d.Status)
	}
	ev := EventDeliverableApproved
	if decision == DecisionRejected {
		ev = EventDeliverableRejected
	}
	d.Status = DeliverableStatus(decision)
	d.ReviewedBy = reviewerID
	d.Comment = strings.TrimSpace(comment)
	d.ReviewedAt = &at
	return ev, nil
}

// LatestDeliverable returns the deliverable with the newest submission
// timestamp, or nil.
func LatestDeliverable(history []Deliverable) *Deliverable {
	var latest *Deliverable
	for i := range history {
		if latest == nil || history[i].SubmittedAt.After(latest.SubmittedAt) {
			latest = &history[i]
		}
	}
	return latest
}
