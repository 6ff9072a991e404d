package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MinDescriptionLength is the minimum number of characters of a submission
// description, counted after trimming surrounding whitespace.
const MinDescriptionLength = 5

// SubmissionStatus is the review state of one checklist objective.
type SubmissionStatus string

const (
	SubmissionPending     SubmissionStatus = "PENDING"
	SubmissionUnderReview SubmissionStatus = "UNDER_REVIEW"
	SubmissionApproved    SubmissionStatus = "APPROVED"
	SubmissionRejected    SubmissionStatus = "REJECTED"
)

// AcceptsSubmission reports whether a new objective submission may start
// from this status.
func (s SubmissionStatus) AcceptsSubmission() bool {
	return s == SubmissionPending || s == SubmissionRejected
}

// ReviewDecision is the outcome chosen by a reviewer.
type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "APPROVED"
	DecisionRejected ReviewDecision = "REJECTED"
)

func ParseReviewDecision(s string) (ReviewDecision, error) {
	switch d := ReviewDecision(strings.ToUpper(strings.TrimSpace(s))); d {
	case DecisionApproved, DecisionRejected:
		return d, nil
	}
	return "", NewValidationError("decision", "must be APPROVED or REJECTED")
}

// ChecklistItem is one sub-objective of a stage, identified by its index.
type ChecklistItem struct {
	Text   string `json:"text" bson:"text"`
	Marked bool   `json:"marked" bson:"marked"`
}

// ChecklistSubmission is the evidence submitted for one checklist index.
type ChecklistSubmission struct {
	ID             string           `json:"id" bson:"_id"`
	StageID        string           `json:"stage_id" bson:"stage_id"`
	ChecklistIndex int              `json:"checklist_index" bson:"checklist_index"`
	Description    string           `json:"description" bson:"description"`
	Images         []Attachment     `json:"images" bson:"images"`
	Documents      []Attachment     `json:"documents" bson:"documents"`
	Status         SubmissionStatus `json:"status" bson:"status"`
	SubmittedBy    string           `json:"submitted_by" bson:"submitted_by"`
	ReviewedBy     string           `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	ReviewComment  string           `json:"review_comment,omitempty" bson:"review_comment,omitempty"`
	SubmittedAt    time.Time        `json:"submitted_at" bson:"submitted_at"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
}

// ItemStatus is the effective status of a checklist index given its latest
// submission; no submission means PENDING.
func ItemStatus(latest *ChecklistSubmission) SubmissionStatus {
	if latest == nil || latest.Status == "" {
		return SubmissionPending
	}
	return latest.Status
}

// Review records the reviewer's decision. Only UNDER_REVIEW submissions can
// be reviewed.
func (s *ChecklistSubmission) Review(reviewerID string, d ReviewDecision, comment string, at time.Time) error {
	if s.Status != SubmissionUnderReview {
		return fmt.Errorf("%w: submission is %s", ErrInvalidTransition, s.Status)
	}
	s.Status = SubmissionStatus(d)
	s.ReviewedBy = reviewerID
	s.ReviewComment = strings.TrimSpace(comment)
	s.ReviewedAt = &at
	return nil
}

// ValidateDescription enforces MinDescriptionLength on a narrative field,
// counting characters as typed. A blank description is never accepted.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return NewValidationError("description", "is required")
	}
	if utf8.RuneCountInString(description) < MinDescriptionLength {
		return NewValidationError("description", fmt.Sprintf("must have at least %d characters", MinDescriptionLength))
	}
	return nil
}
