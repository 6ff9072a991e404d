package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

type checklistService struct {
	stages      ports.StageRepository
	submissions ports.ChecklistSubmissionRepository
	tx          ports.TxRunner
	events      ports.WorkflowEventPublisher
	maxBytes    int
	log         zerolog.Logger
}

// NewChecklistService returns a ChecklistService. maxAttachmentBytes <= 0
// disables the per-file size limit.
func NewChecklistService(
	stages ports.StageRepository,
	submissions ports.ChecklistSubmissionRepository,
	tx ports.TxRunner,
	events ports.WorkflowEventPublisher,
	maxAttachmentBytes int,
	log zerolog.Logger,
) ports.ChecklistService {
	return &checklistService{
		stages:      stages,
		submissions: submissions,
		tx:          tx,
		events:      publisherOrNoop(events),
		maxBytes:    maxAttachmentBytes,
		log:         log,
	}
}

// MarkItem flags or unflags a checklist item. Marking counts as work
// started, so a PENDING stage moves to IN_PROGRESS in the same transaction.
func (s *checklistService) MarkItem(ctx context.Context, session *domain.Session, in ports.MarkItemInput) (*domain.Stage, error) {
	stage, err := loadActingStage(ctx, s.stages, session, in.StageID)
	if err != nil {
		return nil, fmt.Errorf("mark item: %w", err)
	}
	if !stage.Status.AcceptsDeliverable() {
		return nil, fmt.Errorf("mark item: %w: stage is %s", domain.ErrInvalidTransition, stage.Status)
	}
	if !stage.HasItem(in.Index) {
		return nil, domain.NewValidationError("index", "checklist item does not exist")
	}

	// The callback may run more than once, so stage is only updated after
	// the commit.
	next := stage.Status
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.stages.SetItemMarked(ctx, stage.ID, in.Index, in.Marked); err != nil {
			return err
		}
		if !in.Marked {
			return nil
		}
		var err error
		next, err = applyStageEvent(ctx, s.stages, stage, domain.EventWorkStarted)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("mark item: %w", err)
	}
	stage.Status = next
	stage.Checklist[in.Index].Marked = in.Marked

	s.log.Info().
		Str("stage_id", stage.ID).
		Int("checklist_index", in.Index).
		Bool("marked", in.Marked).
		Str("user_id", session.UserID()).
		Msg("checklist item updated")
	return stage, nil
}

// SubmitObjective records evidence for one checklist item. A new submission
// is only possible when the item has none yet or the latest was rejected.
func (s *checklistService) SubmitObjective(ctx context.Context, session *domain.Session, in ports.SubmitObjectiveInput) (*domain.ChecklistSubmission, error) {
	stage, err := loadActingStage(ctx, s.stages, session, in.StageID)
	if err != nil {
		return nil, fmt.Errorf("submit objective: %w", err)
	}
	if !stage.HasItem(in.ChecklistIndex) {
		return nil, domain.NewValidationError("checklist_index", "checklist item does not exist")
	}

	latest, err := s.submissions.Latest(ctx, stage.ID, in.ChecklistIndex)
	if err != nil {
		return nil, fmt.Errorf("submit objective: %w", err)
	}
	if current := domain.ItemStatus(latest); !current.AcceptsSubmission() {
		return nil, fmt.Errorf("submit objective: %w: checklist item %d is %s", domain.ErrInvalidTransition, in.ChecklistIndex, current)
	}

	if err := domain.ValidateDescription(in.Description); err != nil {
		return nil, err
	}
	images, err := parseAttachments("images", domain.AttachmentImage, in.Images, s.maxBytes)
	if err != nil {
		return nil, err
	}
	documents, err := parseAttachments("documents", domain.AttachmentDocument, in.Documents, s.maxBytes)
	if err != nil {
		return nil, err
	}

	sub := &domain.ChecklistSubmission{
		ID:             uuid.NewString(),
		StageID:        stage.ID,
		ChecklistIndex: in.ChecklistIndex,
		Description:    in.Description,
		Images:         images,
		Documents:      documents,
		Status:         domain.SubmissionUnderReview,
		SubmittedBy:    session.UserID(),
		SubmittedAt:    nowUTC(),
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.submissions.Create(ctx, sub); err != nil {
			return err
		}
		_, err := applyStageEvent(ctx, s.stages, stage, domain.EventWorkStarted)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("stage_id", stage.ID).Int("checklist_index", in.ChecklistIndex).Msg("failed to submit objective")
		return nil, fmt.Errorf("submit objective: %w", err)
	}

	s.log.Info().
		Str("stage_id", stage.ID).
		Int("checklist_index", in.ChecklistIndex).
		Str("submission_id", sub.ID).
		Int("images", len(images)).
		Int("documents", len(documents)).
		Msg("objective submitted")

	s.events.Publish(domain.WorkflowEvent{
		Kind:           domain.WorkflowObjectiveSubmitted,
		StageID:        stage.ID,
		ProjectID:      stage.ProjectID,
		SubjectID:      sub.ID,
		ChecklistIndex: sub.ChecklistIndex,
		ActorID:        sub.SubmittedBy,
		Status:         string(sub.Status),
		OccurredAt:     sub.SubmittedAt,
	})
	return sub, nil
}

func (s *checklistService) GetSubmission(ctx context.Context, id string) (*domain.ChecklistSubmission, error) {
	return s.submissions.FindByID(ctx, id)
}

func (s *checklistService) ReviewObjective(ctx context.Context, session *domain.Session, in ports.ReviewInput) (*domain.ChecklistSubmission, error) {
	if err := requireReviewer(session); err != nil {
		return nil, err
	}
	sub, err := s.submissions.FindByID(ctx, in.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("review objective: %w", err)
	}
	if sub.Status != domain.SubmissionUnderReview {
		return nil, fmt.Errorf("review objective: %w: submission is %s", domain.ErrInvalidTransition, sub.Status)
	}
	decision, err := domain.ParseReviewDecision(in.Decision)
	if err != nil {
		return nil, err
	}
	if err := sub.Review(session.UserID(), decision, in.Comment, nowUTC()); err != nil {
		return nil, err
	}
	if err := s.submissions.UpdateReview(ctx, sub); err != nil {
		return nil, fmt.Errorf("review objective: %w", err)
	}

	s.log.Info().
		Str("submission_id", sub.ID).
		Str("stage_id", sub.StageID).
		Int("checklist_index", sub.ChecklistIndex).
		Str("decision", string(decision)).
		Str("reviewer_id", sub.ReviewedBy).
		Msg("objective reviewed")

	s.events.Publish(domain.WorkflowEvent{
		Kind:           domain.WorkflowObjectiveReviewed,
		StageID:        sub.StageID,
		SubjectID:      sub.ID,
		ChecklistIndex: sub.ChecklistIndex,
		ActorID:        sub.ReviewedBy,
		Status:         string(sub.Status),
		OccurredAt:     *sub.ReviewedAt,
	})
	return sub, nil
}
