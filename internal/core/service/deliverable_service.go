package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

type deliverableService struct {
	stages       ports.StageRepository
	deliverables ports.DeliverableRepository
	tx           ports.TxRunner
	events       ports.WorkflowEventPublisher
	maxBytes     int
	log          zerolog.Logger
}

func NewDeliverableService(
	stages ports.StageRepository,
	deliverables ports.DeliverableRepository,
	tx ports.TxRunner,
	events ports.WorkflowEventPublisher,
	maxAttachmentBytes int,
	log zerolog.Logger,
) ports.DeliverableService {
	return &deliverableService{
		stages:       stages,
		deliverables: deliverables,
		tx:           tx,
		events:       publisherOrNoop(events),
		maxBytes:     maxAttachmentBytes,
		log:          log,
	}
}

// Submit creates an UNDER_REVIEW deliverable and moves the stage to
// UNDER_REVIEW. Both writes happen in one transaction.
func (s *deliverableService) Submit(ctx context.Context, session *domain.Session, in ports.SubmitDeliverableInput) (*domain.Deliverable, error) {
	stage, err := loadActingStage(ctx, s.stages, session, in.StageID)
	if err != nil {
		return nil, fmt.Errorf("submit deliverable: %w", err)
	}
	if !stage.Status.AcceptsDeliverable() {
		return nil, fmt.Errorf("submit deliverable: %w: stage is %s", domain.ErrInvalidTransition, stage.Status)
	}
	if stage.ItemsMarked() == 0 {
		return nil, fmt.Errorf("submit deliverable: %w: no checklist item is marked", domain.ErrInvalidTransition)
	}

	if err := domain.ValidateDescription(in.Description); err != nil {
		return nil, err
	}
	image, err := s.parseImage(in.Image)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	d := &domain.Deliverable{
		ID:          uuid.NewString(),
		StageID:     stage.ID,
		Description: in.Description,
		Image:       image,
		Status:      domain.DeliverableUnderReview,
		SubmittedBy: session.UserID(),
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.deliverables.Create(ctx, d); err != nil {
			return err
		}
		_, err := applyStageEvent(ctx, s.stages, stage, domain.EventDeliverableSubmitted)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("stage_id", stage.ID).Msg("failed to submit deliverable")
		return nil, fmt.Errorf("submit deliverable: %w", err)
	}

	s.log.Info().
		Str("stage_id", stage.ID).
		Str("deliverable_id", d.ID).
		Str("user_id", d.SubmittedBy).
		Msg("deliverable submitted")

	s.events.Publish(domain.WorkflowEvent{
		Kind:       domain.WorkflowDeliverableSubmitted,
		StageID:    stage.ID,
		ProjectID:  stage.ProjectID,
		SubjectID:  d.ID,
		ActorID:    d.SubmittedBy,
		Status:     string(d.Status),
		OccurredAt: now,
	})
	return d, nil
}

// Edit replaces the description and image of the latest deliverable while
// it is still under review. The record is updated in place.
func (s *deliverableService) Edit(ctx context.Context, session *domain.Session, in ports.EditDeliverableInput) (*domain.Deliverable, error) {
	stage, err := loadActingStage(ctx, s.stages, session, in.StageID)
	if err != nil {
		return nil, fmt.Errorf("edit deliverable: %w", err)
	}
	latest, err := s.deliverables.Latest(ctx, stage.ID)
	if err != nil {
		return nil, fmt.Errorf("edit deliverable: %w", err)
	}
	if latest == nil || latest.ID != in.DeliverableID {
		// Only the latest deliverable of the stage can be edited.
		if _, err := s.deliverables.FindByID(ctx, in.DeliverableID); err != nil {
			return nil, fmt.Errorf("edit deliverable: %w", err)
		}
		return nil, fmt.Errorf("edit deliverable: %w: deliverable %s is not the latest", domain.ErrInvalidTransition, in.DeliverableID)
	}
	if !latest.Editable() {
		return nil, fmt.Errorf("edit deliverable: %w: deliverable is %s", domain.ErrInvalidTransition, latest.Status)
	}

	if err := domain.ValidateDescription(in.Description); err != nil {
		return nil, err
	}
	image, err := s.parseImage(in.Image)
	if err != nil {
		return nil, err
	}

	latest.Description = in.Description
	switch {
	case image != nil:
		latest.Image = image
	case in.RemoveImage:
		latest.Image = nil
	}
	latest.UpdatedAt = nowUTC()

	if err := s.deliverables.UpdateContent(ctx, latest); err != nil {
		return nil, fmt.Errorf("edit deliverable: %w", err)
	}

	s.log.Info().Str("stage_id", stage.ID).Str("deliverable_id", latest.ID).Msg("deliverable edited")
	s.events.Publish(domain.WorkflowEvent{
		Kind:       domain.WorkflowDeliverableEdited,
		StageID:    stage.ID,
		ProjectID:  stage.ProjectID,
		SubjectID:  latest.ID,
		ActorID:    session.UserID(),
		Status:     string(latest.Status),
		OccurredAt: latest.UpdatedAt,
	})
	return latest, nil
}

// Review decides the deliverable and drives the stage to APPROVED or
// REJECTED. Checklist submissions are not re-verified on approval.
func (s *deliverableService) Review(ctx context.Context, session *domain.Session, in ports.ReviewInput) (*domain.Deliverable, error) {
	if err := requireReviewer(session); err != nil {
		return nil, err
	}
	d, err := s.deliverables.FindByID(ctx, in.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("review deliverable: %w", err)
	}
	if !d.Editable() {
		return nil, fmt.Errorf("review deliverable: %w: deliverable is %s", domain.ErrInvalidTransition, d.Status)
	}
	decision, err := domain.ParseReviewDecision(in.Decision)
	if err != nil {
		return nil, err
	}
	stage, err := s.stages.FindByID(ctx, d.StageID)
	if err != nil {
		return nil, fmt.Errorf("review deliverable: %w", err)
	}

	ev, err := d.Review(session.UserID(), decision, in.Comment, nowUTC())
	if err != nil {
		return nil, err
	}
	var next domain.StageStatus
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.deliverables.UpdateReview(ctx, d); err != nil {
			return err
		}
		next, err = applyStageEvent(ctx, s.stages, stage, ev)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("review deliverable: %w", err)
	}

	s.log.Info().
		Str("deliverable_id", d.ID).
		Str("stage_id", stage.ID).
		Str("decision", string(decision)).
		Str("stage_status", string(next)).
		Msg("deliverable reviewed")
	if decision == domain.DecisionApproved && stage.ItemsMarked() < stage.TotalItems() {
		s.log.Warn().
			Str("stage_id", stage.ID).
			Int("items_marked", stage.ItemsMarked()).
			Int("total_items", stage.TotalItems()).
			Msg("stage approved with unmarked checklist items")
	}

	s.events.Publish(domain.WorkflowEvent{
		Kind:       domain.WorkflowDeliverableReviewed,
		StageID:    stage.ID,
		ProjectID:  stage.ProjectID,
		SubjectID:  d.ID,
		ActorID:    d.ReviewedBy,
		Status:     string(d.Status),
		OccurredAt: *d.ReviewedAt,
	})
	return d, nil
}

func (s *deliverableService) parseImage(in *ports.AttachmentInput) (*domain.Attachment, error) {
	if in == nil || in.Data == "" {
		return nil, nil
	}
	att, err := domain.ParseAttachment("image", domain.AttachmentImage, in.Name, in.Data, s.maxBytes)
	if err != nil {
		return nil, err
	}
	return &att, nil
}
