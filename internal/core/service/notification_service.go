package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

const unreadListLimit = 50

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, subjectID, status string, ts time.Time) (bool, error)
	Mark(ctx context.Context, subjectID, status string, ts time.Time) error
}

// NotificationService turns workflow events into per-user notifications and
// serves the unread badge.
type NotificationService struct {
	notifications ports.NotificationRepository
	stages        ports.StageRepository
	projects      ports.ProjectRepository
	dedup         DedupChecker
	publisher     ports.UnreadPublisher
	feed          ports.UnreadFeed
	log           zerolog.Logger
}

func NewNotificationService(
	notifications ports.NotificationRepository,
	stages ports.StageRepository,
	projects ports.ProjectRepository,
	dedup DedupChecker,
	publisher ports.UnreadPublisher,
	feed ports.UnreadFeed,
	log zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		stages:        stages,
		projects:      projects,
		dedup:         dedup,
		publisher:     publisher,
		feed:          feed,
		log:           log,
	}
}

// HandleWorkflowEvent notifies the stage executor, team and project
// supervisor, except the user who caused the event.
func (s *NotificationService) HandleWorkflowEvent(ctx context.Context, ev domain.WorkflowEvent) error {
	// 1. Idempotency check, skip events already fanned out.
	isDup, err := s.dedup.IsDuplicate(ctx, ev.SubjectID, ev.Status, ev.OccurredAt)
	if err != nil {
		s.log.Warn().Err(err).Str("subject_id", ev.SubjectID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		s.log.Debug().Str("subject_id", ev.SubjectID).Str("status", ev.Status).Msg("duplicate workflow event skipped")
		return nil
	}

	// 2. Resolve recipients.
	stage, err := s.stages.FindByID(ctx, ev.StageID)
	if err != nil {
		return fmt.Errorf("handle workflow event: %w", err)
	}
	projectID := ev.ProjectID
	if projectID == "" {
		projectID = stage.ProjectID
	}
	var supervisorID string
	if project, err := s.projects.FindByID(ctx, projectID); err == nil {
		supervisorID = project.SupervisorID
	} else {
		s.log.Warn().Err(err).Str("project_id", projectID).Msg("project lookup failed, supervisor not notified")
	}
	recipients := eventRecipients(stage, supervisorID, ev.ActorID)

	// 3. Persist one notification per recipient and push the new count.
	message := eventMessage(ev, stage)
	for _, userID := range recipients {
		n := &domain.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Kind:      ev.Kind,
			Message:   message,
			StageID:   stage.ID,
			ProjectID: projectID,
			CreatedAt: nowUTC(),
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("handle workflow event: %w", err)
		}
		s.pushCount(ctx, userID)
	}

	// 4. Mark as processed only once every recipient has been stored.
	if markErr := s.dedup.Mark(ctx, ev.SubjectID, ev.Status, ev.OccurredAt); markErr != nil {
		s.log.Warn().Err(markErr).Str("subject_id", ev.SubjectID).Msg("failed to set dedup key")
	}

	s.log.Info().
		Str("kind", string(ev.Kind)).
		Str("stage_id", stage.ID).
		Int("recipients", len(recipients)).
		Msg("workflow event notified")
	return nil
}

func (s *NotificationService) Unread(ctx context.Context, userID string) (*ports.UnreadResult, error) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("unread: %w", err)
	}
	items, err := s.notifications.ListUnread(ctx, userID, unreadListLimit)
	if err != nil {
		return nil, fmt.Errorf("unread: %w", err)
	}
	return &ports.UnreadResult{Count: count, Items: items}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.notifications.MarkRead(ctx, userID, id); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	s.pushCount(ctx, userID)
	return nil
}

// Subscribe emits the current unread count, then every update from the
// feed, until ctx is cancelled.
func (s *NotificationService) Subscribe(ctx context.Context, userID string) (<-chan int64, error) {
	initial, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	updates, err := s.feed.Subscribe(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan int64, 1)
	out <- initial
	go func() {
		defer close(out)
		last := initial
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-updates:
				if !ok {
					return
				}
				if n == last {
					continue
				}
				last = n
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *NotificationService) pushCount(ctx context.Context, userID string) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("count unread failed")
		return
	}
	if err := s.publisher.PublishUnread(ctx, userID, count); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("publish unread count failed")
	}
}

func eventRecipients(stage *domain.Stage, supervisorID, actorID string) []string {
	seen := map[string]struct{}{"": {}, actorID: {}}
	var out []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(stage.ExecutorID)
	for _, id := range stage.TeamIDs {
		add(id)
	}
	add(supervisorID)
	return out
}

func eventMessage(ev domain.WorkflowEvent, stage *domain.Stage) string {
	switch ev.Kind {
	case domain.WorkflowObjectiveSubmitted:
		return fmt.Sprintf("Checklist item %d of %q submitted for review", ev.ChecklistIndex+1, stage.Name)
	case domain.WorkflowObjectiveReviewed:
		return fmt.Sprintf("Checklist item %d of %q was %s", ev.ChecklistIndex+1, stage.Name, ev.Status)
	case domain.WorkflowDeliverableSubmitted:
		return fmt.Sprintf("Deliverable of %q submitted for review", stage.Name)
	case domain.WorkflowDeliverableEdited:
		return fmt.Sprintf("Deliverable of %q was edited", stage.Name)
	case domain.WorkflowDeliverableReviewed:
		return fmt.Sprintf("Deliverable of %q was %s", stage.Name, ev.Status)
	}
	return fmt.Sprintf("Stage %q was updated", stage.Name)
}
