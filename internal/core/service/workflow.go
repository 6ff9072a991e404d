package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

type noopPublisher struct{}

func (noopPublisher) Publish(domain.WorkflowEvent) {}

func publisherOrNoop(p ports.WorkflowEventPublisher) ports.WorkflowEventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// loadActingStage fetches the stage and checks that the session user is its
// executor or a team member.
func loadActingStage(ctx context.Context, stages ports.StageRepository, session *domain.Session, stageID string) (*domain.Stage, error) {
	if session == nil {
		return nil, domain.ErrUnauthenticated
	}
	stage, err := stages.FindByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if !stage.MayAct(session.UserID()) {
		return nil, fmt.Errorf("%w: user is not executor or team member of stage %s", domain.ErrForbidden, stageID)
	}
	return stage, nil
}

// applyStageEvent persists the transition ev produces, if any, and returns
// the resulting status.
func applyStageEvent(ctx context.Context, stages ports.StageRepository, stage *domain.Stage, ev domain.StageEvent) (domain.StageStatus, error) {
	next, err := stage.Status.Apply(ev)
	if err != nil {
		return stage.Status, err
	}
	if next == stage.Status {
		return next, nil
	}
	if err := stages.UpdateStatus(ctx, stage.ID, stage.Status, next); err != nil {
		return stage.Status, err
	}
	return next, nil
}

func requireReviewer(session *domain.Session) error {
	if session == nil {
		return domain.ErrUnauthenticated
	}
	if !session.HasCapability(domain.CapabilityReviews) {
		return fmt.Errorf("%w: review capability required", domain.ErrForbidden)
	}
	return nil
}

func parseAttachments(field string, kind domain.AttachmentKind, in []ports.AttachmentInput, maxBytes int) ([]domain.Attachment, error) {
	out := make([]domain.Attachment, 0, len(in))
	for i, a := range in {
		att, err := domain.ParseAttachment(fmt.Sprintf("%s[%d]", field, i), kind, a.Name, a.Data, maxBytes)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, nil
}

func nowUTC() time.Time { return time.Now().UTC() }
