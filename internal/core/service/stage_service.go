package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

type stageService struct {
	stages       ports.StageRepository
	submissions  ports.ChecklistSubmissionRepository
	deliverables ports.DeliverableRepository
	log          zerolog.Logger
}

func NewStageService(
	stages ports.StageRepository,
	submissions ports.ChecklistSubmissionRepository,
	deliverables ports.DeliverableRepository,
	log zerolog.Logger,
) ports.StageService {
	return &stageService{stages: stages, submissions: submissions, deliverables: deliverables, log: log}
}

// GetDetail assembles the task screen for a stage. Members of the stage and
// users holding the review or projects capability may read it.
func (s *stageService) GetDetail(ctx context.Context, session *domain.Session, stageID string) (*ports.StageDetail, error) {
	if session == nil {
		return nil, domain.ErrUnauthenticated
	}
	stage, err := s.stages.FindByID(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("stage detail: %w", err)
	}
	mayAct := stage.MayAct(session.UserID())
	if !mayAct && !session.HasCapability(domain.CapabilityReviews) && !session.HasCapability(domain.CapabilityProjects) {
		return nil, fmt.Errorf("stage detail: %w", domain.ErrForbidden)
	}

	subs, err := s.submissions.ListByStage(ctx, stage.ID)
	if err != nil {
		return nil, fmt.Errorf("stage detail: submissions: %w", err)
	}
	history, err := s.deliverables.ListByStage(ctx, stage.ID)
	if err != nil {
		return nil, fmt.Errorf("stage detail: deliverables: %w", err)
	}

	latestByIndex := latestSubmissions(subs)
	items := make([]ports.ChecklistItemView, 0, len(stage.Checklist))
	for i, item := range stage.Checklist {
		latest := latestByIndex[i]
		status := domain.ItemStatus(latest)
		items = append(items, ports.ChecklistItemView{
			Index:     i,
			Text:      item.Text,
			Marked:    item.Marked,
			Status:    status,
			Latest:    latest,
			CanSubmit: mayAct && status.AcceptsSubmission(),
		})
	}

	latest := domain.LatestDeliverable(history)
	if derived := domain.DeriveStageStatus(stage, subs, latest); derived != stage.Status {
		s.log.Warn().
			Str("stage_id", stage.ID).
			Str("stored", string(stage.Status)).
			Str("derived", string(derived)).
			Msg("stage status differs from its records")
	}

	return &ports.StageDetail{
		Stage:                *stage,
		Progress:             stage.Progress(),
		Items:                items,
		Deliverables:         history,
		LatestDeliverable:    latest,
		MayAct:               mayAct,
		CanSubmitDeliverable: mayAct && stage.Status.AcceptsDeliverable() && stage.ItemsMarked() > 0,
		CanEditDeliverable:   mayAct && latest.Editable(),
	}, nil
}

// latestSubmissions keeps the newest submission per checklist index.
func latestSubmissions(subs []domain.ChecklistSubmission) map[int]*domain.ChecklistSubmission {
	out := make(map[int]*domain.ChecklistSubmission, len(subs))
	for i := range subs {
		cur, ok := out[subs[i].ChecklistIndex]
		if !ok || subs[i].SubmittedAt.After(cur.SubmittedAt) {
			out[subs[i].ChecklistIndex] = &subs[i]
		}
	}
	return out
}
