package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

const defaultHydrationLimit = 8

type involvementService struct {
	projects ports.ProjectRepository
	stages   ports.StageRepository
	limit    int
	log      zerolog.Logger
}

// NewInvolvementService returns an InvolvementService. hydrationLimit bounds
// how many projects have their stages fetched concurrently.
func NewInvolvementService(projects ports.ProjectRepository, stages ports.StageRepository, hydrationLimit int, log zerolog.Logger) ports.InvolvementService {
	if hydrationLimit <= 0 {
		hydrationLimit = defaultHydrationLimit
	}
	return &involvementService{projects: projects, stages: stages, limit: hydrationLimit, log: log}
}

func (s *involvementService) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns one project with its stages loaded.
func (s *involvementService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	stages, err := s.stages.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("get project: stages: %w", err)
	}
	p.Stages = stages
	p.StagesLoaded = true
	return p, nil
}

func (s *involvementService) InvolvedProjects(ctx context.Context, userID string) ([]*domain.Project, error) {
	projects, _, err := s.involved(ctx, userID)
	return projects, err
}

// MyTasks lists the stages the user may act on together with their projects.
func (s *involvementService) MyTasks(ctx context.Context, userID string) (*ports.MyTasksResult, error) {
	stages, err := s.stages.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("my tasks: %w", err)
	}

	projects := make([]*domain.Project, 0)
	seen := make(map[string]struct{})
	for _, st := range stages {
		if _, ok := seen[st.ProjectID]; ok {
			continue
		}
		seen[st.ProjectID] = struct{}{}
		p, err := s.projects.FindByID(ctx, st.ProjectID)
		if err != nil {
			s.log.Warn().Err(err).Str("project_id", st.ProjectID).Msg("skipping project of assigned stage")
			continue
		}
		projects = append(projects, p)
	}

	return &ports.MyTasksResult{
		Stages:   stages,
		Projects: projects,
		Stats:    domain.ComputeStageStats(stages),
	}, nil
}

// Dashboard also loads the stages of involved projects that were decided
// without them, so the stage counts cover every listed project. A failure
// there keeps the project and only loses its stage counts.
func (s *involvementService) Dashboard(ctx context.Context, userID string) (*ports.DashboardResult, error) {
	projects, skipped, err := s.involved(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.hydrate(ctx, projects, func(p *domain.Project) bool { return !p.StagesLoaded })
	return &ports.DashboardResult{
		Projects: projects,
		Summary:  domain.SummarizePortfolio(projects),
		Skipped:  skipped,
	}, nil
}

// involved lists all projects and filters by involvement. Stages are only
// fetched for projects the user is not directly involved in. A project
// whose stages cannot be loaded is left out rather than failing the whole
// view; the number left out is returned.
func (s *involvementService) involved(ctx context.Context, userID string) ([]*domain.Project, int, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("involved projects: %w", err)
	}

	failed := s.hydrate(ctx, projects, func(p *domain.Project) bool { return p.NeedsHydration(userID) })

	usable := make([]*domain.Project, 0, len(projects))
	for _, p := range projects {
		if p == nil {
			continue
		}
		if _, bad := failed[p.ID]; bad {
			continue
		}
		usable = append(usable, p)
	}
	return domain.InvolvedProjects(usable, userID), len(failed), nil
}

// hydrate loads stages for every project need selects, at most s.limit at a
// time, and returns the ids whose stages could not be loaded.
func (s *involvementService) hydrate(ctx context.Context, projects []*domain.Project, need func(*domain.Project) bool) map[string]struct{} {
	var (
		mu     sync.Mutex
		failed = make(map[string]struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, p := range projects {
		if p == nil || !need(p) {
			continue
		}
		g.Go(func() error {
			stages, err := s.stages.ListByProject(gctx, p.ID)
			if err != nil {
				s.log.Warn().Err(err).Str("project_id", p.ID).Msg("stage hydration failed")
				mu.Lock()
				failed[p.ID] = struct{}{}
				mu.Unlock()
				return nil
			}
			p.Stages = stages
			p.StagesLoaded = true
			return nil
		})
	}
	_ = g.Wait()
	return failed
}
