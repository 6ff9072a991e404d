package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

func seedPortfolio(store *memStore) {
	store.addProject(domain.Project{ID: "p-1", Name: "Obra A", Status: domain.ProjectInProgress, SupervisorID: supervisorID, Progress: 40, TotalValue: decimal.RequireFromString("1000.50")})
	store.addProject(domain.Project{ID: "p-2", Name: "Obra B", Status: domain.ProjectFinished, ResponsibleIDs: []string{"u-resp"}, Progress: 100, TotalValue: decimal.RequireFromString("250")})
	store.addProject(domain.Project{ID: "p-3", Name: "Obra C", Status: domain.ProjectInProgress, Progress: 10, TotalValue: decimal.RequireFromString("99.50")})

	a := stageWithItems("s-a", domain.StagePending, 1)
	a.ProjectID, a.ExecutorID, a.TeamIDs = "p-3", "u-other", []string{teamMemberID}
	b := stageWithItems("s-b", domain.StageInProgress, 1)
	b.ProjectID, b.ExecutorID, b.TeamIDs = "p-3", "u-other", []string{teamMemberID}
	c := stageWithItems("s-c", domain.StageUnderReview, 1)
	c.ProjectID, c.ExecutorID, c.TeamIDs = "p-1", executorID, nil
	store.addStage(a)
	store.addStage(b)
	store.addStage(c)
}

func projectIDs(ps []*domain.Project) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestInvolvementService_InvolvedProjects_TeamMemberOnce(t *testing.T) {
	store := newMemStore()
	seedPortfolio(store)
	svc := NewInvolvementService(stubProjectRepo{memStore: store}, stubStageRepo{store}, 2, discardLogger)

	got, err := svc.InvolvedProjects(context.Background(), teamMemberID)
	if err != nil {
		t.Fatalf("InvolvedProjects returned error: %v", err)
	}
	if ids := projectIDs(got); len(ids) != 1 || ids[0] != "p-3" {
		t.Fatalf("expected only p-3 once, got %v", ids)
	}
}

func TestInvolvementService_InvolvedProjects_Roles(t *testing.T) {
	store := newMemStore()
	seedPortfolio(store)
	svc := NewInvolvementService(stubProjectRepo{memStore: store}, stubStageRepo{store}, 0, discardLogger)

	tests := []struct {
		user string
		want []string
	}{
		{supervisorID, []string{"p-1"}},
		{"u-resp", []string{"p-2"}},
		{executorID, []string{"p-1"}},
		{outsiderID, nil},
	}
	for _, tt := range tests {
		got, err := svc.InvolvedProjects(context.Background(), tt.user)
		if err != nil {
			t.Fatalf("%s: %v", tt.user, err)
		}
		ids := projectIDs(got)
		if len(ids) != len(tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.user, tt.want, ids)
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Fatalf("%s: expected %v, got %v", tt.user, tt.want, ids)
			}
		}
	}
}

func TestInvolvementService_HydrationIsBestEffort(t *testing.T) {
	store := newMemStore()
	seedPortfolio(store)
	store.hydrateErr["p-3"] = errBackend
	svc := NewInvolvementService(stubProjectRepo{memStore: store}, stubStageRepo{store}, 2, discardLogger)

	dash, err := svc.Dashboard(context.Background(), teamMemberID)
	if err != nil {
		t.Fatalf("Dashboard should not fail on one bad project: %v", err)
	}
	if dash.Skipped != 1 || len(dash.Projects) != 0 {
		t.Fatalf("expected p-3 skipped, got skipped=%d projects=%v", dash.Skipped, projectIDs(dash.Projects))
	}

	dash, err = svc.Dashboard(context.Background(), supervisorID)
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if ids := projectIDs(dash.Projects); len(ids) != 1 || ids[0] != "p-1" {
		t.Fatalf("expected p-1 for supervisor, got %v", ids)
	}
}

func TestInvolvementService_HydratesOnlyUndecidedProjects(t *testing.T) {
	store := newMemStore()
	seedPortfolio(store)
	svc := NewInvolvementService(stubProjectRepo{memStore: store}, stubStageRepo{store}, 1, discardLogger)

	got, err := svc.InvolvedProjects(context.Background(), supervisorID)
	if err != nil {
		t.Fatalf("InvolvedProjects returned error: %v", err)
	}
	if ids := projectIDs(got); len(ids) != 1 || ids[0] != "p-1" {
		t.Fatalf("expected p-1, got %v", ids)
	}
	hydrated := append([]string(nil), store.hydrated...)
	sort.Strings(hydrated)
	if len(hydrated) != 2 || hydrated[0] != "p-2" || hydrated[1] != "p-3" {
		t.Fatalf("supervised project must not be hydrated, ListByProject calls: %v", hydrated)
	}
}

func TestInvolvementService_Dashboard_DirectProjectSurvivesStageFailure(t *testing.T) {
	store := newMemStore()
	seedPortfolio(store)
	store.hydrateErr["p-1"] = errBackend
	svc := NewInvolvementService(stubProjectRepo{memStore: store}, stubStageRepo{store}, 2, discardLogger)

	dash, err := svc.Dashboard(context.Background(), supervisorID)
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if ids := projectIDs(dash.Projects); len(ids) != 1 || ids[0] != "p-1" {
		t.Fatalf("expected p-1 kept, got %v", ids)
	}
	if dash.Skipped != 0 {
		t.Fatalf("a listed project must not count as skipped, got %d", dash.Skipped)
	}
	if dash.Summary.Stages.UnderReview != 0 {
		t.Fatalf("expected no stage counts for p-1, got %+v", dash.Summary.Stages)
	}
}

func TestInvolvementService_Dashboard_Summary(t *testing.T) {
	store := newMemStore()
	seedPortfolio(store)
	store.addProject(domain.Project{ID: "p-4", Status: domain.ProjectFinished, SupervisorID: supervisorID, Progress: 80, TotalValue: decimal.RequireFromString("0.25")})
	svc := NewInvolvementService(stubProjectRepo{memStore: store}, stubStageRepo{store}, 4, discardLogger)

	dash, err := svc.Dashboard(context.Background(), supervisorID)
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	sum := dash.Summary
	if sum.Projects != 2 || sum.InProgress != 1 || sum.Finished != 1 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if sum.AverageProgress != 60 {
		t.Fatalf("expected average progress 60, got %v", sum.AverageProgress)
	}
	if !sum.TotalValue.Equal(decimal.RequireFromString("1000.75")) {
		t.Fatalf("unexpected total value %s", sum.TotalValue)
	}
	if sum.Stages.UnderReview != 1 {
		t.Fatalf("expected one stage under review, got %+v", sum.Stages)
	}
}

func TestInvolvementService_ListFailureIsFatal(t *testing.T) {
	store := newMemStore()
	svc := NewInvolvementService(stubProjectRepo{memStore: store, listErr: errBackend}, stubStageRepo{store}, 1, discardLogger)

	if _, err := svc.InvolvedProjects(context.Background(), executorID); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestInvolvementService_MyTasks(t *testing.T) {
	store := newMemStore()
	seedPortfolio(store)
	svc := NewInvolvementService(stubProjectRepo{memStore: store}, stubStageRepo{store}, 1, discardLogger)

	res, err := svc.MyTasks(context.Background(), teamMemberID)
	if err != nil {
		t.Fatalf("MyTasks returned error: %v", err)
	}
	if len(res.Stages) != 2 || len(res.Projects) != 1 {
		t.Fatalf("expected 2 stages in 1 project, got %d/%d", len(res.Stages), len(res.Projects))
	}
	if res.Stats.Pending != 1 || res.Stats.InProgress != 1 || res.Stats.UnderReview != 0 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
}

func TestInvolvementService_GetProject(t *testing.T) {
	store := newMemStore()
	seedPortfolio(store)
	svc := NewInvolvementService(stubProjectRepo{memStore: store}, stubStageRepo{store}, 1, discardLogger)

	p, err := svc.GetProject(context.Background(), "p-3")
	if err != nil {
		t.Fatalf("GetProject returned error: %v", err)
	}
	if !p.StagesLoaded || len(p.Stages) != 2 {
		t.Fatalf("expected 2 hydrated stages, got %+v", p.Stages)
	}
	if _, err := svc.GetProject(context.Background(), "nope"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}
