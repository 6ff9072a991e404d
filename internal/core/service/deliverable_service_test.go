package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

func newDeliverableFixture(t *testing.T, st domain.Stage) (*memStore, ports.DeliverableService, *recordingPublisher) {
	t.Helper()
	store := newMemStore()
	store.addStage(st)
	pub := &recordingPublisher{}
	svc := NewDeliverableService(stubStageRepo{store}, stubDeliverableRepo{store}, store, pub, 0, discardLogger)
	return store, svc, pub
}

func TestDeliverableService_Submit_RequiresMarkedItem(t *testing.T) {
	store := newMemStore()
	store.addStage(stageWithItems("s-1", domain.StagePending, 3))
	checklist := NewChecklistService(stubStageRepo{store}, stubSubmissionRepo{store}, store, nil, 0, discardLogger)
	deliverables := NewDeliverableService(stubStageRepo{store}, stubDeliverableRepo{store}, store, nil, 0, discardLogger)
	sess := sessionFor(executorID, domain.RoleExecutor)
	ctx := context.Background()
	in := ports.SubmitDeliverableInput{StageID: "s-1", Description: "Etapa concluída"}

	if _, err := deliverables.Submit(ctx, sess, in); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected rejection with 0 of 3 items marked, got %v", err)
	}
	if len(store.deliverables) != 0 {
		t.Fatalf("expected no deliverable stored")
	}

	if _, err := checklist.MarkItem(ctx, sess, ports.MarkItemInput{StageID: "s-1", Index: 0, Marked: true}); err != nil {
		t.Fatalf("MarkItem failed: %v", err)
	}
	d, err := deliverables.Submit(ctx, sess, in)
	if err != nil {
		t.Fatalf("expected acceptance with 1 of 3 items marked, got %v", err)
	}
	if d.Status != domain.DeliverableUnderReview {
		t.Fatalf("expected UNDER_REVIEW deliverable, got %s", d.Status)
	}
	if st := store.stage("s-1"); st.Status != domain.StageUnderReview {
		t.Fatalf("expected stage UNDER_REVIEW, got %s", st.Status)
	}
}

func TestDeliverableService_Submit_StageStatusGate(t *testing.T) {
	tests := []struct {
		status domain.StageStatus
		ok     bool
	}{
		{domain.StagePending, true},
		{domain.StageInProgress, true},
		{domain.StageRejected, true},
		{domain.StageUnderReview, false},
		{domain.StageApproved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			st := stageWithItems("s-1", tt.status, 2)
			st.Checklist[1].Marked = true
			_, svc, _ := newDeliverableFixture(t, st)

			_, err := svc.Submit(context.Background(), sessionFor(teamMemberID, domain.RoleExecutor), ports.SubmitDeliverableInput{StageID: "s-1", Description: "entrega final"})
			if tt.ok && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestDeliverableService_Submit_ValidatesInput(t *testing.T) {
	st := stageWithItems("s-1", domain.StageInProgress, 1)
	st.Checklist[0].Marked = true
	store, svc, _ := newDeliverableFixture(t, st)
	sess := sessionFor(executorID, domain.RoleExecutor)

	if _, err := svc.Submit(context.Background(), sess, ports.SubmitDeliverableInput{StageID: "s-1", Description: " ok "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected short description to fail, got %v", err)
	}
	bad := &ports.AttachmentInput{Name: "doc.pdf", Data: dataURI("application/pdf", pdfBytes)}
	if _, err := svc.Submit(context.Background(), sess, ports.SubmitDeliverableInput{StageID: "s-1", Description: "entrega final", Image: bad}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected pdf image to fail, got %v", err)
	}
	if len(store.deliverables) != 0 || store.stage("s-1").Status != domain.StageInProgress {
		t.Fatalf("expected no state change")
	}
}

func TestDeliverableService_Submit_Forbidden(t *testing.T) {
	st := stageWithItems("s-1", domain.StageInProgress, 1)
	st.Checklist[0].Marked = true
	_, svc, _ := newDeliverableFixture(t, st)

	_, err := svc.Submit(context.Background(), sessionFor(supervisorID, domain.RoleSupervisor), ports.SubmitDeliverableInput{StageID: "s-1", Description: "entrega final"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDeliverableService_Submit_TransactionRollback(t *testing.T) {
	st := stageWithItems("s-1", domain.StageInProgress, 1)
	st.Checklist[0].Marked = true
	store, svc, pub := newDeliverableFixture(t, st)
	store.updateStatusErr = errBackend

	if _, err := svc.Submit(context.Background(), sessionFor(executorID, domain.RoleExecutor), ports.SubmitDeliverableInput{StageID: "s-1", Description: "entrega final"}); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(store.deliverables) != 0 {
		t.Fatalf("expected deliverable to be rolled back")
	}
	if len(pub.kinds()) != 0 {
		t.Fatalf("expected no events")
	}
}

func TestDeliverableService_ReviewCycle(t *testing.T) {
	st := stageWithItems("s-1", domain.StageInProgress, 2)
	st.Checklist[0].Marked = true
	store, svc, pub := newDeliverableFixture(t, st)
	exec := sessionFor(executorID, domain.RoleExecutor)
	reviewer := sessionFor(supervisorID, domain.RoleSupervisor)
	ctx := context.Background()
	in := ports.SubmitDeliverableInput{StageID: "s-1", Description: "entrega final"}

	first, err := svc.Submit(ctx, exec, in)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Review(ctx, reviewer, ports.ReviewInput{SubjectID: first.ID, Decision: "REJECTED", Comment: "incompleto"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if got := store.stage("s-1").Status; got != domain.StageRejected {
		t.Fatalf("expected stage REJECTED, got %s", got)
	}

	second, err := svc.Submit(ctx, exec, in)
	if err != nil {
		t.Fatalf("expected resubmission after rejection, got %v", err)
	}
	if _, err := svc.Review(ctx, reviewer, ports.ReviewInput{SubjectID: second.ID, Decision: "APPROVED"}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got := store.stage("s-1").Status; got != domain.StageApproved {
		t.Fatalf("expected stage APPROVED, got %s", got)
	}

	if _, err := svc.Submit(ctx, exec, in); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected approval to be terminal, got %v", err)
	}
	if _, err := svc.Review(ctx, reviewer, ports.ReviewInput{SubjectID: second.ID, Decision: "REJECTED"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected reviewed deliverable to be final, got %v", err)
	}

	want := []domain.WorkflowEventKind{
		domain.WorkflowDeliverableSubmitted, domain.WorkflowDeliverableReviewed,
		domain.WorkflowDeliverableSubmitted, domain.WorkflowDeliverableReviewed,
	}
	got := pub.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDeliverableService_Review_RequiresCapability(t *testing.T) {
	st := stageWithItems("s-1", domain.StageInProgress, 1)
	st.Checklist[0].Marked = true
	_, svc, _ := newDeliverableFixture(t, st)
	d, _ := svc.Submit(context.Background(), sessionFor(executorID, domain.RoleExecutor), ports.SubmitDeliverableInput{StageID: "s-1", Description: "entrega final"})

	_, err := svc.Review(context.Background(), sessionFor("u-cot", domain.RoleCotador), ports.ReviewInput{SubjectID: d.ID, Decision: "APPROVED"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDeliverableService_Edit_InPlace(t *testing.T) {
	st := stageWithItems("s-1", domain.StageInProgress, 1)
	st.Checklist[0].Marked = true
	store, svc, _ := newDeliverableFixture(t, st)
	exec := sessionFor(executorID, domain.RoleExecutor)
	ctx := context.Background()

	d, err := svc.Submit(ctx, exec, ports.SubmitDeliverableInput{
		StageID:     "s-1",
		Description: "entrega final",
		Image:       &ports.AttachmentInput{Name: "a.png", Data: dataURI("image/png", pngBytes)},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	edited, err := svc.Edit(ctx, sessionFor(teamMemberID, domain.RoleExecutor), ports.EditDeliverableInput{
		StageID:       "s-1",
		DeliverableID: d.ID,
		Description:   "entrega revisada",
		RemoveImage:   true,
	})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if edited.ID != d.ID || edited.Description != "entrega revisada" || edited.Image != nil {
		t.Fatalf("unexpected edited deliverable: %+v", edited)
	}
	if len(store.deliverables) != 1 {
		t.Fatalf("expected edit in place, got %d records", len(store.deliverables))
	}
	if store.stage("s-1").Status != domain.StageUnderReview {
		t.Fatalf("edit must not change the stage status")
	}
}

func TestDeliverableService_Edit_Rules(t *testing.T) {
	st := stageWithItems("s-1", domain.StageInProgress, 1)
	st.Checklist[0].Marked = true
	_, svc, _ := newDeliverableFixture(t, st)
	exec := sessionFor(executorID, domain.RoleExecutor)
	ctx := context.Background()
	d, _ := svc.Submit(ctx, exec, ports.SubmitDeliverableInput{StageID: "s-1", Description: "entrega final"})

	edit := ports.EditDeliverableInput{StageID: "s-1", DeliverableID: d.ID, Description: "entrega revisada"}
	if _, err := svc.Edit(ctx, sessionFor(outsiderID, domain.RoleDiretor), edit); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	missing := edit
	missing.DeliverableID = "nope"
	if _, err := svc.Edit(ctx, exec, missing); !errors.Is(err, domain.ErrDeliverableNotFound) {
		t.Fatalf("expected ErrDeliverableNotFound, got %v", err)
	}

	if _, err := svc.Review(ctx, sessionFor(supervisorID, domain.RoleSupervisor), ports.ReviewInput{SubjectID: d.ID, Decision: "APPROVED"}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := svc.Edit(ctx, exec, edit); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected approved deliverable to be read-only, got %v", err)
	}
}
