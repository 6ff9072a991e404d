package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

var _ ports.NotificationService = (*NotificationService)(nil)
var _ ports.WorkflowEventHandler = (*NotificationService)(nil)

type stubDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newStubDedup() *stubDedup { return &stubDedup{seen: make(map[string]bool)} }

func dedupKey(subjectID, status string, ts time.Time) string {
	return subjectID + "|" + status + "|" + ts.String()
}

func (d *stubDedup) IsDuplicate(_ context.Context, subjectID, status string, ts time.Time) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[dedupKey(subjectID, status, ts)], nil
}

func (d *stubDedup) Mark(_ context.Context, subjectID, status string, ts time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[dedupKey(subjectID, status, ts)] = true
	return nil
}

type stubUnreadPublisher struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (p *stubUnreadPublisher) PublishUnread(_ context.Context, userID string, count int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts == nil {
		p.counts = make(map[string]int64)
	}
	p.counts[userID] = count
	return nil
}

type chanFeed struct {
	ch  chan int64
	err error
}

func (f *chanFeed) Subscribe(context.Context, string) (<-chan int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func newNotificationFixture(t *testing.T) (*memStore, *stubNotificationRepo, *NotificationService, *stubUnreadPublisher, *chanFeed) {
	t.Helper()
	store := newMemStore()
	store.addProject(domain.Project{ID: "p-1", SupervisorID: supervisorID})
	store.addStage(stageWithItems("s-1", domain.StageInProgress, 1))
	repo := &stubNotificationRepo{memStore: store}
	pub := &stubUnreadPublisher{}
	feed := &chanFeed{ch: make(chan int64, 4)}
	svc := NewNotificationService(repo, stubStageRepo{store}, stubProjectRepo{memStore: store}, newStubDedup(), pub, feed, discardLogger)
	return store, repo, svc, pub, feed
}

func TestNotificationService_HandleWorkflowEvent_Recipients(t *testing.T) {
	_, _, svc, pub, _ := newNotificationFixture(t)
	ev := domain.WorkflowEvent{
		Kind:       domain.WorkflowDeliverableSubmitted,
		StageID:    "s-1",
		SubjectID:  "d-1",
		ActorID:    executorID,
		Status:     string(domain.DeliverableUnderReview),
		OccurredAt: fixedNow,
	}

	if err := svc.HandleWorkflowEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleWorkflowEvent returned error: %v", err)
	}

	for _, user := range []string{teamMemberID, supervisorID} {
		res, err := svc.Unread(context.Background(), user)
		if err != nil {
			t.Fatalf("Unread(%s): %v", user, err)
		}
		if res.Count != 1 || len(res.Items) != 1 || res.Items[0].ProjectID != "p-1" {
			t.Fatalf("%s: unexpected unread %+v", user, res)
		}
		if pub.counts[user] != 1 {
			t.Fatalf("%s: expected published count 1, got %d", user, pub.counts[user])
		}
	}
	if res, _ := svc.Unread(context.Background(), executorID); res.Count != 0 {
		t.Fatalf("actor must not be notified, got %d", res.Count)
	}
}

func TestNotificationService_HandleWorkflowEvent_Dedup(t *testing.T) {
	_, repo, svc, _, _ := newNotificationFixture(t)
	ev := domain.WorkflowEvent{Kind: domain.WorkflowObjectiveReviewed, StageID: "s-1", SubjectID: "c-1", ActorID: supervisorID, Status: "APPROVED", OccurredAt: fixedNow}

	for i := 0; i < 2; i++ {
		if err := svc.HandleWorkflowEvent(context.Background(), ev); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if n, _ := repo.CountUnread(context.Background(), executorID); n != 1 {
		t.Fatalf("expected one notification after duplicate delivery, got %d", n)
	}
}

func TestNotificationService_HandleWorkflowEvent_RedeliveryAfterFailure(t *testing.T) {
	_, repo, svc, _, _ := newNotificationFixture(t)
	repo.createErr = map[string]error{supervisorID: errBackend}
	ev := domain.WorkflowEvent{Kind: domain.WorkflowDeliverableSubmitted, StageID: "s-1", SubjectID: "d-9", ActorID: executorID, Status: string(domain.DeliverableUnderReview), OccurredAt: fixedNow}

	if err := svc.HandleWorkflowEvent(context.Background(), ev); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}

	repo.createErr = nil
	if err := svc.HandleWorkflowEvent(context.Background(), ev); err != nil {
		t.Fatalf("redelivery returned error: %v", err)
	}
	if n, _ := repo.CountUnread(context.Background(), supervisorID); n != 1 {
		t.Fatalf("expected supervisor notified on redelivery, got %d", n)
	}

	if err := svc.HandleWorkflowEvent(context.Background(), ev); err != nil {
		t.Fatalf("third delivery returned error: %v", err)
	}
	if n, _ := repo.CountUnread(context.Background(), supervisorID); n != 1 {
		t.Fatalf("completed event must be deduplicated, got %d", n)
	}
}

func TestNotificationService_HandleWorkflowEvent_UnknownStage(t *testing.T) {
	_, _, svc, _, _ := newNotificationFixture(t)

	err := svc.HandleWorkflowEvent(context.Background(), domain.WorkflowEvent{StageID: "missing", SubjectID: "x"})
	if !errors.Is(err, domain.ErrStageNotFound) {
		t.Fatalf("expected ErrStageNotFound, got %v", err)
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	_, repo, svc, pub, _ := newNotificationFixture(t)
	_ = repo.Create(context.Background(), &domain.Notification{ID: "n-1", UserID: executorID})
	_ = repo.Create(context.Background(), &domain.Notification{ID: "n-2", UserID: executorID})

	if err := svc.MarkRead(context.Background(), executorID, "n-1"); err != nil {
		t.Fatalf("MarkRead returned error: %v", err)
	}
	if pub.counts[executorID] != 1 {
		t.Fatalf("expected count 1 published, got %d", pub.counts[executorID])
	}
	if err := svc.MarkRead(context.Background(), teamMemberID, "n-2"); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("expected other user's notification to be hidden, got %v", err)
	}
}

func TestNotificationService_Subscribe(t *testing.T) {
	_, repo, svc, _, feed := newNotificationFixture(t)
	_ = repo.Create(context.Background(), &domain.Notification{ID: "n-1", UserID: executorID})
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := svc.Subscribe(ctx, executorID)
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	if got := <-ch; got != 1 {
		t.Fatalf("expected initial count 1, got %d", got)
	}

	feed.ch <- 1 // unchanged, suppressed
	feed.ch <- 3
	select {
	case got := <-ch:
		if got != 3 {
			t.Fatalf("expected 3, got %d", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to close after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
