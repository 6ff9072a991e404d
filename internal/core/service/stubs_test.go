package service

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory store shared by the stub repositories
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

var errBackend = errors.New("backend unavailable")

type memStore struct {
	mu            sync.Mutex
	projects      map[string]domain.Project
	stages        map[string]domain.Stage
	submissions   map[string]domain.ChecklistSubmission
	deliverables  map[string]domain.Deliverable
	notifications map[string]domain.Notification
	seq           int64 // insertion counter, used to order records stably
	order         map[string]int64

	updateStatusErr error            // if set, UpdateStatus returns this error
	hydrateErr      map[string]error // per-project ListByProject failures
	hydrated        []string         // project ids passed to ListByProject
	replayTx        bool             // run every transaction callback twice, like a driver retry
	txCalls         int
}

func newMemStore() *memStore {
	return &memStore{
		projects:      make(map[string]domain.Project),
		stages:        make(map[string]domain.Stage),
		submissions:   make(map[string]domain.ChecklistSubmission),
		deliverables:  make(map[string]domain.Deliverable),
		notifications: make(map[string]domain.Notification),
		order:         make(map[string]int64),
		hydrateErr:    make(map[string]error),
	}
}

func (m *memStore) touch(id string) {
	if _, ok := m.order[id]; ok {
		return
	}
	m.seq++
	m.order[id] = m.seq
}

func (m *memStore) addStage(st domain.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.Checklist = append([]domain.ChecklistItem(nil), st.Checklist...)
	m.stages[st.ID] = st
}

func (m *memStore) addProject(p domain.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
}

func (m *memStore) stage(id string) domain.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stages[id]
}

// WithinTransaction snapshots the store and restores it if fn fails.
func (m *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.txCalls++
	stages := maps.Clone(m.stages)
	for id, st := range stages {
		st.Checklist = append([]domain.ChecklistItem(nil), st.Checklist...)
		stages[id] = st
	}
	subs := maps.Clone(m.submissions)
	dels := maps.Clone(m.deliverables)
	m.mu.Unlock()

	restore := func() {
		m.mu.Lock()
		m.stages, m.submissions, m.deliverables = maps.Clone(stages), maps.Clone(subs), maps.Clone(dels)
		m.mu.Unlock()
	}
	if err := fn(ctx); err != nil {
		restore()
		return err
	}
	if m.replayTx {
		// The first attempt is discarded as if its commit hit a transient error.
		restore()
		if err := fn(ctx); err != nil {
			restore()
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Stage / project repositories
// ---------------------------------------------------------------------------

type stubStageRepo struct{ *memStore }

func (r stubStageRepo) FindByID(_ context.Context, id string) (*domain.Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stages[id]
	if !ok {
		return nil, domain.ErrStageNotFound
	}
	st.Checklist = append([]domain.ChecklistItem(nil), st.Checklist...)
	return &st, nil
}

func (r stubStageRepo) ListByProject(_ context.Context, projectID string) ([]domain.Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hydrated = append(r.hydrated, projectID)
	if err := r.hydrateErr[projectID]; err != nil {
		return nil, err
	}
	var out []domain.Stage
	for _, st := range r.stages {
		if st.ProjectID == projectID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubStageRepo) ListByMember(_ context.Context, userID string) ([]domain.Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Stage
	for _, st := range r.stages {
		if st.MayAct(userID) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubStageRepo) UpdateStatus(_ context.Context, id string, from, to domain.StageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	if !from.CanTransitionTo(to) {
		return domain.ErrInvalidTransition
	}
	st, ok := r.stages[id]
	if !ok {
		return domain.ErrStageNotFound
	}
	if st.Status != from {
		return domain.ErrInvalidTransition
	}
	st.Status = to
	r.stages[id] = st
	return nil
}

func (r stubStageRepo) SetItemMarked(_ context.Context, id string, index int, marked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stages[id]
	if !ok {
		return domain.ErrStageNotFound
	}
	st.Checklist = append([]domain.ChecklistItem(nil), st.Checklist...)
	st.Checklist[index].Marked = marked
	r.stages[id] = st
	return nil
}

type stubProjectRepo struct {
	*memStore
	listErr error
}

func (r stubProjectRepo) List(_ context.Context) ([]*domain.Project, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubProjectRepo) FindByID(_ context.Context, id string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return &p, nil
}

// ---------------------------------------------------------------------------
// Submission / deliverable repositories
// ---------------------------------------------------------------------------

type stubSubmissionRepo struct{ *memStore }

func (r stubSubmissionRepo) Create(_ context.Context, s *domain.ChecklistSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch(s.ID)
	r.submissions[s.ID] = *s
	return nil
}

func (r stubSubmissionRepo) FindByID(_ context.Context, id string) (*domain.ChecklistSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	return &s, nil
}

func (r stubSubmissionRepo) Latest(_ context.Context, stageID string, index int) (*domain.ChecklistSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.ChecklistSubmission
	for _, s := range r.submissions {
		if s.StageID != stageID || s.ChecklistIndex != index {
			continue
		}
		if latest == nil || r.order[s.ID] > r.order[latest.ID] {
			s := s
			latest = &s
		}
	}
	return latest, nil
}

func (r stubSubmissionRepo) ListByStage(_ context.Context, stageID string) ([]domain.ChecklistSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChecklistSubmission
	for _, s := range r.submissions {
		if s.StageID == stageID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r stubSubmissionRepo) UpdateReview(_ context.Context, s *domain.ChecklistSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.submissions[s.ID]; !ok {
		return domain.ErrSubmissionNotFound
	}
	r.submissions[s.ID] = *s
	return nil
}

type stubDeliverableRepo struct{ *memStore }

func (r stubDeliverableRepo) Create(_ context.Context, d *domain.Deliverable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch(d.ID)
	r.deliverables[d.ID] = *d
	return nil
}

func (r stubDeliverableRepo) FindByID(_ context.Context, id string) (*domain.Deliverable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliverables[id]
	if !ok {
		return nil, domain.ErrDeliverableNotFound
	}
	return &d, nil
}

func (r stubDeliverableRepo) Latest(_ context.Context, stageID string) (*domain.Deliverable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Deliverable
	for _, d := range r.deliverables {
		if d.StageID != stageID {
			continue
		}
		if latest == nil || r.order[d.ID] > r.order[latest.ID] {
			d := d
			latest = &d
		}
	}
	return latest, nil
}

func (r stubDeliverableRepo) ListByStage(_ context.Context, stageID string) ([]domain.Deliverable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Deliverable
	for _, d := range r.deliverables {
		if d.StageID == stageID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r stubDeliverableRepo) UpdateContent(_ context.Context, d *domain.Deliverable) error {
	return r.put(d)
}

func (r stubDeliverableRepo) UpdateReview(_ context.Context, d *domain.Deliverable) error {
	return r.put(d)
}

func (r stubDeliverableRepo) put(d *domain.Deliverable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deliverables[d.ID]; !ok {
		return domain.ErrDeliverableNotFound
	}
	r.deliverables[d.ID] = *d
	return nil
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

type stubNotificationRepo struct {
	*memStore
	countErr  error
	createErr map[string]error // per-recipient Create failures
}

func (r *stubNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.createErr[n.UserID]; err != nil {
		return err
	}
	r.touch(n.ID)
	r.notifications[n.ID] = *n
	return nil
}

func (r *stubNotificationRepo) ListUnread(_ context.Context, userID string, limit int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] > r.order[out[j].ID] })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, x := range r.notifications {
		if x.UserID == userID && !x.Read {
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotificationNotFound
	}
	n.Read = true
	r.notifications[id] = n
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.WorkflowEvent
}

func (p *recordingPublisher) Publish(ev domain.WorkflowEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) kinds() []domain.WorkflowEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.WorkflowEventKind, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

const (
	executorID   = "u-exec"
	teamMemberID = "u-team"
	supervisorID = "u-super"
	outsiderID   = "u-out"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func sessionFor(userID, role string) *domain.Session {
	return domain.NewSession(domain.User{
		ID:     userID,
		Name:   userID,
		Active: true,
		Role:   domain.LegacyRole(role).Canonical(),
	}, "tok", "jti-"+userID, fixedNow.Add(time.Hour))
}

func stageWithItems(id string, status domain.StageStatus, items int) domain.Stage {
	checklist := make([]domain.ChecklistItem, items)
	for i := range checklist {
		checklist[i] = domain.ChecklistItem{Text: "item"}
	}
	return domain.Stage{
		ID:         id,
		ProjectID:  "p-1",
		Name:       "Fundação",
		Status:     status,
		ExecutorID: executorID,
		TeamIDs:    []string{teamMemberID},
		Checklist:  checklist,
	}
}
