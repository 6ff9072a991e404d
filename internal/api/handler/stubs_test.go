package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gestaoprojetos/workflow-system/internal/api/middleware"
	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

var testExpiry = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func testSession(userID, roleName string) *domain.Session {
	u := domain.User{ID: userID, Name: "Test " + userID, Email: userID + "@example.com", Active: true, Role: domain.Role{Name: roleName, Active: true}}
	return domain.NewSession(u, "token-"+userID, "jti-"+userID, testExpiry)
}

// newContext builds an echo context for a JSON request. A nil session leaves
// the request unauthenticated.
func newContext(method, target, body string, session *domain.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if session != nil {
		c.Set(middleware.SessionKey, session)
	}
	return c, rec
}

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*domain.Session, error)
	logoutFn   func(ctx context.Context, s *domain.Session) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, session *domain.Session) error {
	return s.logoutFn(ctx, session)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrUnauthenticated
}

type stubChecklistService struct {
	markFn   func(ctx context.Context, s *domain.Session, in ports.MarkItemInput) (*domain.Stage, error)
	submitFn func(ctx context.Context, s *domain.Session, in ports.SubmitObjectiveInput) (*domain.ChecklistSubmission, error)
	getFn    func(ctx context.Context, id string) (*domain.ChecklistSubmission, error)
	reviewFn func(ctx context.Context, s *domain.Session, in ports.ReviewInput) (*domain.ChecklistSubmission, error)
}

func (s *stubChecklistService) MarkItem(ctx context.Context, session *domain.Session, in ports.MarkItemInput) (*domain.Stage, error) {
	return s.markFn(ctx, session, in)
}

func (s *stubChecklistService) SubmitObjective(ctx context.Context, session *domain.Session, in ports.SubmitObjectiveInput) (*domain.ChecklistSubmission, error) {
	return s.submitFn(ctx, session, in)
}

func (s *stubChecklistService) GetSubmission(ctx context.Context, id string) (*domain.ChecklistSubmission, error) {
	return s.getFn(ctx, id)
}

func (s *stubChecklistService) ReviewObjective(ctx context.Context, session *domain.Session, in ports.ReviewInput) (*domain.ChecklistSubmission, error) {
	return s.reviewFn(ctx, session, in)
}

type stubDeliverableService struct {
	submitFn func(ctx context.Context, s *domain.Session, in ports.SubmitDeliverableInput) (*domain.Deliverable, error)
	editFn   func(ctx context.Context, s *domain.Session, in ports.EditDeliverableInput) (*domain.Deliverable, error)
	reviewFn func(ctx context.Context, s *domain.Session, in ports.ReviewInput) (*domain.Deliverable, error)
}

func (s *stubDeliverableService) Submit(ctx context.Context, session *domain.Session, in ports.SubmitDeliverableInput) (*domain.Deliverable, error) {
	return s.submitFn(ctx, session, in)
}

func (s *stubDeliverableService) Edit(ctx context.Context, session *domain.Session, in ports.EditDeliverableInput) (*domain.Deliverable, error) {
	return s.editFn(ctx, session, in)
}

func (s *stubDeliverableService) Review(ctx context.Context, session *domain.Session, in ports.ReviewInput) (*domain.Deliverable, error) {
	return s.reviewFn(ctx, session, in)
}

type stubStageService struct {
	detailFn func(ctx context.Context, s *domain.Session, stageID string) (*ports.StageDetail, error)
}

func (s *stubStageService) GetDetail(ctx context.Context, session *domain.Session, stageID string) (*ports.StageDetail, error) {
	return s.detailFn(ctx, session, stageID)
}

type stubInvolvementService struct {
	listFn      func(ctx context.Context) ([]*domain.Project, error)
	getFn       func(ctx context.Context, id string) (*domain.Project, error)
	involvedFn  func(ctx context.Context, userID string) ([]*domain.Project, error)
	myTasksFn   func(ctx context.Context, userID string) (*ports.MyTasksResult, error)
	dashboardFn func(ctx context.Context, userID string) (*ports.DashboardResult, error)
}

func (s *stubInvolvementService) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	return s.listFn(ctx)
}

func (s *stubInvolvementService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return s.getFn(ctx, id)
}

func (s *stubInvolvementService) InvolvedProjects(ctx context.Context, userID string) ([]*domain.Project, error) {
	return s.involvedFn(ctx, userID)
}

func (s *stubInvolvementService) MyTasks(ctx context.Context, userID string) (*ports.MyTasksResult, error) {
	return s.myTasksFn(ctx, userID)
}

func (s *stubInvolvementService) Dashboard(ctx context.Context, userID string) (*ports.DashboardResult, error) {
	return s.dashboardFn(ctx, userID)
}

type stubDirectoryService struct {
	users   []domain.User
	options []domain.UserOption
	roles   []domain.Role
	err     error
}

func (s *stubDirectoryService) ListUsers(context.Context) ([]domain.User, error) {
	return s.users, s.err
}

func (s *stubDirectoryService) UserOptions(context.Context) ([]domain.UserOption, error) {
	return s.options, s.err
}

func (s *stubDirectoryService) ListRoles(context.Context) ([]domain.Role, error) {
	return s.roles, s.err
}

type stubNotificationService struct {
	unreadFn    func(ctx context.Context, userID string) (*ports.UnreadResult, error)
	markReadFn  func(ctx context.Context, userID, id string) error
	subscribeFn func(ctx context.Context, userID string) (<-chan int64, error)
}

func (s *stubNotificationService) Unread(ctx context.Context, userID string) (*ports.UnreadResult, error) {
	return s.unreadFn(ctx, userID)
}

func (s *stubNotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.markReadFn(ctx, userID, id)
}

func (s *stubNotificationService) Subscribe(ctx context.Context, userID string) (<-chan int64, error) {
	return s.subscribeFn(ctx, userID)
}
