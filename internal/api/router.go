package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/gestaoprojetos/workflow-system/docs"
	"github.com/gestaoprojetos/workflow-system/internal/api/handler"
	"github.com/gestaoprojetos/workflow-system/internal/api/middleware"
	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

// Services groups the core services the HTTP layer depends on.
type Services struct {
	Auth          ports.AuthService
	Directory     ports.DirectoryService
	Involvement   ports.InvolvementService
	Stages        ports.StageService
	Checklist     ports.ChecklistService
	Deliverables  ports.DeliverableService
	Notifications ports.NotificationService
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, checks map[string]handler.DependencyCheck, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("workflow_http"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	directoryHandler := handler.NewDirectoryHandler(svc.Directory)
	projectHandler := handler.NewProjectHandler(svc.Involvement)
	taskHandler := handler.NewTaskHandler(svc.Involvement, svc.Stages, svc.Checklist, svc.Deliverables)
	reviewHandler := handler.NewReviewHandler(svc.Checklist, svc.Deliverables)
	notificationHandler := handler.NewNotificationHandler(svc.Notifications)
	healthHandler := handler.NewHealthHandler(checks)

	requireAuth := middleware.Auth(svc.Auth)
	can := middleware.RequireCapability

	// --- Probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	authGroup := e.Group("/auth", requireAuth)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/session", authHandler.Session)

	// --- Projects & dashboard ---
	e.GET("/dashboard", projectHandler.Dashboard, requireAuth)
	projects := e.Group("/projects", requireAuth, can(domain.CapabilityProjects))
	projects.GET("", projectHandler.List)
	projects.GET("/:id", projectHandler.Get)

	// --- Tasks (executor side of the workflow) ---
	tasks := e.Group("/tasks", requireAuth, can(domain.CapabilityTasks))
	tasks.GET("/my", taskHandler.MyTasks)
	tasks.GET("/:stageId", taskHandler.Detail)
	tasks.PUT("/:stageId/checklist/:index/mark", taskHandler.MarkItem)
	tasks.POST("/:stageId/checklist/:index/submit", taskHandler.SubmitObjective)
	tasks.POST("/:stageId/deliver", taskHandler.SubmitDeliverable)
	tasks.PATCH("/:stageId/deliver/:deliverableId", taskHandler.EditDeliverable)

	// --- Reviews ---
	reviews := e.Group("/reviews", requireAuth, can(domain.CapabilityReviews))
	reviews.GET("/checklist/:submissionId", reviewHandler.GetSubmission)
	reviews.POST("/checklist/:submissionId", reviewHandler.ReviewObjective)
	reviews.POST("/deliverables/:deliverableId", reviewHandler.ReviewDeliverable)

	// --- Directory ---
	// Options feed selection inputs on several screens, so any session may read them.
	e.GET("/users/options", directoryHandler.UserOptions, requireAuth)
	users := e.Group("/users", requireAuth, can(domain.CapabilityUsers))
	users.GET("", directoryHandler.ListUsers)
	users.POST("", authHandler.Register)
	e.GET("/cargos", directoryHandler.ListRoles, requireAuth, can(domain.CapabilityRoles))

	// --- Notifications ---
	notifications := e.Group("/notifications", requireAuth)
	notifications.GET("", notificationHandler.Unread)
	notifications.GET("/stream", notificationHandler.Stream)
	notifications.POST("/:id/read", notificationHandler.MarkRead)

	return e
}
