package router

import (
	"time"

	"devcatalyst/portal/internal/handlers"
	"devcatalyst/portal/internal/middleware"
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/monitoring"
	"devcatalyst/portal/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Auth    services.AuthService
	Tasks   services.TaskService
	Doubts  services.DoubtService
	Users   services.UserService
	Reports services.ReportService
	Export  services.ExportService
	Admin   services.AdminService
}

type Options struct {
	AllowedOrigins []string
	// RateLimit is nil when rate limiting is disabled.
	RateLimit *middleware.RateLimitConfig
	Monitor   *monitoring.Monitor
	Logger    logrus.FieldLogger
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", "X-Row-Count", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// New builds the HTTP surface. Every /api/v1 route except auth requires a
// bearer token; role checks run in middleware and again in the services.
func New(svc Services, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor(log)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RecoveryWithLog(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(monitor.Middleware())
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	}
	if opts.RateLimit != nil {
		r.Use(middleware.NewRateLimiter(*opts.RateLimit).Middleware())
	}

	r.GET("/health", monitor.HealthHandler())
	r.GET("/ready", monitor.ReadinessHandler())
	r.GET("/live", monitor.LivenessHandler())

	authHandler := handlers.NewAuthHandler(svc.Auth, log)
	taskHandler := handlers.NewTaskHandler(svc.Tasks, log)
	doubtHandler := handlers.NewDoubtHandler(svc.Doubts, log)
	userHandler := handlers.NewUserHandler(svc.Users, log)
	reportHandler := handlers.NewReportHandler(svc.Reports, log)
	exportHandler := handlers.NewExportHandler(svc.Export, log)
	adminHandler := handlers.NewAdminHandler(svc.Admin, log)

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	api := v1.Group("")
	api.Use(middleware.Authenticate(svc.Auth))

	api.GET("/auth/me", authHandler.Me)
	api.GET("/metrics", middleware.AdminOnly(), monitor.MetricsHandler())

	tasks := api.Group("/tasks")
	{
		tasks.GET("", middleware.RequireOperation(models.OpReadTasks), taskHandler.GetTasks)
		tasks.GET("/pending-verification", middleware.RequireOperation(models.OpVerify), taskHandler.PendingVerification)
		tasks.GET("/:id", middleware.RequireOperation(models.OpReadTasks), taskHandler.GetTaskByID)
		tasks.POST("", middleware.RequireOperation(models.OpAssign), taskHandler.AssignTask)
		tasks.POST("/:id/submit", middleware.RequireOperation(models.OpSubmit), taskHandler.SubmitTask)
		tasks.POST("/:id/verify", middleware.RequireOperation(models.OpVerify), taskHandler.VerifyTask)
	}

	doubts := api.Group("/doubts")
	{
		doubts.GET("", middleware.RequireOperation(models.OpReadDoubts), doubtHandler.GetDoubts)
		doubts.GET("/:id", middleware.RequireOperation(models.OpReadDoubts), doubtHandler.GetDoubtByID)
		doubts.POST("", middleware.RequireOperation(models.OpRaise), doubtHandler.RaiseDoubt)
		doubts.POST("/:id/replies", middleware.RequireOperation(models.OpReply), doubtHandler.ReplyToDoubt)
		doubts.POST("/:id/resolve", middleware.RequireOperation(models.OpResolve), doubtHandler.ResolveDoubt)
	}

	users := api.Group("/users", middleware.RequireOperation(models.OpReadUsers))
	{
		users.GET("", userHandler.GetUsers)
		users.GET("/:name", userHandler.GetUserByName)
	}

	reports := api.Group("/reports", middleware.RequireOperation(models.OpReadReports))
	{
		reports.GET("/summary", reportHandler.Summary)
		reports.GET("/progress", reportHandler.Progress)
	}

	api.GET("/export/:table", middleware.RequireOperation(models.OpExport), exportHandler.Export)

	admin := api.Group("/admin")
	{
		admin.POST("/clear/:table", middleware.RequireOperation(models.OpClear), adminHandler.ClearTable)
		admin.POST("/reset", middleware.RequireOperation(models.OpReset), adminHandler.ResetAll)
	}

	return r
}
