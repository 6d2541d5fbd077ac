package api

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/classroll/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/classroll/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/classroll/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/classroll/internal/config"
	"github.com/saturnino-fabrica-de-software/classroll/internal/database"
	"github.com/saturnino-fabrica-de-software/classroll/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/classroll/internal/ws"
)

type Dependencies struct {
	Config     *config.Config
	Auth       handler.AuthService
	Subjects   handler.SubjectService
	Students   handler.StudentService
	Attendance handler.AttendanceService
	Viewer     handler.SubjectViewer
	Tokens     middleware.TokenValidator
	Hub        *ws.Hub
	// Counter backs the recognition rate limit
	Counter ratelimit.Counter
	Checks  map[string]database.Pinger
}

type Router struct {
	app           *fiber.App
	logger        *slog.Logger
	deps          *Dependencies
	cancelHub     context.CancelFunc
	cancelCounter context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Classroll API",
		BodyLimit:    12 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	cfg := r.config()

	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(cfg.CORSOrigins),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	var checks map[string]database.Pinger
	if r.deps != nil {
		checks = r.deps.Checks
	}
	healthHandler := handler.NewHealthHandler(checks)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	api := r.app.Group("/api")
	api.Get("/health", healthHandler.Health)

	// Only configure authenticated routes if dependencies were provided
	if r.deps == nil {
		return
	}

	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)
	}

	// The in-memory counter sweeps expired windows in the background
	if runner, ok := r.deps.Counter.(interface{ Run(context.Context) }); ok {
		counterCtx, counterCancel := context.WithCancel(context.Background())
		r.cancelCounter = counterCancel
		go runner.Run(counterCtx)
	}

	api.Use(middleware.Timeout(cfg.RequestTimeout))

	requireAuth := middleware.Auth(middleware.AuthDependencies{
		Tokens: r.deps.Tokens,
		Logger: r.logger,
	})

	// Recognition calls the embedding provider, so it is limited per user
	recognitionLimit := middleware.RateLimit(middleware.RateLimiterConfig{
		Max:          cfg.RateLimitMax,
		Scope:        "recognition",
		Counter:      r.deps.Counter,
		KeyGenerator: middleware.CallerKey,
		Logger:       r.logger,
	})

	r.setupAuthRoutes(api.Group("/auth"), requireAuth)
	r.setupSubjectRoutes(api.Group("/subjects", requireAuth))
	r.setupStudentRoutes(api.Group("/students", requireAuth), recognitionLimit)
	r.setupAttendanceRoutes(api.Group("/attendance"), requireAuth, recognitionLimit)
}

func (r *Router) setupAuthRoutes(group fiber.Router, requireAuth fiber.Handler) {
	authHandler := handler.NewAuthHandler(r.deps.Auth, r.logger)

	group.Post("/register", authHandler.Register)
	group.Post("/login", authHandler.Login)
	group.Get("/me", requireAuth, authHandler.Me)
	group.Post("/logout", requireAuth, authHandler.Logout)
	group.Post("/register-face", requireAuth, authHandler.RegisterFace)
	group.Put("/face", requireAuth, authHandler.UpdateFace)
}

func (r *Router) setupSubjectRoutes(group fiber.Router) {
	subjectHandler := handler.NewSubjectHandler(r.deps.Subjects, r.logger)

	group.Post("/", subjectHandler.Create)
	group.Get("/", subjectHandler.List)
	group.Post("/join", subjectHandler.Join)
	group.Get("/:id", subjectHandler.Get)
	group.Get("/:id/students", subjectHandler.Students)
	group.Delete("/:id", subjectHandler.Delete)
}

func (r *Router) setupStudentRoutes(group fiber.Router, recognitionLimit fiber.Handler) {
	studentHandler := handler.NewStudentHandler(r.deps.Students, r.logger)

	group.Get("/", studentHandler.List)
	group.Post("/", studentHandler.Create)
	group.Post("/recognize", recognitionLimit, studentHandler.Recognize)
	group.Get("/:id", studentHandler.Get)
	group.Delete("/:id", studentHandler.Delete)
	group.Post("/:id/photo", studentHandler.UploadPhoto)
	group.Put("/:id/photo", studentHandler.ReplacePhoto)
}

func (r *Router) setupAttendanceRoutes(group fiber.Router, requireAuth, recognitionLimit fiber.Handler) {
	attendanceHandler := handler.NewAttendanceHandler(r.deps.Attendance, r.deps.Viewer, r.logger)

	group.Post("/mark-face", requireAuth, recognitionLimit, attendanceHandler.MarkFace)
	group.Post("/manual", requireAuth, attendanceHandler.MarkManual)
	group.Get("/:subject_id", requireAuth, attendanceHandler.List)
	group.Get("/:subject_id/dashboard", requireAuth, attendanceHandler.Dashboard)

	// Browsers cannot set headers on a websocket handshake
	liveAuth := middleware.Auth(middleware.AuthDependencies{
		Tokens:          r.deps.Tokens,
		Logger:          r.logger,
		AllowQueryToken: true,
	})
	group.Get("/:subject_id/live",
		liveAuth,
		attendanceHandler.AuthorizeLive,
		ws.UpgradeMiddleware(),
		ws.Handler(r.deps.Hub),
	)
}

func (r *Router) config() *config.Config {
	if r.deps != nil && r.deps.Config != nil {
		return r.deps.Config
	}
	return &config.Config{CORSOrigins: "*"}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop WebSocket hub; open sockets are closed
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop rate limiter cleanup goroutine
	if r.cancelCounter != nil {
		r.cancelCounter()
	}

	return r.app.Shutdown()
}

// corsOrigins normalizes a comma separated origin list
func corsOrigins(raw string) string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}
