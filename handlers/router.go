package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mentormuni-server/exam"
	"mentormuni-server/journal"
	"mentormuni-server/middleware"
	"mentormuni-server/stats"
	"mentormuni-server/templates"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Planner   PlanGenerator
	Evaluator *exam.Evaluator
	Assistant TextGenerator
	Recorder  journal.Recorder
	Counters  *stats.Counters
	Logger    *zap.Logger

	Model       string
	CORSOrigins []string
	// TrustedProxies are the only peers allowed to set X-Forwarded-For and
	// X-Real-IP. Nil keys rate limits on the socket address.
	TrustedProxies    []string
	PlanPerMinute     int
	EvaluatePerMinute int

	// Admin routes are mounted only when a signing key is set.
	AdminSigningKey string
	AdminIssuer     string
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Counters == nil {
		d.Counters = stats.New()
	}

	router := gin.New()
	if err := router.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.HTMLRender = templates.NewRenderer()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Logger),
		middleware.Logger(d.Logger),
		middleware.CORS(d.CORSOrigins),
	)

	router.GET("/", Root())
	router.GET("/health", Health())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/health", Health())
		apiV1.GET("/health/", Health())
		apiV1.GET("/health/ping", Ping())
		apiV1.POST("/ai/generate", GenerateText(d.Assistant, d.Logger))
		apiV1.POST("/contact", SubmitContact(d.Recorder, d.Logger))
	}

	planLimiter := middleware.NewRateLimiter("plan", d.PlanPerMinute)
	evaluateLimiter := middleware.NewRateLimiter("evaluate", d.EvaluatePerMinute)

	ready := router.Group("/interview-ready")
	{
		ready.POST("/plan", planLimiter.Middleware(), GeneratePlan(d.Planner, d.Recorder, d.Logger))
		ready.POST("/evaluate", evaluateLimiter.Middleware(), EvaluateAnswers(d.Evaluator, d.Counters, d.Logger))
		ready.POST("/view", RecordView(d.Counters))
		ready.GET("/stats", GetStats(d.Counters))
	}

	if d.AdminSigningKey != "" {
		admin := router.Group("/admin")
		admin.Use(middleware.AuthMiddleware(d.AdminSigningKey, d.AdminIssuer, d.Logger))
		admin.Use(middleware.RoleCheckMiddleware([]string{"admin"}))
		{
			admin.GET("/dashboard", AdminDashboard(d.Counters, d.Recorder, d.Model, d.Logger))
			admin.GET("/leads", AdminListEntries(d.Recorder, journal.KindLead, d.Logger))
			admin.GET("/contacts", AdminListEntries(d.Recorder, journal.KindContact, d.Logger))
		}
	} else {
		d.Logger.Info("admin routes disabled: no signing key configured")
	}

	return router, nil
}
