package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/taxdesk/internal/audit"
	auditdomain "github.com/smallbiznis/taxdesk/internal/audit/domain"
	"github.com/smallbiznis/taxdesk/internal/config"
	"github.com/smallbiznis/taxdesk/internal/declaration"
	declarationdomain "github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"github.com/smallbiznis/taxdesk/internal/export"
	"github.com/smallbiznis/taxdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/taxdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/taxdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/taxdesk/internal/observability/tracing"
	"github.com/smallbiznis/taxdesk/internal/order"
	"github.com/smallbiznis/taxdesk/internal/ratelimit"
	"github.com/smallbiznis/taxdesk/internal/revenue"
	"github.com/smallbiznis/taxdesk/internal/store"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	store.Module,
	order.Module,
	revenue.Module,
	export.Module,
	ratelimit.Module,
	declaration.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	declarationSvc declarationdomain.Service
	auditSvc       auditdomain.Service
	obsMetrics     *obsmetrics.Metrics
	exportLimiter  *ratelimit.ExportLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	DeclarationSvc declarationdomain.Service
	AuditSvc       auditdomain.Service
	ObsMetrics     *obsmetrics.Metrics      `optional:"true"`
	ExportLimiter  *ratelimit.ExportLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		declarationSvc: p.DeclarationSvc,
		auditSvc:       p.AuditSvc,
		obsMetrics:     p.ObsMetrics,
		exportLimiter:  p.ExportLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")
	v1.Use(s.ActorRequired())

	v1.GET("/stores/:store_id/revenue/preview", s.PreviewRevenue)
	v1.GET("/stores/:store_id/declarations", s.ListDeclarations)
	v1.POST("/stores/:store_id/declarations", s.CreateDeclaration)

	v1.GET("/declarations/:id", s.GetDeclaration)
	v1.PATCH("/declarations/:id", s.UpdateDeclaration)
	v1.DELETE("/declarations/:id", s.DeleteDeclaration)
	v1.POST("/declarations/:id/clone", s.CloneDeclaration)
	v1.GET("/declarations/:id/export", s.ExportRateLimit(), s.ExportDeclaration)

	v1.GET("/audit-logs", s.ListAuditLogs)
}
