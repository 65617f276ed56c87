package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rentfold/rentfold/internal/config"
	"github.com/rentfold/rentfold/internal/invoice"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	"github.com/rentfold/rentfold/internal/lease"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	"github.com/rentfold/rentfold/internal/notification"
	"github.com/rentfold/rentfold/internal/payment"
	paymentdomain "github.com/rentfold/rentfold/internal/payment/domain"
	"github.com/rentfold/rentfold/internal/property"
	propertydomain "github.com/rentfold/rentfold/internal/property/domain"
	"github.com/rentfold/rentfold/internal/scheduler"
	"github.com/rentfold/rentfold/internal/subscription"
	subscriptiondomain "github.com/rentfold/rentfold/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	property.Module,
	lease.Module,
	invoice.Module,
	subscription.Module,
	notification.Module,
	payment.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationMiddleware())
	r.Use(RequestLogMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	propertySvc     propertydomain.Service
	leaseSvc        leasedomain.Service
	invoiceSvc      invoicedomain.Service
	subscriptionSvc subscriptiondomain.Service
	paymentSvc      paymentdomain.Service
	scheduler       *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	PropertySvc     propertydomain.Service
	LeaseSvc        leasedomain.Service
	InvoiceSvc      invoicedomain.Service
	SubscriptionSvc subscriptiondomain.Service
	PaymentSvc      paymentdomain.Service
	Scheduler       *scheduler.Scheduler
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		propertySvc:     p.PropertySvc,
		leaseSvc:        p.LeaseSvc,
		invoiceSvc:      p.InvoiceSvc,
		subscriptionSvc: p.SubscriptionSvc,
		paymentSvc:      p.PaymentSvc,
		scheduler:       p.Scheduler,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()
	svc.registerInternalRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", s.LandlordRequired())

	// -------- Properties --------
	v1.GET("/properties", s.ListProperties)
	v1.POST("/properties", s.CreateProperty)
	v1.GET("/properties/:id", s.GetPropertyByID)

	// -------- Units --------
	v1.GET("/units", s.ListUnits)
	v1.POST("/units", s.CreateUnit)
	v1.GET("/units/:id", s.GetUnitByID)

	// -------- Tenants --------
	v1.GET("/tenants", s.ListTenants)
	v1.POST("/tenants", s.CreateTenant)
	v1.GET("/tenants/:id", s.GetTenantByID)

	// -------- Leases --------
	v1.GET("/leases", s.ListLeases)
	v1.POST("/leases", s.CreateLease)
	v1.GET("/leases/:id", s.GetLeaseByID)
	v1.POST("/leases/:id/terminate", s.TerminateLease)

	// -------- Invoices --------
	v1.GET("/invoices", s.ListInvoices)
	v1.POST("/invoices", s.CreateInvoice)
	v1.GET("/invoices/:id", s.GetInvoiceByID)
	v1.POST("/invoices/:id/mark_paid", s.MarkInvoicePaid)
	v1.GET("/invoices/:id/pdf", s.RenderInvoicePDF)

	// -------- Subscription --------
	v1.GET("/subscription", s.GetSubscriptionStatus)
	v1.POST("/subscription/trial", s.StartTrial)
}

func (s *Server) registerWebhookRoutes() {
	// Webhooks authenticate with provider signatures, not landlord headers.
	s.engine.POST("/v1/webhooks/:provider", s.HandlePaymentWebhook)
}

func (s *Server) registerInternalRoutes() {
	internal := s.engine.Group("/v1/internal", s.SchedulerTriggerRequired())
	internal.POST("/scheduler/run", s.RunScheduler)
}
