package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-dagpay/app/controller"
	"github.com/vibast-solutions/ms-go-dagpay/app/environment"
	"github.com/vibast-solutions/ms-go-dagpay/app/gateway"
	dagpaygrpc "github.com/vibast-solutions/ms-go-dagpay/app/grpc"
	"github.com/vibast-solutions/ms-go-dagpay/app/metrics"
	"github.com/vibast-solutions/ms-go-dagpay/app/repository"
	"github.com/vibast-solutions/ms-go-dagpay/app/service"
	"github.com/vibast-solutions/ms-go-dagpay/app/types"
	"github.com/vibast-solutions/ms-go-dagpay/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const callbackBodyLimit = "1M"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start the HTTP (Echo) server for checkout, status callbacks and internal invoice access, and the gRPC health server.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type serviceDeps struct {
	invoiceService *service.InvoiceService
	registry       *environment.Registry
	db             *sql.DB
	cleanup        func()
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, deps := mustCreateInvoiceService()
	defer deps.cleanup()

	invoiceController := controller.NewInvoiceController(deps.invoiceService)
	grpcHealthServer := dagpaygrpc.NewServer(deps.db, deps.registry.Len())

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()

	internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)

	e := setupHTTPServer(invoiceController, echoInternalAuthMiddleware, cfg.App.ServiceName)
	grpcSrv, lis := setupGRPCServer(cfg, grpcHealthServer)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithFields(logrus.Fields{"addr": httpAddr, "tls": cfg.TLS.Enabled}).Info("Starting HTTP server")

		var err error
		if cfg.TLS.Enabled {
			err = e.StartTLS(httpAddr, cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = e.Start(httpAddr)
		}
		if err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	go func() {
		logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("gRPC server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	grpcSrv.GracefulStop()

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	invoiceController *controller.InvoiceController,
	internalAuthMiddleware *authmiddleware.EchoInternalAuthMiddleware,
	appServiceName string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())

	e.GET("/health", invoiceController.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	public := e.Group("", ensureRequestID())
	public.POST("/buy", invoiceController.Buy)

	callbacks := e.Group("", ensureRequestID(), echomiddleware.BodyLimit(callbackBodyLimit))
	callbacks.POST("/status", invoiceController.HandleStatusCallback)
	callbacks.POST("/webhooks/dagpay", invoiceController.HandleStatusCallback)
	callbacks.POST("/webhooks/dagpay/:environment", invoiceController.HandleStatusCallback)

	invoices := e.Group("/invoices",
		echomiddleware.CORS(),
		requireRequestID(),
		internalAuthMiddleware.RequireInternalAccess(appServiceName),
	)
	invoices.POST("", invoiceController.CreateInvoice)
	invoices.GET("/:id", invoiceController.GetInvoice)

	return e
}

func requireRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "x-request-id header is required"})
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

// ensureRequestID tags requests from browsers and the gateway, which do not
// send x-request-id.
func ensureRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				requestID = uuid.NewString()
				ctx.Request().Header.Set(echo.HeaderXRequestID, requestID)
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

func setupGRPCServer(cfg *config.Config, healthServer *dagpaygrpc.Server) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			dagpaygrpc.RecoveryInterceptor(),
			dagpaygrpc.RequestIDInterceptor(),
			dagpaygrpc.LoggingInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcSrv, healthServer)

	return grpcSrv, lis
}

func mustCreateInvoiceService() (*config.Config, *serviceDeps) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	registry, err := newEnvironmentRegistry(cfg.Dagpay)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure Dagpay environments")
	}
	for _, name := range registry.Names() {
		env, _ := registry.Get(name)
		logrus.WithFields(env.LogFields()).Info("Dagpay environment configured")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	invoiceRepo := repository.NewInvoiceRepository(db)
	callbackRepo := repository.NewStatusCallbackRepository(db)
	gatewayClient := gateway.NewClient(gateway.Config{Timeout: cfg.Dagpay.HTTPTimeout})

	invoiceService := service.NewInvoiceService(
		invoiceRepo,
		callbackRepo,
		registry,
		gatewayClient,
		cfg.Dagpay,
		cfg.Jobs,
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, &serviceDeps{
		invoiceService: invoiceService,
		registry:       registry,
		db:             db,
		cleanup:        cleanup,
	}
}
