package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mathtutor/internal/common/db"
	commonmw "mathtutor/internal/common/http/middleware"
	"mathtutor/internal/common/telemetry"
	"mathtutor/internal/mathproblem/controller"
	"mathtutor/internal/mathproblem/repository"
	"mathtutor/internal/mathproblem/rpc"
	"mathtutor/internal/mathproblem/service"
	"mathtutor/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const (
	defaultConfigPath = "configs/mathtutor_service.yaml"
	serviceName       = "mathtutor-service"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath, *configPath == defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(appCfg); err != nil {
		logger.Error(context.Background(), "mathtutor service stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(appCfg *AppConfig) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, appCfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry failed: %w", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			logger.Warn(context.Background(), "telemetry shutdown failed", zap.Error(err))
		}
	}()

	database, err := db.Open(ctx, appCfg.Database)
	if err != nil {
		return fmt.Errorf("init database failed: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()
	logger.Info(ctx, "database connected", zap.String("driver", database.Dialect().Name))

	if appCfg.Database.AutoMigrate {
		if err := repository.EnsureSchema(ctx, database); err != nil {
			return err
		}
		logger.Info(ctx, "schema ensured")
	}

	problemRepo := repository.NewMathProblemRepository(database)
	problemService := service.NewMathProblemService(problemRepo)
	problemController := controller.NewMathProblemController(problemService)

	httpServer := buildHTTPServer(appCfg, problemController)

	grpcServer := grpc.NewServer()
	healthServer := rpc.NewHealthServer(database)
	healthServer.Register(grpcServer)

	grpcListener, err := net.Listen("tcp", appCfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("init grpc listener failed: %w", err)
	}

	probeCtx, stopProbe := context.WithCancel(ctx)
	defer stopProbe()
	go healthServer.Run(probeCtx, appCfg.GRPC.HealthProbeInterval)

	errCh := make(chan error, 2)
	go func() {
		logger.Info(ctx, "mathtutor http server started",
			zap.String("addr", httpServer.Addr),
			zap.Strings("procedures", problemController.Procedures()),
		)
		errCh <- httpServer.ListenAndServe()
	}()
	go func() {
		logger.Info(ctx, "mathtutor grpc server started", zap.String("addr", appCfg.GRPC.Addr))
		errCh <- grpcServer.Serve(grpcListener)
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server stopped: %w", err)
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	stopProbe()
	healthServer.Shutdown()

	sctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(sctx); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	return serveErr
}

func buildHTTPServer(appCfg *AppConfig, problemController *controller.MathProblemController) *http.Server {
	return &http.Server{
		Addr:         appCfg.Server.Addr(),
		Handler:      buildHandler(appCfg, problemController),
		ReadTimeout:  appCfg.Server.ReadTimeout,
		WriteTimeout: appCfg.Server.WriteTimeout,
		IdleTimeout:  appCfg.Server.IdleTimeout,
	}
}

func buildHandler(appCfg *AppConfig, problemController *controller.MathProblemController) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	if appCfg.Telemetry.Enabled {
		router.Use(otelgin.Middleware(appCfg.Telemetry.ServiceName))
	}
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(commonmw.RequestLogger())
	router.Use(commonmw.CORSMiddleware(appCfg.CORS))

	problemController.RegisterRoutes(router)

	if appCfg.Server.DisableGzip {
		return router
	}
	return gzhttp.GzipHandler(router)
}
