package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcdelivery "github.com/Xausdorf/vietqr-gateway/internal/delivery/grpc"
	httpdelivery "github.com/Xausdorf/vietqr-gateway/internal/delivery/http"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/repository"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/config"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/logging"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/memory"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/metrics"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/postgres"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/qrgenerator"
	"github.com/Xausdorf/vietqr-gateway/internal/usecase/issue"
	"github.com/Xausdorf/vietqr-gateway/internal/usecase/render"
)

const (
	readHeaderTimeout     = 5 * time.Second
	gracefulShutdownDelay = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	uow, closeStore, err := initStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("store init failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	issueUC := issue.NewUseCase(uow, m)
	renderUC := render.NewUseCase(uow.Issuances(), qrgenerator.NewGenerator(cfg.QRCodeSize))

	handler := httpdelivery.NewHandler(issueUC, renderUC, logger)
	router := httpdelivery.NewRouter(handler, metrics.Handler(reg))

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	grpcSrv := grpc.NewServer()
	grpcdelivery.RegisterPayloadServer(grpcSrv, grpcdelivery.NewHandler(issueUC))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus(grpcdelivery.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcSrv)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("gRPC server starting", "addr", cfg.GRPCAddr)
		if serveErr := grpcSrv.Serve(lis); serveErr != nil {
			logger.Error("grpc serve failed", "error", serveErr)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if serveErr := httpSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", serveErr)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	healthSrv.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownDelay)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()
}

// initStore picks postgres when a database URL is configured and falls back
// to process memory otherwise.
func initStore(ctx context.Context, url string, logger *slog.Logger) (repository.UnitOfWork, func(), error) {
	if url == "" {
		logger.Warn("DATABASE_URL not set, issuances are kept in memory")
		return memory.NewUnitOfWork(memory.NewStore()), func() {}, nil
	}

	if err := postgres.Migrate(url); err != nil {
		return nil, nil, err
	}

	pool, err := postgres.NewPool(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewUnitOfWork(pool), pool.Close, nil
}
