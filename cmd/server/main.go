package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"remind-lab/analytics"
	"remind-lab/analyzer"
	"remind-lab/api"
	"remind-lab/calendar"
	"remind-lab/dialog"
	"remind-lab/infrastructure/grpc/server"
	"remind-lab/internal"
	"remind-lab/lexicon"
	"remind-lab/messaging"
	"remind-lab/observability"
	"remind-lab/repositories"
	"remind-lab/runtime"
	"remind-lab/runtime/workers"
	"remind-lab/scheduler"
	"remind-lab/search"
	"remind-lab/services"
	"remind-lab/sink"
	"remind-lab/weather"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	grpclog "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Assistant terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Returning instead of exiting lets the deferred closes run.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	fallback, err := config.FallbackLanguage()
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage: badger for documents, bluge for search, sqlite for counters
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(ctx, db, config.DebugPort, endpoint, logger)
	}

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	analyticsStore, err := analytics.Open(config.AnalyticsFilepath, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open analytics store: %w", err)
	}
	defer func() {
		logger.Info("Closing analytics store...")
		_ = analyticsStore.Close()
	}()

	// 3. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// 4. Language, analysis and dialog
	lexicons, err := lexicon.Default(fallback)
	if err != nil {
		return exitConfig, fmt.Errorf("failed to load lexicons: %w", err)
	}
	contexts, err := dialog.NewContextStore(config.ContextSenders, config.ContextBudget)
	if err != nil {
		return exitConfig, err
	}
	responder := dialog.NewResponder(lexicons, dialog.RandomSelector())

	// 5. Repositories and services
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	reminderRepository := repositories.NewReminderRepository(db, logger)
	preferenceRepository := repositories.NewPreferenceRepository(db, logger)
	calendarRepository := repositories.NewCalendarRepository(db, logger)
	index := search.NewIndex(blugeWriter, logger)
	sender := messaging.NewSimulatedSender(logger, config.SentKeep)

	sealer, err := calendar.NewSealer(config.CalendarSecret)
	if err != nil {
		return exitConfig, err
	}

	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(logger, supervisor, runtime.Pipeline{
		Analyzer:    analyzer.New(lexicons, logger),
		Responder:   responder,
		Contexts:    contexts,
		Preferences: preferenceRepository,
	}, metrics, runtime.Config{
		NumWorkers:   config.NumberOfWorkers,
		BufferSize:   config.BufferSize,
		SinkTimeout:  config.SinkTimeout,
		TimelineSize: config.TimelineSize,
	})

	reminderService := services.NewReminderService(reminderRepository, preferenceRepository, analyticsStore, metrics, logger)
	assistantService := services.NewAssistantService(messageRepository, orchestrator, index, metrics, logger)
	calendarService := services.NewCalendarService(calendar.NewRegistry(), sealer, calendarRepository, logger)

	orchestrator.RegisterSinks(
		sink.NewProcessedSink(messageRepository, logger),
		sink.NewReminderSink(reminderService, logger),
		sink.NewReplySink(sender, logger),
		sink.NewSearchSink(index),
		sink.NewAnalyticsSink(analyticsStore),
	)

	// 6. Scheduler and background workers
	dispatcher := scheduler.NewDispatcher(sender, scheduler.DispatcherConfig{
		MaxInFlight: config.MaxInflightDispatches,
		MaxPending:  config.MaxPendingDispatches,
		SendTimeout: config.SendTimeout,
	}, analyticsStore, metrics, logger).WithEvents(orchestrator.Telemetry())

	weatherClient := weather.NewClient(weather.Config{
		GeocodingURL: config.WeatherGeocodingURL,
		ForecastURL:  config.WeatherForecastURL,
		Timeout:      config.WeatherTimeout,
		CacheSize:    config.WeatherCacheSize,
		CacheTTL:     config.WeatherCacheTTL,
	}, logger, metrics)

	reminderScheduler := scheduler.NewScheduler(
		reminderRepository, preferenceRepository, weatherClient, dispatcher, responder, lexicons,
		scheduler.NewTickerSource(config.TickInterval),
		scheduler.Config{WeatherDigestTime: config.WeatherDigestTime, ForecastDays: config.ForecastDays},
		metrics, logger,
	)
	monitor := observability.NewMonitor(logger, metrics, config.MetricInterval, orchestrator.Channels()...)
	healthWorker := server.NewHealthWorker(sender, orchestrator, config.MetricInterval, logger)
	orchestrator.RegisterWorkers(reminderScheduler, monitor, healthWorker)

	// Use an error channel to capture server and runtime failures asynchronously.
	errChan := make(chan error, 3)
	go func() {
		logger.Info("Starting orchestrator...")
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 7. HTTP API
	handler := api.NewHandler(api.Deps{
		Assistant:   assistantService,
		Reminders:   reminderService,
		Calendars:   calendarService,
		Preferences: preferenceRepository,
		Analytics:   analyticsStore,
		Sender:      sender,
		Stats:       monitor,
		Runtime:     orchestrator,
	}, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           api.NewRouter(handler, registry, api.RouterConfig{Debug: logger.Enabled(ctx, slog.LevelDebug), EnableCORS: config.EnableCORS}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. gRPC health
	address := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpclog.UnaryLoggingInterceptor(logger)))
	healthWorker.Register(grpcServer)
	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range grpcServer.GetServiceInfo() {
			logger.Debug("gRPC exposed service", "name", serviceName)
		}
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 10. Graceful shutdown: stop intake first, then let pending sends settle.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DrainTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	orchestrator.Stop()
	if err := dispatcher.Drain(shutdownCtx); err != nil {
		logger.Warn("Pending notifications abandoned", "error", err)
	}
	logger.Info("Program stopped cleanly")
	return code, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
