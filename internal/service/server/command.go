package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/alarm-scheduler/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-scheduler/internal/config"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	statsrepo "github.com/oshokin/alarm-scheduler/internal/repository/stats"
	"github.com/oshokin/alarm-scheduler/internal/scheduler"
)

// Options controls the alarm-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StatsFile overrides the stats snapshot path from the settings.
	StatsFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the scheduler and the gRPC server and blocks until ctx is
// cancelled or the server fails. A final stats snapshot is written on exit.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	statsFile := settings.StatsFile
	if opts.StatsFile != "" {
		statsFile = opts.StatsFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	sched := scheduler.New(
		scheduler.WithMaxIdleInterval(settings.MaxIdleInterval),
		scheduler.WithHistorySize(settings.HistorySize),
	)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	repo := statsrepo.NewFileRepository(statsFile)
	if _, err := sched.Create(settings.StatsInterval, newReporter(sched, repo), nil); err != nil {
		_ = sched.Stop()

		return fmt.Errorf("arm stats reporter: %w", err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterSchedulerServer(grpcServer, api.NewServer(newService(sched)))

	logger.InfoKV(ctx, "Alarm server listening",
		"listen_address", lis.Addr().String(),
		"stats_file", statsFile,
		"stats_interval", settings.StatsInterval)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()

		return nil
	})

	err = g.Wait()

	if stopErr := sched.Stop(); stopErr != nil {
		logger.WarnKV(ctx, "Scheduler stop failed", "error", stopErr)
	}

	if saveErr := repo.Save(context.WithoutCancel(ctx), sched.Stats()); saveErr != nil {
		logger.ErrorKV(ctx, "Failed to save final stats snapshot", "error", saveErr)
	}

	logger.Info(ctx, "Alarm server stopped")

	return err
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}
