package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/alarm-scheduler/internal/config"
	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/service/common"
)

// Options configures how alarm-ctl reaches the server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Out receives the command output, stdout when nil.
	Out io.Writer
	// ClientOptions are passed to common.Dial.
	ClientOptions []common.Option
}

// Schedule creates a notification alarm and prints its id.
func Schedule(ctx context.Context, opts *Options, delay time.Duration, message string) error {
	return withClient(ctx, opts, func(ctx context.Context, c *common.Client) error {
		id, err := c.Schedule(ctx, delay, message)
		if err != nil {
			return err
		}

		logger.InfoKV(ctx, "Alarm scheduled", logger.AlarmIDKey, id, "delay", delay)
		_, err = fmt.Fprintln(opts.out(), id)

		return err
	})
}

// Cancel cancels an alarm and prints whether it was still pending.
func Cancel(ctx context.Context, opts *Options, id string) error {
	return withClient(ctx, opts, func(ctx context.Context, c *common.Client) error {
		cancelled, err := c.Cancel(ctx, id)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(opts.out(), "cancelled: %t\n", cancelled)

		return err
	})
}

// Reschedule re-arms an alarm. A nil delay reuses its latest delay.
func Reschedule(ctx context.Context, opts *Options, id string, delay *time.Duration) error {
	return withClient(ctx, opts, func(ctx context.Context, c *common.Client) error {
		if err := c.Reschedule(ctx, id, delay); err != nil {
			return err
		}

		_, err := fmt.Fprintln(opts.out(), "rescheduled")

		return err
	})
}

// Stats prints the scheduler stats snapshot.
func Stats(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, func(ctx context.Context, c *common.Client) error {
		stats, err := c.Stats(ctx)
		if err != nil {
			return err
		}

		_, err = io.WriteString(opts.out(), formatStats(stats))

		return err
	})
}

// withClient loads settings, dials the server and runs fn with the client.
func withClient(ctx context.Context, opts *Options, fn func(context.Context, *common.Client) error) error {
	ctx = logger.WithName(ctx, "alarm-ctl")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	dialOptions := append([]common.Option{common.WithCallTimeout(cfg.Timeout)}, opts.ClientOptions...)

	client, err := common.Dial(ctx, serverAddress, dialOptions...)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected to alarm server", "server_address", serverAddress)

	return fn(ctx, client)
}

func (o *Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}

	return o.Out
}

// formatStats renders stats for terminal output.
func formatStats(stats *domain.Stats) string {
	return fmt.Sprintf(
		"pending: %d\nfired: %d\nfailed: %d\nlast start: %s\nlast end: %s\n",
		stats.Pending,
		stats.Fired,
		stats.Failed,
		formatExecution(stats.LastStart),
		formatExecution(stats.LastEnd),
	)
}

func formatExecution(e *domain.Execution) string {
	if e == nil {
		return "-"
	}

	result := fmt.Sprintf("%s %s at %s", e.AlarmID, e.Callback, e.Time.Format(time.RFC3339Nano))
	if e.Failed() {
		result += " failed: " + e.Error
	}

	return result
}
