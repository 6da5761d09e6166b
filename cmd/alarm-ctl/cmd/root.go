package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-scheduler/internal/config"
	"github.com/oshokin/alarm-scheduler/internal/service/client"
	"github.com/oshokin/alarm-scheduler/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides server_addr from the settings.
	serverAddress string
	// rescheduleDelay is the new delay for `reschedule`; zero keeps the last one.
	rescheduleDelay time.Duration

	rootCmd = &cobra.Command{
		Use:   "alarm-ctl",
		Short: "Manage alarms on a running alarm-server.",
		Long: `Talks to alarm-server over gRPC.

The server address comes from server_addr in the settings unless --server is given.`,
		SilenceUsage: true,
	}

	scheduleCmd = &cobra.Command{
		Use:     "schedule <delay> [message]",
		Short:   "Schedule a notification alarm after delay (e.g. 1500ms, 2m).",
		Args:    cobra.RangeArgs(1, 2),
		Example: "alarm-ctl schedule 30s \"coffee is ready\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			delay, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("parse delay %q: %w", args[0], err)
			}

			var message string
			if len(args) > 1 {
				message = args[1]
			}

			return client.Schedule(cmd.Context(), options(cmd), delay, message)
		},
	}

	cancelCmd = &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.Cancel(cmd.Context(), options(cmd), args[0])
		},
	}

	rescheduleCmd = &cobra.Command{
		Use:   "reschedule <id>",
		Short: "Re-arm an alarm from now, with its last delay or --delay.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var delay *time.Duration
			if cmd.Flags().Changed("delay") {
				delay = &rescheduleDelay
			}

			return client.Reschedule(cmd.Context(), options(cmd), args[0], delay)
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Print scheduler statistics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.Stats(cmd.Context(), options(cmd))
		},
	}
)

// Execute runs the alarm-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func options(cmd *cobra.Command) *client.Options {
	return &client.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVar(&serverAddress, "server", "", "server address (overrides settings)")

	rescheduleCmd.Flags().DurationVarP(&rescheduleDelay, "delay", "d", 0, "new delay (default: last used delay)")

	rootCmd.AddCommand(scheduleCmd, cancelCmd, rescheduleCmd, statsCmd)
}
