package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/linchenxuan/metricsync"
	"github.com/linchenxuan/metricsync/log"
	"github.com/spf13/cobra"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "metricsync",
		Short: "Periodic metrics collection and export",
		Long: `metricsync polls its collectors on a fixed period and hands the samples
to the configured reporters, which push them to a Prometheus push gateway
or serve them to scrapers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "metricsync\n")
			fmt.Fprintf(out, "  Version:    %s\n", version)
			fmt.Fprintf(out, "  Commit:     %s\n", commit)
			fmt.Fprintf(out, "  Built:      %s\n", buildTime)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		},
	}
}

func newRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the collection and export loop until interrupted",
		Example: `  metricsync run --config /etc/metricsync/config.yml
  METRICSYNC_PUSH_URL=http://gw:9091 metricsync run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	return cmd
}

func run(ctx context.Context, cfg *metricsync.Config) error {
	agent, err := metricsync.NewAgent(cfg)
	if err != nil {
		return err
	}
	if err := agent.RegisterCollector(metricsyncDefaultSet()); err != nil {
		return err
	}
	if err := agent.Start(cfg.Plugin); err != nil {
		return err
	}
	defer agent.Stop()

	<-ctx.Done()
	log.Info().Msg("signal received, stopping")
	return nil
}
