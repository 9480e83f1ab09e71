package commands

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/chalk/internal/cache"
	"github.com/dyluth/chalk/internal/printer"
)

var (
	sweepMaxAge time.Duration
	sweepFollow bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evict stale cache entries",
	Long: `Remove cache entries older than the configured maximum age. By
default a single sweep runs and exits; with --follow the evictor keeps
running on an hourly schedule until interrupted.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepMaxAge, "max-age", 0, "override the configured maximum entry age")
	sweepCmd.Flags().BoolVar(&sweepFollow, "follow", false, "keep sweeping on an hourly schedule")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	_, backend, err := newCache(cfg, reg, logger)
	if err != nil {
		return err
	}

	maxAge := cfg.Evictor.MaxAge.Std()
	if sweepMaxAge > 0 {
		maxAge = sweepMaxAge
	}
	evictor := cache.NewEvictor(backend, cfg.CachePath, maxAge, logger)

	if !sweepFollow {
		if err := evictor.Sweep(cmd.Context()); err != nil {
			return err
		}
		printer.Success("cache sweep complete\n")
		return nil
	}

	// Lifecycle-scoped background run: cancelled on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printer.Info("sweeping %s hourly (max age %s), press Ctrl-C to stop\n", cfg.CachePath, maxAge)
	evictor.Run(ctx)
	return nil
}
