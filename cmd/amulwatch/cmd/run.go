package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rkhanna/amulwatch/internal/amul"
	"github.com/rkhanna/amulwatch/internal/config"
	"github.com/rkhanna/amulwatch/internal/engine"
	"github.com/rkhanna/amulwatch/internal/metrics"
	"github.com/rkhanna/amulwatch/internal/notify"
	"github.com/rkhanna/amulwatch/internal/region"
	"github.com/rkhanna/amulwatch/internal/retry"
	"github.com/rkhanna/amulwatch/internal/store"
	"github.com/rkhanna/amulwatch/pkg/logger"
)

func runCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Execute one poll cycle",
		RunE:  runRun,
	}
	c.Flags().Bool("force", false, "alert for every fetched item regardless of changes")
	c.Flags().Bool("dry-run", false, "fetch and diff without persisting state or notifying")
	cobra.CheckErr(viper.BindPFlag("force", c.Flags().Lookup("force")))
	cobra.CheckErr(viper.BindPFlag("dry-run", c.Flags().Lookup("dry-run")))
	return c
}

func runRun(c *cobra.Command, _ []string) error {
	// Configuration errors are the only non-zero exits: they need a
	// human, and they are detected before any network activity.
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	slog.SetDefault(log)

	eng := buildEngine(cfg, log)

	if err := eng.Run(c.Context()); err != nil {
		// Fail open: a transient scraping failure self-heals on the
		// next scheduled run and must not alarm the scheduler.
		if errors.Is(err, engine.ErrStageFailed) {
			log.Error("run aborted, state untouched, will retry next schedule", "error", err)
		} else {
			log.Error("run failed", "error", err)
		}
	}

	if err := metrics.DumpTextfile(cfg.Metrics.TextfilePath); err != nil {
		log.Warn("metrics textfile dump failed", "path", cfg.Metrics.TextfilePath, "error", err)
	}
	return nil
}

func buildEngine(cfg *config.Config, log *slog.Logger) *engine.Engine {
	resolver := region.New(cfg.Region)

	limiter := amul.NewLimiter(
		cfg.Site.RateLimit.PerSecond,
		cfg.Site.RateLimit.Burst,
		cfg.Site.RateLimit.DailyLimit,
	)

	client := amul.NewClient(cfg.Site, cfg.Region, resolver,
		amul.WithLogger(log),
		amul.WithLimiter(limiter),
		amul.WithRetryPolicy(retry.Policy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			BaseInterval: cfg.Retry.BaseInterval,
			MaxInterval:  cfg.Retry.MaxInterval,
		}),
	)

	st := store.NewJSONFile(cfg.State.Path, store.WithLogger(log))

	decider := engine.Decider{
		Mode:             cfg.Alerts.Mode,
		ReAlertsEnabled:  cfg.Alerts.ReAlertsEnabled,
		ReAlertsCooldown: cfg.Alerts.ReAlertsCooldown,
	}

	return engine.New(st, client, buildNotifier(cfg, log), cfg.Items, decider,
		engine.WithLogger(log),
		engine.WithForce(viper.GetBool("force")),
		engine.WithDryRun(viper.GetBool("dry-run")),
	)
}

func buildNotifier(cfg *config.Config, log *slog.Logger) *notify.Multi {
	var channels []notify.Notifier
	if t := cfg.Notifications.Telegram; t.Enabled {
		channels = append(channels, notify.NewTelegramNotifier(t.BotToken, t.ChatID))
	}
	if e := cfg.Notifications.Email; e.Enabled {
		channels = append(channels, notify.NewEmailNotifier(e))
	}
	if len(channels) == 0 {
		log.Warn("no notification channels configured, alerts will only be logged")
		channels = append(channels, notify.NewNoopNotifier())
	}
	return notify.NewMulti(log, channels...)
}
