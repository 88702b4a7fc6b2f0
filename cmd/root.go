package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chris-regnier/dailyctl/internal/cache"
	"github.com/chris-regnier/dailyctl/internal/config"
	"github.com/chris-regnier/dailyctl/internal/daily"
	"github.com/chris-regnier/dailyctl/internal/logging"
	"github.com/chris-regnier/dailyctl/internal/schedule"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"github.com/chris-regnier/dailyctl/internal/storage/memory"
	"github.com/chris-regnier/dailyctl/internal/storage/postgres"
	"github.com/chris-regnier/dailyctl/internal/storage/sqlite"
)

var (
	cfgFile        string
	jsonOutput     bool
	storageBackend string
	appConfig      *config.Config
	store          storage.Storage
	scheduler      *schedule.Scheduler
	resultCache    cache.Cache
	planner        *daily.Planner
)

var rootCmd = &cobra.Command{
	Use:   "dailyctl",
	Short: "Schedule and render daily game milestone requests",
	Long: `dailyctl tracks games, accounts and their level and purchase milestones,
and renders the HTTP requests due for each account on a given day.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		appConfig = cfg

		if storageBackend != "" {
			appConfig.Storage = storageBackend
		}
		if err := logging.Setup(appConfig.LogLevel, appConfig.LogFormat); err != nil {
			return err
		}

		store, err = openStore(appConfig)
		if err != nil {
			return err
		}
		scheduler, err = newScheduler(store, appConfig.Schedule)
		if err != nil {
			return err
		}

		resultCache, err = cache.Open(cmd.Context(), cache.Options{
			Backend:       appConfig.Cache.Backend,
			Dir:           filepath.Join(appConfig.DataDir, "cache"),
			RedisAddr:     appConfig.Cache.RedisAddr,
			RedisPassword: appConfig.Cache.RedisPassword,
			RedisDB:       appConfig.Cache.RedisDB,
		})
		if err != nil {
			log.WithError(err).Warn("result cache unavailable, continuing without it")
			resultCache = cache.None{}
		}
		planner = daily.NewPlanner(store, scheduler, resultCache, appConfig.Cache.TTL)

		log.WithFields(log.Fields{
			"storage": appConfig.Storage,
			"cache":   appConfig.Cache.Backend,
		}).Debug("initialized")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now().Format(dateLayout)
		if !jsonOutput && term.IsTerminal(int(os.Stdout.Fd())) {
			exitOn(todayBoardRun(cmd.Context(), date))
			return nil
		}
		exitOn(todayRun(cmd.Context(), os.Stdout, date))
		return nil
	},
}

// openStore creates the configured storage backend.
func openStore(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage {
	case "sqlite":
		s, err := sqlite.New(cfg.DataDir, cfg.SQLiteDriver)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite storage: %w", err)
		}
		return s, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres storage needs postgres_dsn")
		}
		s, err := postgres.New(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("initializing postgres storage: %w", err)
		}
		return s, nil
	case "memory":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage)
}

func newScheduler(r schedule.Reader, cfg config.ScheduleConfig) (*schedule.Scheduler, error) {
	mode, err := schedule.ParsePurchaseDurations(cfg.PurchaseDurations)
	if err != nil {
		return nil, err
	}
	return schedule.New(r,
		schedule.WithPurchaseDurations(mode),
		schedule.WithLegacyPayload(cfg.LegacyPayload),
	), nil
}

func closeResources() {
	if resultCache != nil {
		_ = resultCache.Close()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("closing storage")
		}
	}
}

// Execute runs the root command.
func Execute() error {
	defer closeResources()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "storage backend (sqlite|postgres|memory)")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}
