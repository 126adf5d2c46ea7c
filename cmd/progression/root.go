package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aimd54/academy-progression/internal/cache"
	"github.com/aimd54/academy-progression/internal/config"
	"github.com/aimd54/academy-progression/internal/identity"
	"github.com/aimd54/academy-progression/internal/repository"
	"github.com/aimd54/academy-progression/internal/service/progression"
	"github.com/aimd54/academy-progression/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "progression",
	Short:         "Challenge progression and player rating engine",
	Long:          "Tracks academy challenge progress, applies completion rewards and blends physical test ratings into player skill vectors.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (defaults to ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(challengesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(badgesCmd)
	rootCmd.AddCommand(vectorCmd)
	rootCmd.AddCommand(submitTestCmd)
	rootCmd.AddCommand(testsCmd)
}

// app holds the process-wide dependencies of a command.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *repository.DB
	store *repository.Store
	cache cache.Cache
}

// openApp loads configuration, connects the store and migrates it.
// Redis is only connected when configured.
func openApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	db, err := repository.NewDB(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, store: repository.NewStore(db)}

	if cfg.Database.Redis.Enabled() {
		rc, err := cache.NewRedisCache(cmd.Context(), &cfg.Database.Redis)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.cache = rc
	}
	return a, nil
}

// engine loads the catalog and builds the progression engine.
func (a *app) engine(ctx context.Context) (*progression.Engine, error) {
	var opts []progression.Option
	if a.cache != nil {
		opts = append(opts, progression.WithCache(a.cache))
	}
	e, err := progression.Load(ctx, a.store, a.cfg.Progression, a.log, opts...)
	if err != nil {
		return nil, fmt.Errorf("load engine: %w", err)
	}
	return e, nil
}

func (a *app) identity() identity.Provider {
	return identity.NewUserProvider(a.store.Users)
}

func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	_ = a.db.Close()
}

// withEngine runs fn with an opened app and engine, closing both afterwards.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, a *app, e *progression.Engine) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	e, err := a.engine(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, a, e)
}

// printJSON writes v as indented JSON when --json is set and reports whether it did.
func printJSON(cmd *cobra.Command, v interface{}) (bool, error) {
	asJSON, _ := cmd.Flags().GetBool("json")
	if !asJSON {
		return false, nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

func requireUint(cmd *cobra.Command, name string) (uint, error) {
	v, _ := cmd.Flags().GetUint(name)
	if v == 0 {
		return 0, fmt.Errorf("--%s is required", name)
	}
	return v, nil
}
