// CLAUDE:SUMMARY CLI entry point for posview: run the toggle daemon, classify a fixture, read or set the stored mode.
// Command posview keeps the items panel of an ERPNext point-of-sale tab in
// the grid or list view the cashier chose.
//
// Usage:
//
//	posview run -c posview.yaml        # attach to the POS tab and serve the control API
//	posview classify pos.html          # classify an offline fixture
//	posview mode get | set list        # read or write the stored mode
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/posview/internal/config"
	"github.com/hazyhaar/posview/prefs"
)

var rootCmd = &cobra.Command{
	Use:           "posview",
	Short:         "Grid/list view toggle for the ERPNext point-of-sale items panel",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to posview.yaml")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func main() {
	// .env is optional.
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "posview:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
	}
	return cfg, path, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openPrefs builds the tiers in authority order: SQLite, Redis, memory.
// A tier that cannot be opened is skipped.
func openPrefs(ctx context.Context, cfg *config.Config, logger *slog.Logger) *prefs.Store {
	var tiers []prefs.Backend
	if cfg.Prefs.SQLite != "" {
		db, err := prefs.OpenSQLite(cfg.Prefs.SQLite)
		if err != nil {
			logger.Warn("posview: sqlite tier unavailable", "path", cfg.Prefs.SQLite, "error", err)
		} else {
			tiers = append(tiers, db)
		}
	}
	if r := cfg.Prefs.Redis; r.Addr != "" {
		tiers = append(tiers, prefs.NewRedis(r.Addr, r.Password, r.DB, prefs.WithTTL(r.TTL)))
	}
	return prefs.New(ctx, cfg.Prefs.Key, logger, tiers...)
}
