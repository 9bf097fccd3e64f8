// Command portalctl runs maintenance tasks against the portal database:
// schema migration, code previews, user bootstrap and dev tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"formsportal/internal/config"
	"formsportal/internal/database"
	"formsportal/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "portalctl",
	Short:         "Forms portal maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openDB loads configuration and opens the database. The caller closes the
// returned handle.
func openDB() (*config.Config, *gorm.DB, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Open(cfg.Database, zlog)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, zlog, nil
}
