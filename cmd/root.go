// Package cmd holds the command line entry points.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"assessment_backend/internal/app"
	"assessment_backend/internal/config"
	"assessment_backend/pkg/database"
	"assessment_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configDir   string
	migrate     bool
	migrateOnly bool
	watchConfig bool
)

var rootCmd = &cobra.Command{
	Use:           "assessment-backend",
	Short:         "Assessment response workspace server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "configs", "directory holding config.yaml")
	rootCmd.Flags().BoolVar(&migrate, "migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	rootCmd.Flags().BoolVar(&migrateOnly, "migrate-only", false, "只执行数据库迁移，完成后退出")
	rootCmd.Flags().BoolVar(&watchConfig, "watch", true, "hot reload engine settings when config.yaml changes")
	rootCmd.AddCommand(ticksCmd)
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = migrate || migrateOnly
	cfg.MigrateOnly = migrateOnly

	// 迁移完成后直接退出
	if cfg.MigrateOnly {
		logger.InitLogger(cfg)
		defer logger.Sync()
		if _, err := database.InitDB(&cfg.Database, true); err != nil {
			logger.Log.Error("Migration failed", zap.Error(err))
			return err
		}
		logger.Log.Info("数据库迁移完成，退出程序")
		return nil
	}

	configFile := ""
	if watchConfig {
		configFile = filepath.Join(configDir, "config.yaml")
	}
	application, err := app.NewApp(cfg, configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return application.Run(ctx)
}
