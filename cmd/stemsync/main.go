package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openforest/stemsync/internal/client"
	"github.com/openforest/stemsync/internal/config"
	"github.com/openforest/stemsync/internal/utils"
	"github.com/openforest/stemsync/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configFileName = "config"

var (
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:     "stemsync",
	Short:   "StemSync field data collection daemon",
	Version: version.Detailed(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper()
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true
		showHeader()

		app, err := client.New(cfg)
		if err != nil {
			return err
		}
		if err := app.Open(); err != nil {
			return err
		}
		defer app.Close()

		defer slog.Info("Bye!")
		return app.Run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "StemSync config file")
	rootCmd.PersistentFlags().StringP("datadir", "d", config.DefaultDataDir, "StemSync data directory")
	rootCmd.PersistentFlags().StringP("ledger", "l", "", "Stems ledger API URL")
	rootCmd.Flags().DurationP("interval", "i", 15*time.Minute, "Background sync interval")

	rootCmd.AddCommand(syncCmd, captureCmd, statusCmd, deviceCmd, versionCmd)
}

func main() {
	// AWS credentials and overrides may live in a .env alongside the binary
	_ = godotenv.Load()

	logFile := config.DefaultLogFile
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// Setup handlers for both outputs
	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	logInterceptor := utils.NewLogInterceptor(file)
	fileHandler := slog.NewTextHandler(logInterceptor, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		// Do not include time as it is added by the log interceptor.
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})

	multiLogHandler := utils.NewMultiLogHandler(stdoutHandler, fileHandler)
	logger := slog.New(multiLogHandler)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home(), ".stemsync"))
		viper.AddConfigPath(filepath.Join(home(), ".config/stemsync"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("data_dir", cmd.Flags().Lookup("datadir"))
	viper.BindPFlag("ledger.url", cmd.Flags().Lookup("ledger"))
	if f := cmd.Flags().Lookup("interval"); f != nil {
		viper.BindPFlag("sync_interval", f)
	}

	viper.SetEnvPrefix("STEMSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// the object store credentials follow the usual AWS env vars
	viper.BindEnv("s3.access_key", "STEMSYNC_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	viper.BindEnv("s3.secret_key", "STEMSYNC_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	viper.BindEnv("s3.region", "STEMSYNC_S3_REGION", "AWS_REGION")

	return nil
}

func configFromViper() (*config.Config, error) {
	cfg := &config.Config{Path: viper.ConfigFileUsed()}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func home() string {
	h, _ := os.UserHomeDir()
	return h
}

func showHeader() {
	color.New(color.FgHiCyan, color.Bold).Printf("StemSync %s\n", version.Short())
}
