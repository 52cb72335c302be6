// Package main contains the atlas CLI commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/atlas/internal/cli"
	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/config"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "atlas",
		Short: "🧭 Research theme classifier",
		Long: `atlas: Classify a research description against the LAS taxonomy.

An LLM ranks the units, fields, and subfields that best fit the description.
Every label it returns is checked against the taxonomy before it is reported.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/atlas/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("taxonomy", "", "path to the taxonomy JSON file")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("taxonomy.path", rootCmd.PersistentFlags().Lookup("taxonomy"))

	setDefaults()

	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(taxonomyCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	// classify installs its own handler so it can report what was saved.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			slog.Info("Received interrupt signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	err := rootCmd.ExecuteContext(ctx)
	signal.Stop(sigChan)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func setDefaults() {
	viper.SetDefault("env_file", "config/api.env")
	viper.SetDefault("taxonomy.path", defaultTaxonomyPath)
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("llm.retry_delay", "1s")
	viper.SetDefault("llm.cache_ttl", "24h")
	viper.SetDefault("llm.rate_limit", 60)
	viper.SetDefault("llm.timeout", "2m")
	viper.SetDefault("pipeline.max_revisions", 2)
	viper.SetDefault("pipeline.llm_validation", true)
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/atlas", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ATLAS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	if err := config.LoadEnvFile(viper.GetString("env_file")); err != nil {
		return err
	}

	return nil
}

func setupLogging() error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	_, err = common.SetupLogger(os.Stderr, level, viper.GetString("logging.format"))
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "atlas %s\n", version)
			return err
		},
	}
}
