package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/airseries/core"
	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = core.WithLogger(context.Background(), slog.New(slog.NewTextHandler(os.Stderr, nil)))

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "airseries",
	Short:              "Collect PurpleAir sensor history into a local air quality time series.",
	Long:               `Airseries keeps a local archive of PurpleAir readings up to date and turns it into a 10-minute PM2.5 time series.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in .env, config file and ENV variables if set.
func initConfig() {
	// A missing .env file is the normal case
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		contract.LogWarn("Cannot load .env file", err)
	}

	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("AIRSERIES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match
	if err := viper.BindEnv("api-key", "AIRSERIES_API_KEY", "PURPLEAIR_API_KEY"); err != nil {
		contract.LogFatal("Error binding api-key env", err)
	}

	// Set defaults in Viper
	viper.SetDefault("data-dir", contract.DefaultDataDir)
	viper.SetDefault("index-backend", schema.SQLiteBackend)
	viper.SetDefault("index-db-connect", "")
	viper.SetDefault("index-check", schema.BoundsCheck)
	viper.SetDefault("api-base-url", contract.DefaultAPIBaseURL)
	viper.SetDefault("request-delay", contract.DefaultRequestDelay.String())
	viper.SetDefault("failure-cooldown", contract.DefaultFailureCooldown.String())
	viper.SetDefault("freshness", contract.DefaultFreshness.String())
	viper.SetDefault("window-days", contract.DefaultWindowDays)
	viper.SetDefault("report-mode", schema.AQIMode)
	viper.SetDefault("channel", schema.AtmChannel)
	viper.SetDefault("timezone", contract.DefaultTimezone)
	viper.SetDefault("output", schema.CSVOut)
	viper.SetDefault("color", "yes")
}

// setConfigFile points viper at --config or the default .airseries.yaml locations.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".airseries") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	// This function populates the global 'cfg' from 'input'.
	return contract.ProcessAndValidate(cfg, input)
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile reads the config file if present.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
