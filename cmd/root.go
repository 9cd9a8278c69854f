// Package cmd implements the rpncalc command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tariel36/rpncalc/internal/app"
	"github.com/tariel36/rpncalc/internal/config"
	"github.com/tariel36/rpncalc/pkg/logger"
)

// Version is the current version.
const Version = "0.1.0"

var (
	cfgFile   string
	debug     bool
	quiet     bool
	overrides []string

	// appConfig is loaded before every command runs.
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rpncalc",
	Short: "Arithmetic and dice expression calculator",
	Long: `rpncalc tokenizes arithmetic and dice expressions, converts them to
reverse Polish notation and evaluates them. Expressions may call built-in
and scripted functions and roll dice with the 'd' operator, e.g. 2*(2d6+1).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg
		return setupLogger(cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print results")
	rootCmd.PersistentFlags().StringArrayVar(&overrides, "set", nil, "override a config value, e.g. --set dice.seed=42 (repeatable)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("rpncalc {{.Version}}\n")
}

// GetRootCmd returns the root command (for tests).
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	cmdArgs, err := config.ParseOverrides(overrides)
	if err != nil {
		return nil, err
	}
	cfg, err := config.NewLoader().
		WithConfigPath(cfgFile).
		WithCmdArgs(cmdArgs).
		Load()
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	if quiet {
		cfg.Logging.Level = "error"
	}
	return cfg, nil
}

func setupLogger(cfg *config.Config) error {
	l, err := logger.New(cfg.Logging.Logger())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	logger.Replace(l)
	logger.Debug("config loaded", zap.String("path", cfgFile), zap.Int("overrides", len(overrides)))
	return nil
}

// newApp builds the calculator from the loaded configuration. mutate may
// adjust a copy of the configuration first.
func newApp(mutate func(*config.Config)) (*app.App, error) {
	cfg := appConfig
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg = cfg.Clone()
	if mutate != nil {
		mutate(cfg)
	}
	return app.New(cfg)
}
