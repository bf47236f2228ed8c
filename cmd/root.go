// Package cmd provides the command-line interface for mdreader.
//
// Configuration System:
//
//	Settings resolve with clear precedence:
//	1. Command-line flags (--debounce, --port, --no-open, ...) - highest priority
//	2. Individual environment variables (MDREADER_WATCH_DEBOUNCE, ...)
//	3. The configuration file (.mdreader.yml, or --config / MDREADER_CONFIG_FILE)
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	MDREADER_CONFIG_FILE: Path to custom configuration file
//	MDREADER_SERVER_PORT: Override the viewer port
//	MDREADER_WATCH_DEBOUNCE: Override the quiet period
//	And the rest following the MDREADER_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/mdreader/internal/config"
	"github.com/conneroisu/mdreader/internal/logging"
)

var cfgFile string

// rootCmd renders a file once when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "mdreader <file.md>",
	Short: "Render markdown as a clean HTML reading experience",
	Long: `mdreader renders a markdown file into a self-contained HTML page and
opens it in your browser. In watch mode it serves the page on a loopback port
and reloads every connected viewer each time the file is saved.

Quick Start:
  mdreader README.md                  Render once and open
  mdreader watch notes.md             Live-reload while you edit
  mdreader pdf guide.md               Export to PDF

Examples:
  mdreader docs/guide.md --no-open
  mdreader notes.md --output ~/Desktop/notes.html`,
	Args:          cobra.MaximumNArgs(1),
	PreRunE:       bindFlags(renderBindings),
	RunE:          runRender,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .mdreader.yml, can also use MDREADER_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	addRenderFlags(rootCmd)
}

// initConfig selects the config file and enables MDREADER_ environment
// overrides. A missing file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MDREADER_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mdreader")
	}

	viper.SetEnvPrefix("MDREADER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the configuration and a logger writing to the
// command's stderr.
func loadConfig(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})

	return cfg, logger, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
