package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/mdreader/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect mdreader configuration",
	Long: `Inspect mdreader configuration files and settings.

Examples:
  mdreader config show                  # Show the resolved configuration
  mdreader config show --format json    # Show it as JSON
  mdreader config validate              # Validate .mdreader.yml
  mdreader config validate --file x.yml # Validate a specific file`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the configuration after loading the file, applying environment
variable overrides and filling in defaults.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configFile   string
	configFormat string
	configStrict bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (yaml, json)")

	configValidateCmd.Flags().
		StringVarP(&configFile, "file", "f", "", "Configuration file to validate (default: .mdreader.yml)")
	configValidateCmd.Flags().BoolVar(&configStrict, "strict", false, "Treat warnings as errors")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()

	switch configFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	targetFile := configFile
	if targetFile == "" {
		if _, err := os.Stat(".mdreader.yml"); err != nil {
			return errors.New("no configuration file found. Use --file to specify a config file")
		}
		targetFile = ".mdreader.yml"
	}

	if _, err := os.Stat(targetFile); os.IsNotExist(err) {
		return fmt.Errorf("configuration file %s does not exist", targetFile)
	}

	v := viper.New()
	v.SetConfigFile(targetFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	config.SetDefaults(v)

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	result := config.ValidateConfigWithDetails(&cfg)

	if result.HasErrors() {
		fmt.Fprint(out, result.String())
		return fmt.Errorf("configuration validation failed with %d errors", len(result.Errors))
	}

	if result.HasWarnings() {
		fmt.Fprint(out, result.String())
		if configStrict {
			return fmt.Errorf("configuration validation failed in strict mode with %d warnings",
				len(result.Warnings))
		}
	}

	fmt.Fprintf(out, "%s is valid\n", targetFile)

	return nil
}
