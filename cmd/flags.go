package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag name to config key. Bound in PreRunE so that only the running
// command's flags feed viper.
var (
	renderBindings = map[string]string{
		"no-open": "server.no-open",
	}
	watchBindings = map[string]string{
		"no-open":  "server.no-open",
		"debounce": "watch.debounce",
		"port":     "server.port",
	}
	pdfBindings = map[string]string{
		"browser": "pdf.browser",
	}
)

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Save HTML to a specific path (default: temp dir)")
	cmd.Flags().Bool("no-open", false, "Convert but don't open in browser")
}

func addWatchFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-open", false, "Serve but don't open in browser")
	cmd.Flags().Duration("debounce", 0, "Quiet period before re-rendering (default 150ms)")
	cmd.Flags().IntP("port", "p", 0, "Port to serve on (0 picks a free port)")
	AddFlagValidation(cmd, "port", ValidatePort)
	AddFlagValidation(cmd, "debounce", ValidateDuration)
}

func addPDFFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "PDF path (default: next to the markdown file)")
	cmd.Flags().String("browser", "", "Chromium-based browser binary to print with")
}

// bindFlags returns a PreRunE that binds cmd's flags to viper keys.
func bindFlags(bindings map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		for flagName, configKey := range bindings {
			flag := cmd.Flags().Lookup(flagName)
			if flag == nil {
				continue
			}
			if err := viper.BindPFlag(configKey, flag); err != nil {
				return fmt.Errorf("binding --%s: %w", flagName, err)
			}
		}

		return nil
	}
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort accepts 0 (any free port) through 65535.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// ValidateDuration accepts positive Go durations.
func ValidateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration: %s", s)
	}

	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", s)
	}

	return nil
}
