package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mdreader/internal/version"
)

var (
	versionFormat   string
	versionDetailed bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the mdreader version, commit, build time, Go version and platform.

Examples:
  mdreader version
  mdreader version --detailed
  mdreader version --format json`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch versionFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			version.Info
			IsRelease bool `json:"is_release"`
		}{info, info.IsRelease()})
	case "text":
		if versionDetailed {
			fmt.Fprintln(out, info.String())
			return nil
		}
		fmt.Fprintf(out, "mdreader %s\n", info.Short())
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}
