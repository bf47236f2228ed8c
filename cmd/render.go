package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mdreader/internal/convert"
	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/opener"
	"github.com/conneroisu/mdreader/internal/validation"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.md>",
	Short: "Convert a markdown file to HTML once",
	Long: `Convert a markdown file into a self-contained HTML page and open it.

The page is written to --output, or to md-reader-<name>-<millis>.html in the
configured output directory.

Examples:
  mdreader render README.md
  mdreader render notes.md --no-open
  mdreader render notes.md --output ~/Desktop/notes.html`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: bindFlags(renderBindings),
	RunE:    runRender,
}

// newOpener builds the viewer launcher. Tests replace it.
var newOpener = func() opener.Opener { return opener.New() }

func init() {
	rootCmd.AddCommand(renderCmd)
	addRenderFlags(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return readererrors.ErrNoInput
	}

	path, err := validation.ValidateMarkdownPath(args[0])
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	doc, err := convert.New().ConvertFile(ctx, path)
	if err != nil {
		return fmt.Errorf("converting %s: %w", path, err)
	}

	outFile, _ := cmd.Flags().GetString("output")
	if outFile == "" {
		outFile = filepath.Join(cfg.Output.Dir,
			fmt.Sprintf("md-reader-%s-%d.html", convert.Stem(path), time.Now().UnixMilli()))
	}
	outFile, err = filepath.Abs(outFile)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}

	// #nosec G306 -- the page is meant to be opened by a browser
	if err := os.WriteFile(outFile, []byte(doc.HTML), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "→ %s\n", outFile)

	if cfg.Server.Open {
		opener.OpenBestEffort(ctx, newOpener(), outFile, logger)
	}

	return nil
}
