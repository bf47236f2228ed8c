package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mdreader/internal/convert"
	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/pdf"
	"github.com/conneroisu/mdreader/internal/validation"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf <file.md>",
	Short: "Export a markdown file to PDF",
	Long: `Render the file and print it to PDF with a headless Chromium.

The browser is --browser (or pdf.browser), else the first Chrome, Chromium,
Edge or Brave found in the usual install locations, else a browser managed
by rod.

Examples:
  mdreader pdf guide.md
  mdreader pdf guide.md --output ~/guide.pdf
  mdreader pdf guide.md --browser /usr/bin/chromium`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: bindFlags(pdfBindings),
	RunE:    runPDF,
}

// pdfRenderer lets tests swap the headless browser. nil means rod.
var pdfRenderer pdf.Renderer

func init() {
	rootCmd.AddCommand(pdfCmd)
	addPDFFlags(pdfCmd)
}

func runPDF(cmd *cobra.Command, args []string) error {
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

	opts := []pdf.Option{pdf.WithLogger(logger)}
	browser := ""
	if pdfRenderer != nil {
		opts = append(opts, pdf.WithRenderer(pdfRenderer))
	} else {
		browser, err = pdf.ResolveBrowser(cfg.PDF.Browser, pdf.Candidates, nil)
		if err != nil {
			return readererrors.NewExportError(path, err)
		}
	}

	exporter := pdf.NewExporter(convert.New(), browser, cfg.PDF.Timeout, opts...)
	defer exporter.Close()

	ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.PDF.Timeout)
	defer cancel()

	outFile, _ := cmd.Flags().GetString("output")
	written, err := exporter.Export(ctx, path, outFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "→ %s\n", written)

	return nil
}
