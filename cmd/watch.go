package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/session"
)

var watchCmd = &cobra.Command{
	Use:     "watch <file.md>",
	Aliases: []string{"w", "serve"},
	Short:   "Serve a markdown file and reload viewers on every save",
	Long: `Render the file, serve it on a loopback port and keep watching it. Each
settled burst of saves re-renders the page and tells every open viewer to
reload. A save that fails to render keeps the previous page.

Stop with Ctrl+C.

Examples:
  mdreader watch notes.md
  mdreader watch notes.md --port 8080 --no-open
  mdreader watch notes.md --debounce 300ms`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: bindFlags(watchBindings),
	RunE:    runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addWatchFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return readererrors.ErrNoInput
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := session.New(session.Options{
		Path:   args[0],
		Config: cfg,
		Opener: newOpener(),
		Logger: logger,
		Out:    cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		select {
		case sig := <-sigs:
			s.Signal(sig)
		case <-s.Done():
		}
	}()

	return runSession(commandContext(cmd), s)
}

// runSession is the seam tests use to drive a watch without signals.
var runSession = func(ctx context.Context, s *session.Session) error {
	return s.Run(ctx)
}
