package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/athapong/ontonote/pkg/inbox"
	"github.com/athapong/ontonote/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Turn files dropped into an inbox directory into notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = app.Config.InboxPath
			}
			if dir == "" {
				return errors.New("no inbox directory: use --inbox or set INBOX_PATH")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if app.Config.MetricsAddr != "" {
				metrics.Serve(ctx, app.Config.MetricsAddr, app.Logger)
			}

			w, err := inbox.New(dir, app.Pipeline, app.Logger)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&dir, "inbox", "", "Directory to watch (overrides INBOX_PATH)")
	return cmd
}

