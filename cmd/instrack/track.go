package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/0xmhha/instrack/pkg/tracker"
)

// trackCommand runs a command under the interception module.
type trackCommand struct {
	opts   *globalOptions
	quiet  bool
	errOut io.Writer
}

func newTrackCommand(opts *globalOptions) *cobra.Command {
	c := &trackCommand{opts: opts}

	cmd := &cobra.Command{
		Use:   "track <identifier> <command> [args...]",
		Short: "Run a command and record the files it touches",
		Long: `Run a command with the interception module preloaded. Paths are recorded
into the session named by identifier; tracking the same identifier again
adds to it. The command may also be given as a single quoted string.`,
		Example: `  instrack track vim-install make install
  instrack track build "./configure --prefix=/opt/app"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.errOut = cmd.ErrOrStderr()
			return c.Execute(cmd.Context(), args[0], args[1:])
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "do not print the run summary")
	return cmd
}

// Execute runs the track command. A non-zero exit of the tracked command
// becomes the exit status of instrack.
func (c *trackCommand) Execute(ctx context.Context, id string, argv []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, err := c.opts.load()
	if err != nil {
		return err
	}

	res, err := tracker.New(cfg, log).Track(ctx, id, argv)
	if err != nil {
		return err
	}

	if !c.quiet {
		fmt.Fprintf(c.errOut, "instrack: session %s: %s paths (%d dependencies), exit %d after %s\n",
			res.ID,
			humanize.Comma(int64(res.PathCount)),
			len(res.Dependencies),
			res.ExitCode,
			res.Duration.Round(time.Millisecond))
	}

	switch {
	case res.ExitCode == 0:
		return nil
	case res.ExitCode < 0:
		return &exitError{code: 1}
	default:
		return &exitError{code: res.ExitCode}
	}
}
