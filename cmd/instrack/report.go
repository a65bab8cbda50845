package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/0xmhha/instrack/pkg/discovery"
	"github.com/0xmhha/instrack/pkg/display"
	"github.com/0xmhha/instrack/pkg/recorder"
	"github.com/0xmhha/instrack/pkg/session"
)

// reportCommand prints the paths recorded for a session.
type reportCommand struct {
	opts    *globalOptions
	format  string
	compact bool
	groupBy string
	depth   int
	prefix  string
	out     io.Writer
}

func newReportCommand(opts *globalOptions) *cobra.Command {
	c := &reportCommand{opts: opts}

	cmd := &cobra.Command{
		Use:   "report <identifier>",
		Short: "Show the paths recorded for a session",
		Example: `  instrack report vim-install
  instrack report vim-install --prefix /etc
  instrack report vim-install --group-by dir --depth 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			return c.Execute(args[0])
		},
	}

	cmd.Flags().StringVarP(&c.format, "format", "f", "", "output format (table, json, simple); default table on a terminal, simple otherwise")
	cmd.Flags().BoolVar(&c.compact, "compact", false, "compact output")
	cmd.Flags().StringVar(&c.groupBy, "group-by", "", "group paths (dir)")
	cmd.Flags().IntVar(&c.depth, "depth", 0, "directory depth for --group-by dir (0: full parent)")
	cmd.Flags().StringVar(&c.prefix, "prefix", "", "only show paths under this directory")
	return cmd
}

// Execute runs the report command.
func (c *reportCommand) Execute(id string) error {
	if err := session.ValidateIdentifier(id); err != nil {
		return err
	}
	if c.groupBy != "" && c.groupBy != "dir" {
		return fmt.Errorf("unknown grouping %q: must be dir", c.groupBy)
	}

	format, err := c.resolveFormat()
	if err != nil {
		return err
	}

	cfg, log, err := c.opts.load()
	if err != nil {
		return err
	}

	store, err := discovery.New(cfg.ReportsDir(), log).Find(id)
	if err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}

	paths, err := recorder.Paths(store.Path)
	if err != nil {
		return fmt.Errorf("failed to read session %s: %w", id, err)
	}
	paths = display.FilterPrefix(paths, c.prefix)

	formatter := display.New(display.Config{
		Format:  format,
		Compact: c.compact,
	})

	if c.groupBy == "dir" {
		return formatter.FormatDirectories(c.out, id, display.GroupByDir(paths, c.depth))
	}
	return formatter.FormatReport(c.out, display.Report{
		ID:        id,
		StorePath: store.Path,
		Paths:     paths,
	})
}

// resolveFormat applies the terminal-dependent default.
func (c *reportCommand) resolveFormat() (display.Format, error) {
	if c.format != "" {
		return display.ParseFormat(c.format)
	}
	if isTerminal(c.out) {
		return display.FormatTable, nil
	}
	return display.FormatSimple, nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
