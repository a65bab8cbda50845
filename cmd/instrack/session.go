package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/0xmhha/instrack/pkg/config"
	"github.com/0xmhha/instrack/pkg/discovery"
	"github.com/0xmhha/instrack/pkg/display"
	"github.com/0xmhha/instrack/pkg/logger"
	"github.com/0xmhha/instrack/pkg/recorder"
	"github.com/0xmhha/instrack/pkg/session"
)

// sessionCommand handles session management subcommands.
type sessionCommand struct {
	opts    *globalOptions
	format  string
	compact bool
	dryRun  bool
	out     io.Writer
}

func newSessionCommand(opts *globalOptions) *cobra.Command {
	c := &sessionCommand{opts: opts}

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage tracked sessions",
	}
	cmd.PersistentFlags().StringVarP(&c.format, "format", "f", "table", "output format (table, json, simple)")
	cmd.PersistentFlags().BoolVar(&c.compact, "compact", false, "compact output")

	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions in the catalog and on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			return c.runList()
		},
	}

	show := &cobra.Command{
		Use:   "show <identifier>",
		Short: "Show a session and its run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			return c.runShow(args[0])
		},
	}

	del := &cobra.Command{
		Use:   "delete <identifier>",
		Short: "Delete a session's store and catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			return c.runDelete(args[0])
		},
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Drop catalog entries whose store no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.out = cmd.OutOrStdout()
			return c.runPrune()
		},
	}
	prune.Flags().BoolVar(&c.dryRun, "dry-run", false, "only print what would be removed")

	cmd.AddCommand(list, show, del, prune)
	return cmd
}

// formatter returns the configured display formatter.
func (c *sessionCommand) formatter() (display.Formatter, error) {
	format, err := display.ParseFormat(c.format)
	if err != nil {
		return nil, err
	}
	return display.New(display.Config{Format: format, Compact: c.compact}), nil
}

// runList lists every session known to the catalog or found on disk.
func (c *sessionCommand) runList() error {
	formatter, err := c.formatter()
	if err != nil {
		return err
	}

	cfg, log, err := c.opts.load()
	if err != nil {
		return err
	}

	mgr, err := openCatalog(cfg, log)
	if err != nil {
		return err
	}
	metas, err := mgr.List()
	closeCatalog(mgr, log)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	stores, err := discovery.New(cfg.ReportsDir(), log).Discover()
	if err != nil {
		return fmt.Errorf("failed to discover sessions: %w", err)
	}

	return formatter.FormatSessions(c.out, mergeSessions(metas, stores, log))
}

// runShow shows one session.
func (c *sessionCommand) runShow(id string) error {
	if err := session.ValidateIdentifier(id); err != nil {
		return err
	}
	formatter, err := c.formatter()
	if err != nil {
		return err
	}

	cfg, log, err := c.opts.load()
	if err != nil {
		return err
	}

	mgr, err := openCatalog(cfg, log)
	if err != nil {
		return err
	}
	meta, err := mgr.Get(id)
	closeCatalog(mgr, log)
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return fmt.Errorf("failed to get session: %w", err)
	}

	var stores []discovery.StoreFile
	store, findErr := discovery.New(cfg.ReportsDir(), log).Find(id)
	if findErr == nil {
		stores = append(stores, store)
	}

	var metas []*session.Metadata
	if meta != nil {
		metas = append(metas, meta)
	}
	if len(metas) == 0 && len(stores) == 0 {
		return fmt.Errorf("%w: %s", session.ErrSessionNotFound, id)
	}

	detail := display.SessionDetail{
		SessionSummary: mergeSessions(metas, stores, log)[0],
	}
	if meta != nil {
		detail.CreatedAt = meta.CreatedAt
		detail.History = runSummaries(meta.Runs)
	}
	return formatter.FormatSession(c.out, detail)
}

// runDelete removes a session directory and its catalog entry.
func (c *sessionCommand) runDelete(id string) error {
	if err := session.ValidateIdentifier(id); err != nil {
		return err
	}

	cfg, log, err := c.opts.load()
	if err != nil {
		return err
	}

	if err := deleteSession(cfg, log, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted session %s\n", id)
	return nil
}

// runPrune drops catalog entries whose store is gone.
func (c *sessionCommand) runPrune() error {
	cfg, log, err := c.opts.load()
	if err != nil {
		return err
	}

	mgr, err := openCatalog(cfg, log)
	if err != nil {
		return err
	}
	defer closeCatalog(mgr, log)

	metas, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	pruned := 0
	for _, meta := range metas {
		if _, err := os.Stat(meta.StorePath); !os.IsNotExist(err) {
			continue
		}
		if c.dryRun {
			fmt.Fprintf(c.out, "Would prune %s\n", meta.ID)
			pruned++
			continue
		}
		if err := mgr.Delete(meta.ID); err != nil {
			return fmt.Errorf("failed to delete session %s: %w", meta.ID, err)
		}
		fmt.Fprintf(c.out, "Pruned %s\n", meta.ID)
		pruned++
	}

	if pruned == 0 {
		fmt.Fprintln(c.out, "Nothing to prune")
	}
	return nil
}

// deleteSession removes the session directory, then the catalog entry.
func deleteSession(cfg *config.Config, log logger.Logger, id string) error {
	dir := filepath.Dir(discovery.StorePath(cfg.ReportsDir(), id))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}

	mgr, err := openCatalog(cfg, log)
	if err != nil {
		return err
	}
	defer closeCatalog(mgr, log)

	if err := mgr.Delete(id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	log.Debug("session deleted", "id", id, "dir", dir)
	return nil
}

// mergeSessions joins catalog entries and stores on disk by identifier.
func mergeSessions(metas []*session.Metadata, stores []discovery.StoreFile, log logger.Logger) []display.SessionSummary {
	byID := make(map[string]*display.SessionSummary)
	get := func(id string) *display.SessionSummary {
		s, ok := byID[id]
		if !ok {
			s = &display.SessionSummary{ID: id}
			byID[id] = s
		}
		return s
	}

	for _, meta := range metas {
		s := get(meta.ID)
		s.InCatalog = true
		s.StorePath = meta.StorePath
		s.UpdatedAt = meta.UpdatedAt
		s.Runs = len(meta.Runs)
		if last := meta.LastRun(); last != nil {
			s.LastCommand = last.Command
		}
	}

	for _, store := range stores {
		s := get(store.ID)
		s.OnDisk = true
		s.StorePath = store.Path
		s.Size = store.Size
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = store.ModTime
		}

		count, err := recorder.Count(store.Path)
		if err != nil {
			log.Debug("failed to count session store", "path", store.Path, "error", err)
			continue
		}
		s.PathCount = count
	}

	out := make([]display.SessionSummary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// runSummaries converts catalog runs for display, newest first.
func runSummaries(runs []session.Run) []display.RunSummary {
	out := make([]display.RunSummary, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		out = append(out, display.RunSummary{
			ID:           r.ID,
			Command:      r.Command,
			StartedAt:    r.StartedAt,
			Duration:     r.Duration(),
			Finished:     r.Finished(),
			ExitCode:     r.ExitCode,
			Dependencies: r.Dependencies,
			PathCount:    r.PathCount,
		})
	}
	return out
}
