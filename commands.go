package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/trackview/internal/api"
	"github.com/sadopc/trackview/internal/export"
	"github.com/sadopc/trackview/internal/launcher"
	"github.com/sadopc/trackview/internal/logger"
	"github.com/sadopc/trackview/internal/source"
	"github.com/sadopc/trackview/internal/store"
	"github.com/sadopc/trackview/internal/timeline"
	"github.com/sadopc/trackview/internal/tui"
)

func newViewCmd(g *globalFlags) *cobra.Command {
	var offline bool
	var file string

	cmd := &cobra.Command{
		Use:   "view [session-id]",
		Short: "Browse a session timeline and its screenshots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" && len(args) == 0 {
				return errors.New("a session id or --file is required")
			}
			e, err := setup(g, true)
			if err != nil {
				return err
			}
			defer e.Close()

			opts := tui.Options{
				Store:       e.store,
				Backend:     e.client,
				Opener:      launcher.Browser{},
				Clock:       e.clock,
				Theme:       e.cfg.Theme,
				DownloadDir: e.cfg.DownloadDir,
			}

			switch {
			case file != "":
				opts.Source = source.NewFile(file)
				w, err := source.NewWatcher(file)
				if err != nil {
					return fmt.Errorf("watch %s: %w", file, err)
				}
				w.Start()
				defer w.Stop()
				opts.Changes = w.Changes
				go func() {
					for {
						select {
						case err := <-w.Errors:
							logger.Logger.Warn().Err(err).Str("file", file).Msg("watch session file")
						case <-cmd.Context().Done():
							return
						}
					}
				}()
			case offline:
				opts.Source = source.NewOffline(e.store, args[0], e.clock)
			default:
				opts.Source = source.NewAPI(e.client, e.store, args[0], e.clock)
			}

			app := tui.NewApp(cmd.Context(), opts)
			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "use the cached copy instead of the API")
	cmd.Flags().StringVar(&file, "file", "", "read the session from a JSON file and reload it on change")
	return cmd
}

// loadSession reads a session from the API (refreshing the cache) or from the
// cache alone.
func loadSession(cmd *cobra.Command, e *env, id string, offline bool) (*timeline.Session, error) {
	var src source.Source = source.NewAPI(e.client, e.store, id, e.clock)
	if offline {
		src = source.NewOffline(e.store, id, e.clock)
	}
	return src.Load(cmd.Context())
}

func newSummaryCmd(g *globalFlags) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "summary <session-id>",
		Short: "Print session and per-block productivity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g, false)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := loadSession(cmd, e, args[0], offline)
			if err != nil {
				return err
			}
			history, err := e.store.LatestExplanations(args[0])
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), s, timeline.NewCalculator(e.clock), history)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "use the cached copy instead of the API")
	return cmd
}

func printSummary(w io.Writer, s *timeline.Session, calc timeline.Calculator, history map[int64]store.Explanation) error {
	blocks := calc.Blocks(s)
	sum := calc.Session(s, blocks)
	tl := timeline.Normalize(s)

	state := "ended"
	if !s.Ended() {
		state = "in progress"
	}
	_, _ = fmt.Fprintf(w, "Session %d  %s  %s (%s)\n", s.ID,
		timeline.FormatTimestamp(s.StartedAt), timeline.FormatRange(s.StartedAt, s.EndedAt), state)
	_, _ = fmt.Fprintf(w, "Total %s  Worked %s  Idle %s  Productivity %d%%\n",
		timeline.FormatDuration(s.TotalSeconds),
		timeline.FormatDuration(sum.WorkedSeconds),
		timeline.FormatDuration(sum.IdleSeconds),
		sum.Productivity)
	_, _ = fmt.Fprintf(w, "%d blocks, %d screenshots, %d flagged screenshots\n",
		tl.BlockCount, tl.ScreenshotCount, tl.FlaggedScreenshotCount())
	if sum.Diverges {
		_, _ = fmt.Fprintf(w, "warning: blocks add up to %s but the session reports %s\n",
			timeline.FormatDuration(sum.BlockTotalSeconds), timeline.FormatDuration(s.TotalSeconds))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Block", "Time", "Worked", "Idle", "Prod", "Shots", "Flag", "Explanation")
	for i, b := range s.TimeBlocks {
		m := blocks[i]
		flag := ""
		if b.IsFlagged {
			flag = "yes"
		}
		explained := ""
		if e, ok := history[b.ID]; ok {
			explained = string(e.Status)
		}
		t.Row(
			strconv.Itoa(i+1),
			strconv.FormatInt(b.ID, 10),
			timeline.FormatRange(b.StartedAt, b.EndedAt),
			timeline.FormatDuration(m.Worked),
			timeline.FormatDuration(m.Idle),
			fmt.Sprintf("%d%%", m.Productivity),
			strconv.Itoa(len(tl.ForBlock(b.ID))),
			flag,
			explained,
		)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var format, out string
	var offline bool

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export per-block metrics as CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q, want csv or json", format)
			}
			e, err := setup(g, false)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := loadSession(cmd, e, args[0], offline)
			if err != nil {
				return err
			}
			r := export.Build(s, timeline.NewCalculator(e.clock))
			history, err := e.store.LatestExplanations(args[0])
			if err != nil {
				return err
			}
			r.Explanations = make(map[int64]string, len(history))
			for id, x := range history {
				r.Explanations[id] = string(x.Status)
			}

			if out == "" || out == "-" {
				if format == "json" {
					return export.WriteJSON(cmd.OutOrStdout(), r)
				}
				return export.WriteCSV(cmd.OutOrStdout(), r)
			}
			if format == "json" {
				err = export.ToJSON(r, out)
			} else {
				err = export.ToCSV(r, out)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "exported %d blocks to %s\n", len(r.Blocks), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv|json")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the cached copy instead of the API")
	return cmd
}

func newExplainCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <session-id> <block-id> <text>",
		Short: "Submit an explanation for a flagged block",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			blockID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid block id %q", args[1])
			}
			e, err := setup(g, false)
			if err != nil {
				return err
			}
			defer e.Close()

			src := source.NewAPI(e.client, e.store, args[0], e.clock)
			s, err := src.Load(cmd.Context())
			if err != nil {
				return err
			}
			b := s.Block(blockID)
			if b == nil {
				return fmt.Errorf("block %d is not part of session %d", blockID, s.ID)
			}
			if !b.IsFlagged {
				return fmt.Errorf("block %d is not flagged", blockID)
			}

			log := logger.With("block_id", blockID)
			rec := store.Explanation{
				SessionKey: src.Key(),
				BlockID:    blockID,
				Text:       args[2],
				Status:     store.ExplanationSubmitted,
				CreatedAt:  e.clock.Now(),
			}
			submitErr := e.client.SubmitExplanation(cmd.Context(), blockID, args[2])
			if submitErr != nil {
				rec.Status = store.ExplanationFailed
				rec.Error = submitErr.Error()
				log.Error().Err(submitErr).Msg("submit explanation")
			}
			if _, err := e.store.RecordExplanation(rec); err != nil {
				log.Warn().Err(err).Msg("record explanation history")
			}
			if submitErr != nil {
				return errors.New(api.UserMessage(submitErr, "failed to submit explanation"))
			}

			s, err = src.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("explanation submitted, reload failed: %w", err)
			}
			state := "still flagged"
			if b := s.Block(blockID); b == nil || !b.IsFlagged {
				state = "no longer flagged"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "explanation submitted for block %d (%s)\n", blockID, state)
			return nil
		},
	}
}

func newCacheCmd(g *globalFlags) *cobra.Command {
	cache := &cobra.Command{Use: "cache", Short: "Inspect the local session cache"}

	cache.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(g, false)
			if err != nil {
				return err
			}
			defer e.Close()

			cached, err := e.store.ListCached()
			if err != nil {
				return err
			}
			return printCached(cmd.OutOrStdout(), cached)
		},
	})

	cache.AddCommand(&cobra.Command{
		Use:   "rm <key>",
		Short: "Remove a cached session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.DeleteSession(args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	})
	return cache
}

func printCached(w io.Writer, cached []store.CachedSession) error {
	if len(cached) == 0 {
		_, err := fmt.Fprintln(w, "no cached sessions")
		return err
	}
	for _, c := range cached {
		flag := ""
		if c.Flagged {
			flag = "\tflagged"
		}
		_, _ = fmt.Fprintf(w, "%s\tsession %d\t%d blocks\tfetched %s%s\n",
			c.Key, c.SessionID, c.BlockCount, humanize.Time(c.FetchedAt), flag)
	}
	return nil
}
