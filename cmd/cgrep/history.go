package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oxhq/cgrep/db"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeDB, err := a.openHistory()
			if err != nil {
				return err
			}
			defer closeDB()

			runs, err := history.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.stdout, "no recorded runs")
				return nil
			}
			for _, run := range runs {
				fmt.Fprintf(a.stdout, "%s  %s  %-10s %4d matches  %s  %s\n",
					cyan(shortID(run.ID)),
					run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					run.Language,
					run.MatchCount,
					run.Root,
					oneLine(run.Snippet))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 = all)")

	cmd.AddCommand(a.newHistoryShowCmd())
	cmd.AddCommand(a.newHistoryPruneCmd())
	return cmd
}

func (a *app) newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run>",
		Short: "Print the hits of a recorded search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeDB, err := a.openHistory()
			if err != nil {
				return err
			}
			defer closeDB()

			run, err := history.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "run %s (%s) in %s\n", run.ID, run.Language, run.Root)
			if run.Pattern != "" {
				fmt.Fprintf(a.stdout, "pattern %s\n", run.Pattern)
			}
			for _, line := range db.HitLines(run) {
				fmt.Fprintln(a.stdout, line)
			}
			return nil
		},
	}
}

func (a *app) newHistoryPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("keep") {
				keep = a.cfg.RetentionRuns
			}
			if keep < 0 {
				return fmt.Errorf("--keep cannot be negative")
			}

			history, closeDB, err := a.openHistory()
			if err != nil {
				return err
			}
			defer closeDB()

			deleted, err := history.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "deleted %d runs\n", deleted)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "Number of runs to keep (default from config)")
	return cmd
}

func (a *app) newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <runA> <runB>",
		Short: "Diff the hits of two recorded searches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeDB, err := a.openHistory()
			if err != nil {
				return err
			}
			defer closeDB()

			first, err := history.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			second, err := history.Load(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			diff, err := db.DiffRuns(first, second)
			if err != nil {
				return err
			}
			if diff == "" {
				fmt.Fprintf(a.stdout, "%s runs %s and %s found the same hits\n",
					green("✅"), shortID(first.ID), shortID(second.ID))
				return nil
			}
			fmt.Fprint(a.stdout, diff)
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}
