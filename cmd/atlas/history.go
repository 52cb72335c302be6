package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/atlas/internal/cli"
	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/model"
	"github.com/Veraticus/atlas/internal/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past classification runs",
		Long:  `List, show, and delete the classification runs recorded in the history database.`,
	}

	cmd.AddCommand(listRunsCmd())
	cmd.AddCommand(showRunCmd())
	cmd.AddCommand(deleteRunCmd())

	return cmd
}

func listRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Long: `List recorded runs, newest first.

Examples:
  atlas history list --limit 10
  atlas history list --status unsatisfied --since 168h
  atlas history list --field "Statistical Methodology" --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			filter, err := runFilter(cmd)
			if err != nil {
				return err
			}
			formatter, err := newFormatter(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			runs, err := store.ListRuns(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			return formatter.Runs(runs)
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "maximum number of runs to show (0 = all)")
	cmd.Flags().Int("offset", 0, "number of runs to skip")
	cmd.Flags().String("status", "", "only runs with this status (complete, unsatisfied, failed)")
	cmd.Flags().StringP("college", "c", "", "only runs in this college")
	cmd.Flags().String("field", "", "only runs labeled with this field")
	cmd.Flags().String("since", "", "only runs newer than a duration (72h) or a date (2024-01-31)")
	addOutputFlags(cmd)

	return cmd
}

func runFilter(cmd *cobra.Command) (service.RunFilter, error) {
	flags := cmd.Flags()
	var filter service.RunFilter
	filter.Limit, _ = flags.GetInt("limit")
	filter.Offset, _ = flags.GetInt("offset")
	filter.College, _ = flags.GetString("college")
	filter.Field, _ = flags.GetString("field")

	status, _ := flags.GetString("status")
	filter.Status = model.RunStatus(strings.ToLower(status))

	if since, _ := flags.GetString("since"); since != "" {
		t, err := parseSince(since, time.Now())
		if err != nil {
			return service.RunFilter{}, err
		}
		filter.Since = &t
	}
	return filter, nil
}

// parseSince accepts a duration counted back from now or a YYYY-MM-DD date.
func parseSince(value string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid --since %q (use a duration like 72h or a date like 2024-01-31)",
		common.ErrInvalidConfig, value)
}

func showRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full result of a run",
		Long:  `Show the full result of a run. The ID may be abbreviated to any unique prefix.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			formatter, err := newFormatter(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			id, err := resolveRunID(ctx, store, args[0])
			if err != nil {
				return err
			}
			result, err := store.GetRun(ctx, id)
			if err != nil {
				return err
			}
			return formatter.Result(result)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func deleteRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			id, err := resolveRunID(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteRun(ctx, id); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted run "+id))
			return err
		},
	}
}

// resolveRunID expands a unique ID prefix to the full run ID.
func resolveRunID(ctx context.Context, store service.Storage, prefix string) (string, error) {
	_, err := store.GetRun(ctx, prefix)
	if err == nil {
		return prefix, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return "", err
	}

	runs, err := store.ListRuns(ctx, service.RunFilter{})
	if err != nil {
		return "", fmt.Errorf("failed to list runs: %w", err)
	}

	var matches []string
	for _, run := range runs {
		if strings.HasPrefix(run.ID, prefix) {
			matches = append(matches, run.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %s: %w", prefix, common.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run ID prefix %q is ambiguous: %d runs match", prefix, len(matches))
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}
