package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/fieldx/internal/app"
	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/infrastructure/cli/helpers"
	"github.com/doeshing/fieldx/internal/infrastructure/history"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect archived extraction results",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistorySearchCommand(container),
		newHistoryShowCommand(container),
		newHistoryExportCommand(container),
		newHistoryStatsCommand(container),
		newHistoryClearCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent archived extractions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.Context(), cmd.OutOrStdout(), container, limit, "")
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max entries to show")
	return cmd
}

// newHistorySearchCommand creates the 'history search' subcommand
func newHistorySearchCommand(container *app.Container) *cobra.Command {
	var query string
	var searchLimit int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search archived extractions for a keyword",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return errors.New(ErrQueryRequired)
			}
			return listHistoryEntries(cmd.Context(), cmd.OutOrStdout(), container, searchLimit, query)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search keyword (model, field, document or result text)")
	cmd.Flags().IntVar(&searchLimit, "limit", DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

// newHistoryShowCommand creates the 'history show' subcommand
func newHistoryShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one archived extraction in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryEntry(cmd.Context(), cmd.OutOrStdout(), container, args[0])
		},
	}
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Export archived extractions to JSONL or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportHistory(cmd.Context(), cmd.OutOrStdout(), container, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Export format: jsonl or xlsx (default from file extension)")
	return cmd
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show model usage and the most requested fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryStats(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all archived extractions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				reader := bufio.NewReader(cmd.InOrStdin())
				if !helpers.Confirm(cmd.OutOrStdout(), reader, "Delete all archived extractions?", false) {
					return nil
				}
			}
			if err := container.Archive().Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Archive cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// listHistoryEntries prints one line per archived record
func listHistoryEntries(ctx context.Context, out io.Writer, container *app.Container, limit int, query string) error {
	records, err := container.Archive().Records(ctx, limit, query)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		if !container.Config.Archive.Enabled {
			fmt.Fprintln(out, MsgArchiveDisabled)
		}
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(out, "%s | %s | %s | %s | %s\n",
			shortID(rec.ID),
			rec.Timestamp.Local().Format(domain.TimestampFormat),
			rec.Model,
			rec.DocumentName,
			strings.Join(rec.Fields, ", "))
	}

	return nil
}

// showHistoryEntry prints the record whose id starts with prefix
func showHistoryEntry(ctx context.Context, out io.Writer, container *app.Container, prefix string) error {
	records, err := container.Archive().Records(ctx, 0, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}

	for _, rec := range records {
		if strings.HasPrefix(rec.ID, prefix) {
			fmt.Fprintf(out, "ID: %s\nSession: %s\nTime: %s\nModel: %s %s\nDocument: %s\nFields: %s\nStyle: %s, word limit %d\n\n%s\n",
				rec.ID, rec.SessionID,
				rec.Timestamp.Local().Format(domain.TimestampFormat),
				rec.Tier, rec.Model,
				rec.DocumentName,
				strings.Join(rec.Fields, ", "),
				rec.OutputStyle, rec.WordCountLimit,
				strings.TrimSpace(rec.ResultText))
			return nil
		}
	}
	return fmt.Errorf("no archived extraction with id %s", prefix)
}

// exportHistory writes every archived record to path
func exportHistory(ctx context.Context, out io.Writer, container *app.Container, path, format string) error {
	if format == "" {
		format = FormatJSONL
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			format = FormatXLSX
		}
	}

	records, err := container.Archive().Records(ctx, 0, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	if err := history.Export(f, records, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Exported %d records to %s\n", len(records), path)
	return nil
}

// historyStatistics holds analyzed history statistics
type historyStatistics struct {
	total         int
	modelCounts   map[string]int
	fieldCounts   map[string]int
	totalDuration time.Duration
	timed         int
}

type countEntry struct {
	name  string
	count int
}

// showHistoryStats displays model usage and top fields
func showHistoryStats(ctx context.Context, out io.Writer, container *app.Container) error {
	records, err := container.Archive().Records(ctx, 0, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve history for analysis: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	displayHistoryStatistics(out, analyzeHistoryRecords(records))
	return nil
}

// analyzeHistoryRecords computes usage statistics
func analyzeHistoryRecords(records []domain.ArchivedRecord) historyStatistics {
	stats := historyStatistics{
		total:       len(records),
		modelCounts: make(map[string]int),
		fieldCounts: make(map[string]int),
	}

	for _, rec := range records {
		stats.modelCounts[rec.Model]++
		for _, field := range rec.Fields {
			stats.fieldCounts[field]++
		}
		if rec.Duration > 0 {
			stats.totalDuration += rec.Duration
			stats.timed++
		}
	}

	return stats
}

// displayHistoryStatistics displays formatted history statistics
func displayHistoryStatistics(out io.Writer, stats historyStatistics) {
	fmt.Fprintf(out, "Extractions archived: %d\n", stats.total)
	if stats.timed > 0 {
		avg := stats.totalDuration / time.Duration(stats.timed)
		fmt.Fprintf(out, "Average duration: %s\n", avg.Round(time.Millisecond))
	}

	fmt.Fprintln(out, "Models:")
	for _, entry := range topCounts(stats.modelCounts, 0) {
		fmt.Fprintf(out, "  %s (%d)\n", entry.name, entry.count)
	}

	fmt.Fprintln(out, "Top fields:")
	for _, entry := range topCounts(stats.fieldCounts, 5) {
		fmt.Fprintf(out, "  %s (%d)\n", entry.name, entry.count)
	}
}

// topCounts sorts by count descending then name; limit <= 0 keeps all
func topCounts(counts map[string]int, limit int) []countEntry {
	entries := make([]countEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, countEntry{name: name, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
