package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/daybook/pkg/core"
)

const dayLayout = "2006-01-02"

var journalDate string

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Write and read the daily journal",
}

var journalWriteCmd = &cobra.Command{
	Use:   "write [content]",
	Short: "Write the journal entry of a day (today by default)",
	Long: `Write the journal entry of a day. An existing entry for the same UTC
calendar day is replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := journalDate
		if date == "" {
			date = time.Now().UTC().Format(time.RFC3339)
		} else {
			date = expandDay(date)
		}
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			entries, err := svc.AddJournalEntry(ctx, strings.Join(args, " "), date)
			if err != nil {
				return err
			}
			return printJournal(cmd, entries)
		})
	},
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			entries, err := svc.JournalEntries(ctx)
			if err != nil {
				return err
			}
			return printJournal(cmd, entries)
		})
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Show the entry of a day (YYYY-MM-DD or RFC 3339, today by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now().UTC().Format(time.RFC3339)
		if len(args) == 1 {
			date = expandDay(args[0])
		}
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			entry, found, err := svc.JournalEntryFor(ctx, date)
			if err != nil {
				return err
			}
			if !found {
				day, err := core.ParseJournalDate(date)
				if err != nil {
					return err
				}
				return fmt.Errorf("no journal entry for %s", day.Format(dayLayout))
			}
			return emit(cmd, entry, func(w io.Writer) {
				fmt.Fprintf(w, "%s\n\n%s\n", entry.Date.Format(dayLayout), entry.Content)
			})
		})
	},
}

// expandDay turns a bare YYYY-MM-DD into midnight UTC of that day.
func expandDay(s string) string {
	if _, err := time.Parse(dayLayout, s); err == nil {
		return s + "T00:00:00Z"
	}
	return s
}

func printJournal(cmd *cobra.Command, entries []core.JournalEntry) error {
	return emit(cmd, entries, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No journal entries.")
			return
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s  %s\n", e.Date.Format(dayLayout), firstLine(e.Content))
		}
	})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalWriteCmd, journalListCmd, journalShowCmd)
	journalWriteCmd.Flags().StringVarP(&journalDate, "date", "d", "", "Day to write (YYYY-MM-DD or RFC 3339)")
}
