package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/daybook/pkg/core"
)

var (
	noteTitle   string
	noteContent string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			notes, err := svc.AddNote(ctx, noteTitle, noteContent)
			if err != nil {
				return err
			}
			return printNotes(cmd, notes)
		})
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			notes, err := svc.Notes(ctx)
			if err != nil {
				return err
			}
			return printNotes(cmd, notes)
		})
	},
}

var noteUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Replace the title and content of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			notes, err := svc.UpdateNote(ctx, id, noteTitle, noteContent)
			if err != nil {
				return err
			}
			return printNotes(cmd, notes)
		})
	},
}

var noteRemoveCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"delete"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			notes, err := svc.DeleteNote(ctx, id)
			if err != nil {
				return err
			}
			return printNotes(cmd, notes)
		})
	},
}

func printNotes(cmd *cobra.Command, notes []core.Note) error {
	return emit(cmd, notes, func(w io.Writer) {
		if len(notes) == 0 {
			fmt.Fprintln(w, "No notes.")
			return
		}
		for _, n := range notes {
			fmt.Fprintf(w, "%d  %s\n", n.ID, n.Title)
			if n.Content != "" {
				fmt.Fprintf(w, "    %s\n", n.Content)
			}
		}
	})
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteUpdateCmd, noteRemoveCmd)
	for _, c := range []*cobra.Command{noteAddCmd, noteUpdateCmd} {
		c.Flags().StringVarP(&noteTitle, "title", "t", "", "Note title")
		c.Flags().StringVarP(&noteContent, "content", "c", "", "Note content")
	}
}
