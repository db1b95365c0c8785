package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/daybook/pkg/core"
)

var (
	sessionName    string
	sessionMinutes uint32
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Record and list completed pomodoro sessions",
}

var sessionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a completed session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			sessions, err := svc.SavePomodoroSession(ctx, sessionName, sessionMinutes)
			if err != nil {
				return err
			}
			return printSessions(cmd, sessions)
		})
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List completed sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			sessions, err := svc.PomodoroSessions(ctx)
			if err != nil {
				return err
			}
			return printSessions(cmd, sessions)
		})
	},
}

func printSessions(cmd *cobra.Command, sessions []core.PomodoroSession) error {
	return emit(cmd, sessions, func(w io.Writer) {
		if len(sessions) == 0 {
			fmt.Fprintln(w, "No sessions.")
			return
		}
		var total uint32
		for _, s := range sessions {
			fmt.Fprintf(w, "%d  %s  %d min  %s\n", s.ID, s.CompletedAt.Format("2006-01-02 15:04"), s.WorkMinutes, s.SessionName)
			total += s.WorkMinutes
		}
		fmt.Fprintf(w, "total: %d min\n", total)
	})
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionAddCmd, sessionListCmd)
	sessionAddCmd.Flags().StringVarP(&sessionName, "name", "n", "", "Session name")
	sessionAddCmd.Flags().Uint32VarP(&sessionMinutes, "minutes", "m", core.DefaultPomodoroSeconds/60, "Work minutes")
}
