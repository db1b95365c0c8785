package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/daybook/internal/ui"
	"github.com/aretw0/daybook/pkg/core"
)

var (
	pomoName      string
	pomoMode      string
	pomoRemaining uint32
	pomoRunning   bool
	pomoCycles    uint32
	pomoStartTime uint64
)

var pomodoroCmd = &cobra.Command{
	Use:     "pomodoro",
	Aliases: []string{"pomo"},
	Short:   "Control the pomodoro timer",
}

func pomodoroAction(use, short string, fn func(svc *core.Service, ctx context.Context) (core.PomodoroState, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *core.Service) error {
				state, err := fn(svc, ctx)
				if err != nil {
					return err
				}
				return printPomodoro(cmd, state)
			})
		},
	}
}

var pomodoroStatusCmd = pomodoroAction("status", "Show the timer state", (*core.Service).PomodoroState)
var pomodoroStartCmd = pomodoroAction("start", "Start the timer", (*core.Service).StartPomodoro)
var pomodoroStopCmd = pomodoroAction("stop", "Stop the timer", (*core.Service).StopPomodoro)
var pomodoroResetCmd = pomodoroAction("reset", "Restore the default timer state", (*core.Service).ResetPomodoro)

var pomodoroSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Overwrite fields of the timer state",
	Long: `Overwrite fields of the timer state. Only the flags given are changed;
values are stored as given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			state, err := svc.PomodoroState(ctx)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				state.SessionName = pomoName
			}
			if flags.Changed("mode") {
				state.CurrentMode = pomoMode
			}
			if flags.Changed("remaining") {
				state.RemainingSeconds = pomoRemaining
			}
			if flags.Changed("running") {
				state.IsRunning = pomoRunning
			}
			if flags.Changed("cycles") {
				state.CycleCount = pomoCycles
			}
			if flags.Changed("start-time") {
				state.StartTime = pomoStartTime
			}
			if err := svc.UpdatePomodoroState(ctx, state); err != nil {
				return err
			}
			return printPomodoro(cmd, state)
		})
	},
}

var pomodoroWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the timer in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		cmd.SetContext(ctx)
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			return ui.RunPomodoro(ctx, svc)
		})
	},
}

func printPomodoro(cmd *cobra.Command, state core.PomodoroState) error {
	return emit(cmd, state, func(w io.Writer) {
		left := state.Remaining(time.Now())
		status := "stopped"
		if state.IsRunning {
			status = "running"
		}
		fmt.Fprintf(w, "%s %02d:%02d (%s), cycles: %d\n", state.CurrentMode, left/60, left%60, status, state.CycleCount)
		if state.SessionName != "" {
			fmt.Fprintf(w, "session: %s\n", state.SessionName)
		}
	})
}

func init() {
	rootCmd.AddCommand(pomodoroCmd)
	pomodoroCmd.AddCommand(pomodoroStatusCmd, pomodoroStartCmd, pomodoroStopCmd, pomodoroResetCmd, pomodoroSetCmd, pomodoroWatchCmd)

	flags := pomodoroSetCmd.Flags()
	flags.StringVar(&pomoName, "name", "", "Session name")
	flags.StringVar(&pomoMode, "mode", "", "Current mode (work, break)")
	flags.Uint32Var(&pomoRemaining, "remaining", 0, "Remaining seconds")
	flags.BoolVar(&pomoRunning, "running", false, "Whether the timer runs")
	flags.Uint32Var(&pomoCycles, "cycles", 0, "Completed work cycles")
	flags.Uint64Var(&pomoStartTime, "start-time", 0, "Start time in ms since the epoch")
}
