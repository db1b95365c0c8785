package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/daybook/pkg/core"
)

var (
	goalTitle      string
	goalMotivation string
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a goal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			goals, err := svc.AddGoal(ctx, goalTitle, goalMotivation)
			if err != nil {
				return err
			}
			return printGoals(cmd, goals)
		})
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			goals, err := svc.Goals(ctx)
			if err != nil {
				return err
			}
			return printGoals(cmd, goals)
		})
	},
}

var goalUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Replace the title and motivation of a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			goals, err := svc.UpdateGoal(ctx, id, goalTitle, goalMotivation)
			if err != nil {
				return err
			}
			return printGoals(cmd, goals)
		})
	},
}

var goalRemoveCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"remove"},
	Short:   "Remove a goal",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			goals, err := svc.RemoveGoal(ctx, id)
			if err != nil {
				return err
			}
			return printGoals(cmd, goals)
		})
	},
}

func printGoals(cmd *cobra.Command, goals []core.Goal) error {
	return emit(cmd, goals, func(w io.Writer) {
		if len(goals) == 0 {
			fmt.Fprintln(w, "No goals.")
			return
		}
		for _, g := range goals {
			fmt.Fprintf(w, "%d  %s\n", g.ID, g.Title)
			if g.Motivation != "" {
				fmt.Fprintf(w, "    why: %s\n", g.Motivation)
			}
		}
	})
}

func init() {
	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalAddCmd, goalListCmd, goalUpdateCmd, goalRemoveCmd)
	for _, c := range []*cobra.Command{goalAddCmd, goalUpdateCmd} {
		c.Flags().StringVarP(&goalTitle, "title", "t", "", "Goal title")
		c.Flags().StringVarP(&goalMotivation, "motivation", "m", "", "Why this goal matters")
	}
}
