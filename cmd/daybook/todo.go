package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/daybook/pkg/core"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage the todo list",
}

var todoAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a todo",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			todos, err := svc.AddTodo(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printTodos(cmd, todos)
		})
	},
}

var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			todos, err := svc.Todos(ctx)
			if err != nil {
				return err
			}
			return printTodos(cmd, todos)
		})
	},
}

var todoToggleCmd = &cobra.Command{
	Use:   "toggle [id]",
	Short: "Flip the completed flag of a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			todos, err := svc.ToggleTodo(ctx, id)
			if err != nil {
				return err
			}
			return printTodos(cmd, todos)
		})
	},
}

var todoRemoveCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"remove"},
	Short:   "Remove a todo",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *core.Service) error {
			todos, err := svc.RemoveTodo(ctx, id)
			if err != nil {
				return err
			}
			return printTodos(cmd, todos)
		})
	},
}

func printTodos(cmd *cobra.Command, todos []core.TodoItem) error {
	return emit(cmd, todos, func(w io.Writer) {
		if len(todos) == 0 {
			fmt.Fprintln(w, "No todos.")
			return
		}
		for _, t := range todos {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Fprintf(w, "[%s] %d  %s\n", mark, t.ID, t.Text)
		}
	})
}

func init() {
	rootCmd.AddCommand(todoCmd)
	todoCmd.AddCommand(todoAddCmd, todoListCmd, todoToggleCmd, todoRemoveCmd)
}
