package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TWRT/eisenhower-matrix/internal/drag"
	"github.com/TWRT/eisenhower-matrix/internal/models"
	"github.com/TWRT/eisenhower-matrix/internal/render"
)

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func (a *app) boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show the four quadrants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			board := rt.Service.Board(time.Now())
			out := cmd.OutOrStdout()
			if err := render.WriteBoard(out, board, render.ColorEnabled(out)); err != nil {
				return err
			}
			if board.Error != "" {
				return reported(rt.Service.Store().Snapshot().LoadErr)
			}
			return nil
		},
	}
}

type taskFields struct {
	title       string
	description string
	category    string
	due         string
	quadrant    string
	reminder    bool
	tags        []string
}

func (f *taskFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Task title")
	cmd.Flags().StringVar(&f.description, "description", "", "Task description")
	cmd.Flags().StringVar(&f.category, "category-name", "", "Category name")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date, YYYY-MM-DD or YYYY-MM-DDTHH:MM")
	cmd.Flags().StringVarP(&f.quadrant, "quadrant", "q", "", "urgent-important, not-urgent-important, urgent-not-important or not-urgent-not-important")
	cmd.Flags().BoolVar(&f.reminder, "reminder", false, "Set a reminder")
	cmd.Flags().StringSliceVar(&f.tags, "tags", nil, "Comma separated tags")
}

func (a *app) addCmd() *cobra.Command {
	var f taskFields
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := models.TaskInput{
				Title:       f.title,
				Description: f.description,
				Category:    f.category,
				Quadrant:    models.Quadrant(strings.TrimSpace(f.quadrant)),
				ReminderSet: f.reminder,
				Tags:        f.tags,
			}
			if f.due != "" {
				due, err := models.ParseDueInput(f.due)
				if err != nil {
					return err
				}
				input.DueDate = due
			}

			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			task, err := rt.Service.CreateTask(cmd.Context(), input)
			if err != nil {
				return reported(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %s -> %s\n", task.Id, task.Title, task.Quadrant.Title())
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var f taskFields
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			var patch models.TaskPatch
			if changed("title") {
				patch.Title = &f.title
			}
			if changed("description") {
				patch.Description = &f.description
			}
			if changed("category-name") {
				patch.Category = &f.category
			}
			if changed("due") {
				due, err := models.ParseDueInput(f.due)
				if err != nil {
					return err
				}
				patch.DueDate = &due
			}
			if changed("quadrant") {
				q := models.Quadrant(strings.TrimSpace(f.quadrant))
				patch.Quadrant = &q
			}
			if changed("reminder") {
				patch.ReminderSet = &f.reminder
			}
			if changed("tags") {
				patch.Tags = &f.tags
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to change, pass at least one field flag")
			}

			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			if _, err := rt.Service.UpdateTask(cmd.Context(), id, patch); err != nil {
				return reported(err)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <quadrant>",
		Short: "Drag a task into another quadrant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			q, err := models.ParseQuadrant(args[1])
			if err != nil {
				return err
			}

			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			outcome, err := rt.Service.MoveTask(cmd.Context(), id, q)
			switch {
			case outcome == drag.DropFailed:
				return reported(err)
			case err != nil:
				return err
			case outcome == drag.DropNoOp:
				fmt.Fprintf(cmd.OutOrStdout(), "#%d is already in %s\n", id, q.Title())
			}
			return nil
		},
	}
}

func (a *app) doneCmd(completed bool) *cobra.Command {
	use, short := "done <id>", "Mark a task completed"
	if !completed {
		use, short = "undone <id>", "Mark a task not completed"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			if _, err := rt.Service.SetCompleted(cmd.Context(), id, completed); err != nil {
				return reported(err)
			}
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			if err := rt.Service.DeleteTask(cmd.Context(), id); err != nil {
				return reported(err)
			}
			return nil
		},
	}
}
