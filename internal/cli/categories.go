package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TWRT/eisenhower-matrix/internal/models"
)

// resolveCategory accepts a category id or an exact name.
func (a *app) resolveCategory(ref string) (int, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return id, nil
	}
	cat, ok := a.rt.Service.Store().CategoryByName(ref)
	if !ok {
		return 0, fmt.Errorf("unknown category %q", ref)
	}
	return cat.Id, nil
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tICON")
			for _, c := range rt.Service.Categories() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.Id, c.Name, c.Color, c.Icon)
			}
			return tw.Flush()
		},
	}
}

func (a *app) categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Create, rename or delete a category",
	}

	var color, icon string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			input := models.CategoryInput{Name: args[0], Color: color, Icon: icon}
			if _, err := rt.Service.CreateCategory(cmd.Context(), input); err != nil {
				return reported(err)
			}
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "Display color, e.g. #3b82f6")
	add.Flags().StringVar(&icon, "icon", "", "Icon name")

	rename := &cobra.Command{
		Use:   "rename <id|name> <new-name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			id, err := a.resolveCategory(args[0])
			if err != nil {
				return err
			}
			input := models.CategoryInput{Name: args[1]}
			for _, c := range rt.Service.Categories() {
				if c.Id == id {
					input.Color, input.Icon = c.Color, c.Icon
				}
			}
			if _, err := rt.Service.UpdateCategory(cmd.Context(), id, input); err != nil {
				return reported(err)
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id|name>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			id, err := a.resolveCategory(args[0])
			if err != nil {
				return err
			}
			if err := rt.Service.DeleteCategory(cmd.Context(), id); err != nil {
				return reported(err)
			}
			return nil
		},
	}

	cmd.AddCommand(add, rename, rm)
	return cmd
}
