package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the tasks as CSV into the export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.start(cmd)
			if err != nil {
				return err
			}
			if history {
				exports, err := rt.Service.RecentExports(20)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTATUS\tSIZE\tSTARTED\tPATH")
				for _, e := range exports {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
						e.Id, e.Status, humanize.Bytes(uint64(e.Bytes)), humanize.Time(e.StartedAt), e.Path)
				}
				return tw.Flush()
			}
			if _, err := rt.Service.Export(cmd.Context()); err != nil {
				return reported(err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "List previous exports instead")
	return cmd
}

func (a *app) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the board theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.build(cmd.Context(), cmd.OutOrStdout(), a.verbose)
			if err != nil {
				return err
			}
			a.rt = rt
			if len(args) == 0 {
				theme, err := rt.Service.Theme()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), theme)
				return nil
			}
			theme, err := rt.Service.SetTheme(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s\n", theme)
			return nil
		},
	}
}

func (a *app) notificationsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show recent notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.build(cmd.Context(), cmd.OutOrStdout(), a.verbose)
			if err != nil {
				return err
			}
			a.rt = rt
			items, err := rt.Notifications.ListRecent(limit)
			if err != nil {
				return err
			}
			now := time.Now()
			for _, n := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-16s %s\n", n.Level, humanize.RelTime(n.CreatedAt, now, "ago", "from now"), n.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "How many to show")
	return cmd
}
