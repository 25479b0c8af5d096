// Package cli is the eisenhower command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/TWRT/eisenhower-matrix/internal/filter"
)

// reportedError marks a failure the user has already seen as a
// notification; Execute only sets the exit status for it.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

type filterFlags struct {
	search        string
	kind          string
	from          string
	to            string
	categories    []string
	showCompleted bool
	sortBy        string
	sortOrder     string
}

type app struct {
	build   Builder
	verbose bool
	filters filterFlags
	rt      *Runtime
}

// NewRootCmd builds the command tree. Commands that talk to the backend get
// their runtime from build.
func NewRootCmd(build Builder) *cobra.Command {
	a := &app{build: build}

	root := &cobra.Command{
		Use:           "eisenhower",
		Short:         "Eisenhower matrix task board",
		Long:          "Manage tasks in the four Eisenhower quadrants: Do First, Schedule, Delegate and Eliminate.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.rt != nil {
				return a.rt.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&a.filters.search, "search", "", "Only tasks whose title or description matches (filter flags apply to this run only)")
	flags.StringVar(&a.filters.kind, "filter", "", "all, overdue, today, week or completed")
	flags.StringVar(&a.filters.from, "from", "", "Due on or after YYYY-MM-DD")
	flags.StringVar(&a.filters.to, "to", "", "Due on or before YYYY-MM-DD")
	flags.StringSliceVar(&a.filters.categories, "category", nil, "Category name or id (repeatable)")
	flags.BoolVar(&a.filters.showCompleted, "show-completed", true, "Include completed tasks")
	flags.StringVar(&a.filters.sortBy, "sort-by", "", "due_date, title or category")
	flags.StringVar(&a.filters.sortOrder, "sort-order", "", "asc or desc")

	root.AddCommand(
		a.boardCmd(),
		a.addCmd(),
		a.editCmd(),
		a.moveCmd(),
		a.doneCmd(true),
		a.doneCmd(false),
		a.rmCmd(),
		a.categoriesCmd(),
		a.categoryCmd(),
		a.exportCmd(),
		a.themeCmd(),
		a.notificationsCmd(),
		a.serveCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit status.
func Execute(ctx context.Context, build Builder, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(build)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var seen reportedError
	if !errors.As(err, &seen) {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return 1
}

// start builds the runtime, loads the board and applies any filter flags
// given on the command line.
func (a *app) start(cmd *cobra.Command) (*Runtime, error) {
	rt, err := a.build(cmd.Context(), cmd.OutOrStdout(), a.verbose)
	if err != nil {
		return nil, err
	}
	a.rt = rt

	svc := rt.Service
	if err := svc.Start(cmd.Context()); err != nil {
		return nil, reported(err)
	}

	if !a.filterFlagsChanged(cmd) {
		return rt, nil
	}
	settings := svc.Filter().Settings()
	if err := a.overlayFilterFlags(cmd, &settings); err != nil {
		return nil, err
	}
	if err := svc.OverrideFilter(settings); err != nil {
		return nil, err
	}
	if snap := svc.Store().Snapshot(); snap.LoadErr != nil {
		return nil, reported(snap.LoadErr)
	}
	return rt, nil
}

var filterFlagNames = []string{"search", "filter", "from", "to", "category", "show-completed", "sort-by", "sort-order"}

func (a *app) filterFlagsChanged(cmd *cobra.Command) bool {
	for _, name := range filterFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (a *app) overlayFilterFlags(cmd *cobra.Command, s *filter.Settings) error {
	changed := cmd.Flags().Changed
	if changed("search") {
		s.Search = a.filters.search
	}
	if changed("filter") {
		s.Filter = a.filters.kind
	}
	if changed("from") {
		s.DateFrom = a.filters.from
	}
	if changed("to") {
		s.DateTo = a.filters.to
	}
	if changed("show-completed") {
		s.ShowCompleted = a.filters.showCompleted
	}
	if changed("sort-by") {
		s.SortBy = a.filters.sortBy
	}
	if changed("sort-order") {
		s.SortOrder = a.filters.sortOrder
	}
	if changed("category") {
		ids, err := a.resolveCategories(a.filters.categories)
		if err != nil {
			return err
		}
		s.Categories = ids
	}
	return nil
}

func (a *app) resolveCategories(refs []string) ([]int, error) {
	ids := make([]int, 0, len(refs))
	for _, ref := range refs {
		id, err := a.resolveCategory(ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
