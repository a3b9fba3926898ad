package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.pilab.hu/hospital/guard"
	"go.pilab.hu/hospital/nav"
)

var (
	errNotSignedIn = errors.New("not signed in, run `hospitalctl auth login`")
	errUnknownPage = errors.New("unknown page")
)

// openPage runs the route guard for path the way the dashboard would and records the
// visit when the page renders.
func openPage(ctx context.Context, path string) error {
	route, _, ok := guard.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownPage, path)
	}

	d := guard.New(app.Session).Resolve(ctx, route, path)

	switch d.Outcome {
	case guard.OutcomeRender:
		app.History.Record(ctx, path)
		return nil
	case guard.OutcomeRedirectLogin:
		return errNotSignedIn
	case guard.OutcomeRedirectRole:
		return fmt.Errorf("%s is not available to %s accounts, use %s", path, app.Session.Role(), d.Location)
	default:
		return fmt.Errorf("%s redirects to %s", path, d.Location)
	}
}

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "Inspect dashboard navigation",
}

var navMenuCmd = &cobra.Command{
	Use:   "menu [path]",
	Short: "Show the sidebar menu for a page",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path := app.Session.Role().LandingPath()
		if len(args) == 1 {
			path = args[0]
		}

		shell := nav.BuildShell(path, app.Session.CurrentUser(), app.History.Recent(ctx))

		rows := make([][]string, 0, len(shell.Menu))
		for _, item := range shell.Menu {
			marker := ""
			if item.Active {
				marker = "*"
			}
			rows = append(rows, []string{marker, item.Name, item.Href})
		}

		return printView(cmd.OutOrStdout(), outputFormat, view{
			Value:   shell,
			Headers: []string{"", "NAME", "HREF"},
			Rows:    rows,
		})
	},
}

var navHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently visited pages, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		recent := app.History.Recent(cmd.Context())

		rows := make([][]string, 0, len(recent))
		for i, path := range recent {
			rows = append(rows, []string{itoa(i + 1), path})
		}

		return printView(cmd.OutOrStdout(), outputFormat, view{
			Value:   recent,
			Headers: []string{"#", "PATH"},
			Rows:    rows,
		})
	},
}

var navOpenCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Evaluate the route guard for a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		route, params, ok := guard.Lookup(path)
		if !ok {
			return fmt.Errorf("%w: %s", errUnknownPage, path)
		}

		d := guard.New(app.Session).Resolve(ctx, route, path)
		if d.Outcome == guard.OutcomeRender {
			app.History.Record(ctx, path)
		}

		pairs := []string{"route", route.Name, "outcome", string(d.Outcome)}
		if d.Location != "" {
			pairs = append(pairs, "location", d.Location)
		}
		if d.From != "" {
			pairs = append(pairs, "from", d.From)
		}
		for k, v := range params {
			pairs = append(pairs, ":"+k, v)
		}

		return printView(cmd.OutOrStdout(), outputFormat, fieldView(d, pairs...))
	},
}

func init() {
	navCmd.AddCommand(navMenuCmd, navHistoryCmd, navOpenCmd)
	rootCmd.AddCommand(navCmd)
}
