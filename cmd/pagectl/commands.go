package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"go-cms-app/internal/auth"
	"go-cms-app/internal/data"
	"go-cms-app/internal/middleware"
	"go-cms-app/internal/pages"
	"go-cms-app/internal/service"

	"github.com/casbin/casbin/v2"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// cli holds the state shared by all pagectl commands.
type cli struct {
	svc      service.PageServicer
	enforcer casbin.IEnforcer
	subject  string
	language int64
	asJSON   bool
	out      io.Writer
}

// setupFunc fills in the service and enforcer of c and returns a cleanup function.
type setupFunc func(c *cli) (func(), error)

// newRootCmd returns the command tree and a release function that runs the
// cleanup of setup. Release must be called after Execute even when it fails.
func newRootCmd(setup setupFunc) (*cobra.Command, func()) {
	c := &cli{}
	cleanup := func() {}

	root := &cobra.Command{
		Use:          "pagectl",
		Short:        "Inspect and maintain the CMS page tree",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			if cmd.Name() == "help" {
				return nil
			}
			done, err := setup(c)
			if err != nil {
				return err
			}
			cleanup = done
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&c.subject, "subject", "pagectl", "subject checked against policies and recorded in admin logs")
	root.PersistentFlags().Int64Var(&c.language, "lang", 0, "language id; 0 uses the configured default")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(c.listCmd(), c.totalsCmd(), c.childrenCmd(), c.parentsCmd(), c.deleteCmd(), c.restoreCmd())
	release := func() {
		cleanup()
		cleanup = func() {}
	}
	return root, release
}

func (c *cli) listCmd() *cobra.Command {
	var links, groupPages, excludeHome bool
	var parent int64 = -1

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pages sorted by their path name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize("/pages", "GET"); err != nil {
				return err
			}
			opts := pages.ListOptions{ExcludeLinks: !links, ExcludeGroupPages: !groupPages, ExcludeHome: excludeHome}
			if cmd.Flags().Changed("parent") {
				opts.ParentID = &parent
			}
			entries, err := c.svc.ListPages(c.context(cmd), opts)
			if err != nil {
				return err
			}
			return c.print(entries, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tURL")
				for _, e := range entries {
					fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, e.Name, e.URL)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&links, "links", true, "include link pages")
	cmd.Flags().BoolVar(&groupPages, "group-pages", true, "include group pages and use their best path")
	cmd.Flags().BoolVar(&excludeHome, "exclude-home", false, "leave out the home page")
	cmd.Flags().Int64Var(&parent, "parent", -1, "only list pages under this parent; 0 is the top level")
	return cmd
}

func (c *cli) totalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Count pages against the configured page limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize("/pages/totals", "GET"); err != nil {
				return err
			}
			totals, err := c.svc.Totals(c.context(cmd))
			if err != nil {
				return err
			}
			return c.print(totals, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ALL\tTOP LEVEL\tLIMIT\tAT LIMIT")
				fmt.Fprintf(w, "%d\t%d\t%d\t%t\n", totals.All, totals.TopLevel, totals.Limit, totals.AtLimit)
			})
		},
	}
}

func (c *cli) childrenCmd() *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "children PAGE_ID",
		Short: "List the category members of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.authorize(auth.PageObject(id)+"/children", "GET"); err != nil {
				return err
			}
			children, err := c.svc.Children(c.context(cmd), id, live)
			if err != nil {
				return err
			}
			return c.print(children, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tPARENT\tORDER\tLIVE")
				for _, p := range children {
					fmt.Fprintf(w, "%d\t%d\t%d\t%t\n", p.ID, p.Parent, p.Order, p.Live)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "only list live pages")
	return cmd
}

func (c *cli) parentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parents PAGE_ID",
		Short: "Rank the pages a page may be located under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.authorize(auth.PageObject(id)+"/parents", "GET"); err != nil {
				return err
			}
			parents, err := c.svc.Parents(c.context(cmd), id)
			if err != nil {
				return err
			}
			return c.print(parents, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "PAGE\tPRIORITY")
				for _, p := range parents {
					fmt.Fprintf(w, "%d\t%d\n", p.PageID, p.Priority)
				}
			})
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PAGE_ID",
		Short: "Delete a page and every page below it, backing everything up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.authorize(auth.PageObject(id), "DELETE"); err != nil {
				return err
			}
			logIDs, err := c.svc.DeletePage(c.context(cmd), id)
			if err != nil {
				return err
			}
			return c.print(map[string][]int64{"log_ids": logIDs}, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "LOG ID")
				for _, logID := range logIDs {
					fmt.Fprintf(w, "%d\n", logID)
				}
			})
		},
	}
}

func (c *cli) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore LOG_ID",
		Short: "Write back every record backed up under an admin log entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.authorize(fmt.Sprintf("/backups/%d/restore", logID), "POST"); err != nil {
				return err
			}
			restored, err := c.svc.RestoreLog(c.context(cmd), logID)
			if err != nil {
				return err
			}
			return c.print(map[string]int64{"log_id": logID, "restored": int64(restored)}, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "Restored %d records from log %d\n", restored, logID)
			})
		},
	}
}

// context carries the subject and language the way a request context would.
func (c *cli) context(cmd *cobra.Command) context.Context {
	ctx := data.WithActor(cmd.Context(), c.subject)
	if c.language > 0 {
		ctx = middleware.WithLanguage(ctx, c.language)
	}
	return ctx
}

// authorize applies the route policy of the equivalent HTTP request.
func (c *cli) authorize(object, action string) error {
	allowed, err := c.enforcer.Enforce(c.subject, object, action)
	if err != nil {
		return fmt.Errorf("authorization check failed: %w", err)
	}
	if !allowed {
		return fmt.Errorf("%s may not %s %s", c.subject, action, object)
	}
	return nil
}

func (c *cli) print(v interface{}, table func(w *tabwriter.Writer)) error {
	if c.asJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	table(w)
	return w.Flush()
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
