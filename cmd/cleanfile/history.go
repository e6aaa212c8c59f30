package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/JonMunkholm/cleanfile/internal/service"
	"github.com/JonMunkholm/cleanfile/internal/store"
	"github.com/JonMunkholm/cleanfile/internal/summary"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs saved to the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !a.cfg.Database.HistoryEnabled() {
				return userError(service.ErrHistoryDisabled)
			}

			pool, err := store.Connect(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := store.AutoMigrate(ctx, pool); err != nil {
				return err
			}
			st := store.New(pool)

			page, err := st.List(ctx, limit, offset)
			if err != nil {
				return err
			}
			totals, err := st.Totals(ctx)
			if err != nil {
				return err
			}
			return printHistory(cmd, page, totals.Total, totals.Runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "runs to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "runs to skip, newest first")
	return cmd
}

func printHistory(cmd *cobra.Command, page *store.Page, total, runs int) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s across %d run(s)\n\n", summary.Headline(total), runs)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tFILE\tOUTPUT\tROWS\tREMOVED")
	for _, rec := range page.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.FileName, rec.OutputName, rec.Rows, rec.Total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if shown := page.Offset + len(page.Records); int64(shown) < page.TotalCount {
		fmt.Fprintf(w, "\n%d more; use --offset %d\n", page.TotalCount-int64(shown), shown)
	}
	return nil
}
