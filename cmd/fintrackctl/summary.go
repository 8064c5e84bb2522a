package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"fintrack/internal/aggregate"
)

type summaryCmd struct {
	User string `required:"" help:"User id to summarize."`
	JSON bool   `name:"json" help:"Print the full report as JSON."`
}

func (c *summaryCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return c.run(ctx, g, a)
}

func (c *summaryCmd) run(ctx context.Context, g *Globals, a *app) error {
	r, err := a.services.Dashboards.Report(ctx, c.User)
	if err != nil {
		return err
	}
	if c.JSON {
		enc := json.NewEncoder(g.stdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	return printReport(g, r)
}

func printReport(g *Globals, r aggregate.Report) error {
	w := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Transactions\t%d\t\n", r.Count)
	fmt.Fprintf(w, "Income\t%s\t\n", r.Summary.Income)
	fmt.Fprintf(w, "Expense\t%s\t\n", r.Summary.Expense)
	fmt.Fprintf(w, "Balance\t%s\t\n", r.Summary.Balance)
	fmt.Fprintf(w, "Savings rate\t%d%%\t\n", r.Summary.SavingsRate)
	if len(r.Categories) > 0 {
		fmt.Fprintln(w, "\t\t")
		for _, ct := range r.Categories {
			fmt.Fprintf(w, "%s\t%s\t\n", ct.Category, ct.Total)
		}
	}
	return w.Flush()
}
