package main

import (
	"context"
	"fmt"
	"os"

	"fintrack/internal/core"
	"fintrack/internal/export"
)

type exportCmd struct {
	User     string `required:"" help:"User id to export."`
	Out      string `required:"" short:"o" help:"Workbook path to write."`
	Search   string `help:"Case-insensitive title search."`
	Type     string `default:"all" enum:"all,income,expense" help:"Transaction type filter."`
	Category string `default:"all" help:"Exact category filter."`
	SortBy   string `name:"sort-by" default:"date-desc" help:"date or amount, with -asc or -desc."`
}

func (c *exportCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return c.run(ctx, g, a)
}

func (c *exportCmd) criteria() core.Criteria {
	return core.NewCriteria(c.Search, c.Type, c.Category, c.SortBy)
}

func (c *exportCmd) run(ctx context.Context, g *Globals, a *app) error {
	res, err := a.services.Dashboards.Transactions(ctx, c.User)
	if err != nil {
		return err
	}
	f, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	if err := export.Write(f, res.Transactions, c.criteria()); err != nil {
		f.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "wrote %d transactions to %s\n", len(res.Transactions), c.Out)
	return nil
}
