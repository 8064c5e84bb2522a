package main

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/seed"
)

type seedCmd struct {
	User   string `required:"" help:"User id that owns the data."`
	Months int    `default:"6" help:"Months of history ending this month."`
}

func (c *seedCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return c.run(ctx, g, a, time.Now())
}

// run stores the demo records as they are, the malformed one included,
// so ingestion has something to skip.
func (c *seedCmd) run(ctx context.Context, g *Globals, a *app, now time.Time) error {
	recs := seed.Records(c.User, now, c.Months)
	for _, r := range recs {
		if err := a.backend.Store.InsertRecord(ctx, r); err != nil {
			return fmt.Errorf("seed %s: %w", r.ID, err)
		}
	}
	a.services.Dashboards.Notify(c.User)
	if a.publisher != nil {
		if err := a.publisher.PublishChange(ctx, amqp.NewChangeEvent(c.User, "", core.OpImported)); err != nil {
			return fmt.Errorf("publish change: %w", err)
		}
	}
	fmt.Fprintf(g.stdout(), "seeded %d records for %s\n", len(recs), c.User)
	return nil
}
