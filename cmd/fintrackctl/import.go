package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"fintrack/internal/core"
)

type importCmd struct {
	User string `required:"" help:"User id that owns the records."`
	File string `arg:"" help:"JSON file with an array of records, - for stdin."`
}

func (c *importCmd) Run(ctx context.Context, g *Globals) error {
	recs, err := readRecords(c.File)
	if err != nil {
		return err
	}
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return c.run(ctx, g, a, recs)
}

func (c *importCmd) run(ctx context.Context, g *Globals, a *app, recs []core.Record) error {
	res, err := a.services.Transactions.Import(ctx, c.User, recs)
	if err != nil {
		return err
	}
	out := g.stdout()
	fmt.Fprintf(out, "imported %d of %d records for %s\n", res.Inserted, len(recs), c.User)
	for _, sk := range res.Skipped {
		fmt.Fprintf(out, "  skipped #%d (%s): %v\n", sk.Index, sk.ID, sk.Err)
	}
	return nil
}

func readRecords(path string) ([]core.Record, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var recs []core.Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return recs, nil
}
