package main

import (
	"errors"
	"fmt"
	"time"

	"fintrack/internal/auth"
)

type tokenCmd struct {
	User string        `required:"" help:"User id to put in the token subject."`
	TTL  time.Duration `name:"ttl" default:"24h" help:"Token lifetime."`
}

func (c *tokenCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is not set")
	}
	v, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}
	tok, err := v.Issue(c.User, c.TTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(g.stdout(), tok)
	return nil
}
