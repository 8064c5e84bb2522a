// Command fintrackctl administers a fintrack store: seeding demo data,
// importing records, printing summaries, exporting workbooks and issuing
// development tokens.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// Globals holds options every command shares.
type Globals struct {
	Backend string `help:"Record store (memory or sqlite), overrides DATA_BACKEND."`
	DB      string `name:"db" help:"SQLite path, overrides SQLITE_DB_PATH."`
	Publish bool   `help:"Publish change events to AMQP_URL after writes."`

	cfg *config.Config `kong:"-"`
	out io.Writer      `kong:"-"`
}

var commands struct {
	Globals `embed:""`

	Seed    seedCmd    `cmd:"" help:"Insert a demo data set for a user."`
	Import  importCmd  `cmd:"" help:"Import a JSON array of records for a user."`
	Summary summaryCmd `cmd:"" help:"Print a user's summary and category breakdown."`
	Export  exportCmd  `cmd:"" help:"Write a user's transactions to an XLSX workbook."`
	Token   tokenCmd   `cmd:"" help:"Issue a bearer token signed with AUTH_JWT_SECRET."`
}

// app is an opened store with services on top.
type app struct {
	backend   *backend.BackendResult
	services  *cli.Services
	publisher ports.ChangePublisher
	close     func()
}

func (g *Globals) config() (*config.Config, error) {
	if g.cfg != nil {
		return g.cfg, nil
	}
	cfg := config.Load()
	if g.Backend != "" {
		cfg.DataBackend = g.Backend
	}
	if g.DB != "" {
		cfg.SQLiteDBPath = g.DB
	}
	if err := cfg.ValidateFor(config.RoleCLI); err != nil {
		return nil, err
	}
	g.cfg = cfg
	return cfg, nil
}

func (g *Globals) stdout() io.Writer {
	if g.out != nil {
		return g.out
	}
	return os.Stdout
}

// open connects to the configured store, and to AMQP when --publish is set.
func (g *Globals) open(ctx context.Context) (*app, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(nil).CreateBackend(ctx, bc)
	if err != nil {
		return nil, err
	}

	var opts []services.TransactionOption
	var publisher ports.ChangePublisher
	closers := []func() error{b.Close}
	if g.Publish {
		if cfg.AMQPURL == "" {
			b.Close()
			return nil, fmt.Errorf("--publish needs AMQP_URL")
		}
		c, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 15*time.Second)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		publisher = c
		opts = append(opts, services.WithPublisher(c))
		closers = append(closers, c.Close)
	}
	if b.Type == backend.MemoryBackend {
		fmt.Fprintln(os.Stderr, "warning: memory backend, writes are lost when the command exits")
	}

	return &app{
		backend:   b,
		services:  cli.NewServices(cfg, b, opts...),
		publisher: publisher,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i]()
			}
		},
	}, nil
}

func main() {
	cli.LoadEnvFile()
	cli.SetupLogger(log.ComponentCLI, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	k := kong.Parse(&commands,
		kong.Name("fintrackctl"),
		kong.Description("Administer a fintrack transaction store."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := k.Run(&commands.Globals)
	k.FatalIfErrorf(err)
}
