// Package cli implements storefrontctl, the operator command line for the storefront backend.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

// Options lets callers inject ready-made dependencies. Anything left nil is
// built from the environment the first time a command needs it.
type Options struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Out    io.Writer
}

type app struct {
	opts    Options
	ownedDB bool
}

// Execute runs storefrontctl against the process environment.
func Execute() error {
	_ = godotenv.Load()
	return NewRootCommand(Options{}).Execute()
}

// NewRootCommand builds the storefrontctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Operator tooling for the storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetOut(opts.Out)

	root.AddCommand(
		a.migrateCommand(),
		a.seedCommand(),
		a.productsCommand(),
		a.ordersCommand(),
	)
	return root
}

func (a *app) config() (*config.Config, error) {
	if a.opts.Config != nil {
		return a.opts.Config, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a.opts.Config = cfg
	return cfg, nil
}

func (a *app) logger() *logger.Logger {
	if a.opts.Logger != nil {
		return a.opts.Logger
	}
	level := "info"
	if a.opts.Config != nil {
		level = a.opts.Config.App.LogLevel
	}
	a.opts.Logger = logger.New(logger.Options{
		ServiceName: "storefrontctl",
		Level:       logger.ParseLevel(level),
		Output:      os.Stderr,
	})
	return a.opts.Logger
}

// database opens the configured database and prepares a SQLite schema so the
// tool works against a fresh dev file.
func (a *app) database(ctx context.Context) (*db.Client, error) {
	if a.opts.DB != nil {
		return a.opts.DB, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	client, err := db.New(ctx, cfg.DB, a.logger())
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	if client.IsSQLite() {
		if err := migrate.MaybeRunDev(ctx, cfg, a.logger(), client); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	a.opts.DB = client
	a.ownedDB = true
	return client, nil
}

func (a *app) close() error {
	if !a.ownedDB || a.opts.DB == nil {
		return nil
	}
	a.ownedDB = false
	return a.opts.DB.Close()
}

func (a *app) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.opts.Out, string(b))
	return err
}
