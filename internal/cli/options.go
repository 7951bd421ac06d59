package cli

import (
	"context"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mikey/newsletter-funnels/internal/config"
	"github.com/mikey/newsletter-funnels/internal/core"
	"github.com/mikey/newsletter-funnels/internal/di"
	"github.com/mikey/newsletter-funnels/internal/ports"
)

// Options holds the global flags shared by every command
type Options struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	StoreType  string
	SQLitePath string
	MySQLDSN   string
	DiskPath   string
	Color      string

	flags *pflag.FlagSet
}

// flagKeys maps configuration keys onto the flags that override them
var flagKeys = map[string]string{
	"store.type":           "store",
	"store.sqlite_path":    "sqlite-path",
	"store.mysql_dsn":      "mysql-dsn",
	"store.disk_path":      "disk-path",
	"funnel.default_color": "default-color",
}

// AddFlags registers the global flags on fs
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "config", "", "path to config file")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "enable verbose logging")
	fs.BoolVar(&o.JSONLog, "json-log", false, "output logs in JSON format")
	fs.StringVar(&o.StoreType, "store", "", "store backend (memory, sqlite, mysql, disk)")
	fs.StringVar(&o.SQLitePath, "sqlite-path", "", "SQLite database path")
	fs.StringVar(&o.MySQLDSN, "mysql-dsn", "", "MySQL data source name")
	fs.StringVar(&o.DiskPath, "disk-path", "", "directory of the disk store")
	fs.StringVar(&o.Color, "default-color", "", "color given to funnels submitted without one")
	o.flags = fs
}

// env is what a command needs once configuration and the store are resolved
type env struct {
	logger  *zap.Logger
	cfg     *config.Config
	catalog core.CatalogRepository
	funnels core.FunnelRepository
}

// run resolves the dependencies of a command and calls fn with them
func (o *Options) run(ctx context.Context, fn func(ctx context.Context, e *env) error) error {
	container, err := di.BuildCLIContainer(&di.CLIFlags{
		ConfigFile: o.ConfigFile,
		Verbose:    o.Verbose,
		JSONLog:    o.JSONLog,
		Flags:      o.flags,
		FlagKeys:   flagKeys,
	})
	if err != nil {
		return err
	}

	return container.Invoke(func(logger *zap.Logger, cfg *config.Config, st ports.Store) error {
		defer logger.Sync()
		defer st.Stop()

		return fn(ctx, &env{
			logger:  logger,
			cfg:     cfg,
			catalog: st,
			funnels: st,
		})
	})
}

// composer builds a composer over the current catalog, loading funnelID when set
func (e *env) composer(ctx context.Context, funnelID string) (*core.FunnelComposer, *core.Funnel, error) {
	items, err := e.catalog.ListItems(ctx)
	if err != nil {
		return nil, nil, err
	}

	c := core.NewFunnelComposer(e.logger, items, e.cfg.GetFunnel().DefaultColor)
	if funnelID == "" {
		return c, nil, nil
	}

	funnel, err := e.funnels.GetFunnel(ctx, funnelID)
	if err != nil {
		return nil, nil, err
	}
	c.Load(funnel)
	return c, funnel, nil
}
