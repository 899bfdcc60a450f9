package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"railbook.dev/railbook/internal/appconf"
	"railbook.dev/railbook/internal/gtfsimport"
)

func newCLI() *cli.App {
	return &cli.App{
		Name:   "railbook",
		Usage:  "train and station schedule service",
		Flags:  configFlags(),
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serveAction,
			},
			{
				Name:  "import-gtfs",
				Usage: "add every trip of a GTFS static feed as a train",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "path to the GTFS zip",
						EnvVars:  []string{"RAILBOOK_GTFS_FILE"},
						Required: true,
					},
				},
				Action: importGTFSAction,
			},
		},
	}
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "YAML config file", EnvVars: []string{"RAILBOOK_CONFIG"}},
		&cli.StringFlag{Name: "host", Usage: "listen host", EnvVars: []string{"RAILBOOK_HOST"}},
		&cli.IntFlag{Name: "port", Usage: "listen port", EnvVars: []string{"RAILBOOK_PORT"}},
		&cli.StringFlag{Name: "env", Usage: "development, test or production", EnvVars: []string{"RAILBOOK_ENV"}},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", EnvVars: []string{"RAILBOOK_LOG_LEVEL"}},
		&cli.BoolFlag{Name: "verbose", Usage: "log database setup details", EnvVars: []string{"RAILBOOK_VERBOSE"}},
		&cli.IntFlag{Name: "rate-limit", Usage: "requests per second per client IP", EnvVars: []string{"RAILBOOK_RATE_LIMIT"}},
		&cli.StringFlag{Name: "rate-limit-exempt-ips", Usage: "comma separated client IPs that are never limited", EnvVars: []string{"RAILBOOK_RATE_LIMIT_EXEMPT_IPS"}},
		&cli.StringFlag{Name: "allowed-origins", Usage: "comma separated CORS origins", EnvVars: []string{"RAILBOOK_ALLOWED_ORIGINS"}},
		&cli.StringFlag{Name: "storage-backend", Usage: "file or sqlite", EnvVars: []string{"RAILBOOK_STORAGE_BACKEND"}},
		&cli.StringFlag{Name: "trains-file", Usage: "trains document path", EnvVars: []string{"RAILBOOK_TRAINS_FILE"}},
		&cli.StringFlag{Name: "stations-file", Usage: "stations document path", EnvVars: []string{"RAILBOOK_STATIONS_FILE"}},
		&cli.StringFlag{Name: "sqlite-path", Usage: "SQLite database path", EnvVars: []string{"RAILBOOK_SQLITE_PATH"}},
		&cli.BoolFlag{Name: "strict-load", Usage: "refuse to start when a stored document is unreadable", EnvVars: []string{"RAILBOOK_STRICT_LOAD"}},
	}
}

// configFromCLI layers explicitly set flags and environment variables over the
// config file and defaults.
func configFromCLI(c *cli.Context) (appconf.Config, error) {
	cfg, err := appconf.Load(c.String("config"))
	if err != nil {
		return appconf.Config{}, err
	}

	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("env") {
		cfg.Env = appconf.Environment(c.String("env"))
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	if c.IsSet("rate-limit") {
		cfg.RateLimit = c.Int("rate-limit")
	}
	if c.IsSet("rate-limit-exempt-ips") {
		cfg.RateLimitExemptIPs = appconf.ParseList(c.String("rate-limit-exempt-ips"))
	}
	if c.IsSet("allowed-origins") {
		cfg.AllowedOrigins = appconf.ParseList(c.String("allowed-origins"))
	}
	if c.IsSet("storage-backend") {
		cfg.Storage.Backend = c.String("storage-backend")
	}
	if c.IsSet("trains-file") {
		cfg.Storage.TrainsFile = c.String("trains-file")
	}
	if c.IsSet("stations-file") {
		cfg.Storage.StationsFile = c.String("stations-file")
	}
	if c.IsSet("sqlite-path") {
		cfg.Storage.SQLitePath = c.String("sqlite-path")
	}
	if c.IsSet("strict-load") {
		cfg.Storage.StrictLoad = c.Bool("strict-load")
	}

	if err := cfg.Validate(); err != nil {
		return appconf.Config{}, err
	}
	return cfg, nil
}

func serveAction(c *cli.Context) error {
	cfg, err := configFromCLI(c)
	if err != nil {
		return err
	}

	coreApp, err := BuildApplication(cfg)
	if err != nil {
		return err
	}

	srv, api := CreateServer(coreApp, cfg)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Run(ctx, srv, coreApp, api)
}

func importGTFSAction(c *cli.Context) error {
	cfg, err := configFromCLI(c)
	if err != nil {
		return err
	}

	coreApp, err := BuildApplication(cfg)
	if err != nil {
		return err
	}
	defer closeApplication(coreApp)

	result, err := gtfsimport.ImportFile(c.Context, c.String("file"), coreApp.Store, coreApp.Logger)
	if err != nil {
		return fmt.Errorf("importing %s: %w", c.String("file"), err)
	}

	fmt.Fprintf(c.App.Writer, "added %d trains, skipped %d existing\n", len(result.Added), len(result.Skipped))
	return nil
}
