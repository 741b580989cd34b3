package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/txrtlemrry/PaperFinder-App/internal/catalog"
	pfcli "github.com/txrtlemrry/PaperFinder-App/internal/cli"
	"github.com/txrtlemrry/PaperFinder-App/internal/config"
	"github.com/txrtlemrry/PaperFinder-App/internal/convert"
	"github.com/txrtlemrry/PaperFinder-App/internal/finder"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
	"github.com/txrtlemrry/PaperFinder-App/internal/server"
	"github.com/txrtlemrry/PaperFinder-App/internal/telemetry"
	"github.com/urfave/cli/v3"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// parseLogLevel parses a level name, falling back to the given level when it
// is empty or invalid.
func parseLogLevel(value string, fallback logrus.Level) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return fallback
	}
}

// app holds what every command needs once flags have been parsed
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	svc    *finder.Service
}

func setup(cmd *cli.Command, logger *logrus.Logger, defaultLevel logrus.Level) (*app, error) {
	logger.SetLevel(parseLogLevel(cmd.String("log-level"), defaultLevel))

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("catalog") {
		cfg.CatalogPath = cmd.String("catalog")
	}

	store, err := catalog.NewStore(cfg.CatalogPath, logger)
	if err != nil {
		return nil, err
	}
	svc := finder.New(store, finder.Settings{BaseURL: cfg.BaseURL, MaxYearSpan: cfg.MaxYearSpan}, logger)

	logger.WithFields(logrus.Fields{
		"catalog":  cfg.CatalogPath,
		"base_url": cfg.BaseURL,
	}).Debug("Configuration loaded")

	return &app{cfg: cfg, logger: logger, svc: svc}, nil
}

func (a *app) runner(cmd *cli.Command) (*pfcli.Runner, error) {
	format, err := pfcli.ParseOutputFormat(cmd.String("format"))
	if err != nil {
		return nil, err
	}
	return pfcli.NewRunner(a.logger, a.svc, os.Stdout, format, !color.NoColor), nil
}

func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "years",
			Aliases: []string{"y"},
			Usage:   "Year range such as 2020-2025, or a single year",
		},
		&cli.StringSliceFlag{
			Name:    "session",
			Aliases: []string{"s"},
			Usage:   "Session code (w, s or m); repeatable",
		},
		&cli.BoolFlag{
			Name:  "all-sessions",
			Usage: "Include every session",
		},
		&cli.StringSliceFlag{
			Name:  "variant",
			Usage: "Paper variant (1, 2 or 3); repeatable",
		},
		&cli.BoolFlag{
			Name:  "all-variants",
			Usage: "Include variants 1, 2 and 3",
		},
		&cli.StringSliceFlag{
			Name:  "type",
			Usage: "Document type (qp or ms); repeatable, default both",
		},
		&cli.StringFlag{
			Name:  "subject",
			Usage: "Only generate links for this subject code",
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   string(pfcli.OutputText),
		Usage:   "Output format (text, json or markdown)",
	}
}

func main() {
	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.WithError(err).Warn("Failed to load .env")
	}

	shutdownTracer, err := telemetry.InitTracer(logger, Version)
	if err != nil {
		logger.WithError(err).Warn("OTEL: Tracing disabled")
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.WithError(err).Debug("OTEL: Shutdown failed")
		}
	}()

	root := &cli.Command{
		Name:    "paperfinder",
		Usage:   "Generate past paper links and convert question papers to images",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML config file (default: ~/.paperfinder/config.yaml)",
				Sources: cli.EnvVars(config.ConfigPathEnvVar),
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Path to the subject catalog JSON file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn or error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the web interface",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Address to listen on (default: :8080)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := setup(cmd, logger, logrus.InfoLevel)
					if err != nil {
						return err
					}
					addr := a.cfg.ListenAddr
					if cmd.IsSet("listen") {
						addr = cmd.String("listen")
					}
					logger.Infof("Starting paperfinder version %s (commit: %s, built: %s)", Version, Commit, BuildDate)
					srv := server.New(a.svc, logger, server.Options{
						DefaultYearRange:    a.cfg.DefaultYearRange,
						AddSubjectRateLimit: a.cfg.AddSubjectRateLimit,
					})
					return srv.ListenAndServe(ctx, addr)
				},
			},
			{
				Name:  "generate",
				Usage: "Print paper links for the catalog",
				Flags: append(selectionFlags(), formatFlag()),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := setup(cmd, logger, logrus.WarnLevel)
					if err != nil {
						return err
					}
					r, err := a.runner(cmd)
					if err != nil {
						return err
					}
					years := cmd.String("years")
					if years == "" {
						years = a.cfg.DefaultYearRange
					}
					return r.Generate(ctx, papers.Selection{
						YearRange:   years,
						Sessions:    cmd.StringSlice("session"),
						Variants:    cmd.StringSlice("variant"),
						Types:       cmd.StringSlice("type"),
						AllSessions: cmd.Bool("all-sessions"),
						AllVariants: cmd.Bool("all-variants"),
						Subject:     cmd.String("subject"),
					})
				},
			},
			{
				Name:  "subjects",
				Usage: "Manage the subject catalog",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List subjects",
						Flags: []cli.Flag{formatFlag()},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							a, err := setup(cmd, logger, logrus.WarnLevel)
							if err != nil {
								return err
							}
							r, err := a.runner(cmd)
							if err != nil {
								return err
							}
							return r.ListSubjects(ctx)
						},
					},
					{
						Name:      "add",
						Usage:     "Add or replace a subject",
						ArgsUsage: `<code> <name> "<num>:<description>, ..."`,
						Flags:     []cli.Flag{formatFlag()},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							if cmd.NArg() != 3 {
								return fmt.Errorf("expected 3 arguments, got %d: %s", cmd.NArg(), cmd.ArgsUsage)
							}
							a, err := setup(cmd, logger, logrus.WarnLevel)
							if err != nil {
								return err
							}
							r, err := a.runner(cmd)
							if err != nil {
								return err
							}
							return r.AddSubject(ctx, cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2))
						},
					},
					{
						Name:      "find",
						Usage:     "Fuzzy search subjects by code or name",
						ArgsUsage: "<query>",
						Flags:     []cli.Flag{formatFlag()},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							if cmd.NArg() == 0 {
								return fmt.Errorf("a search query is required")
							}
							a, err := setup(cmd, logger, logrus.WarnLevel)
							if err != nil {
								return err
							}
							r, err := a.runner(cmd)
							if err != nil {
								return err
							}
							return r.FindSubjects(ctx, strings.Join(cmd.Args().Slice(), " "))
						},
					},
				},
			},
			{
				Name:  "convert",
				Usage: "Render question paper PDFs to PNG images",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Directory containing the PDFs",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Directory for the images; created if missing",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "marker",
						Usage: "Only convert files whose name contains this (default: qp)",
					},
					&cli.FloatFlag{
						Name:  "dpi",
						Usage: "Render resolution (default: 72)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Files to convert concurrently (default: 1)",
					},
					&cli.StringFlag{
						Name:  "pages",
						Usage: `Pages to render, e.g. "1-3,5" (default: all)`,
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Validate each PDF before rendering",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Keep running and convert new files as they appear",
					},
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := setup(cmd, logger, logrus.WarnLevel)
					if err != nil {
						return err
					}
					r, err := a.runner(cmd)
					if err != nil {
						return err
					}

					opts := a.cfg.Convert
					if cmd.IsSet("marker") {
						opts.Marker = cmd.String("marker")
					}
					if cmd.IsSet("dpi") {
						opts.DPI = cmd.Float("dpi")
					}
					if cmd.IsSet("workers") {
						opts.Workers = int(cmd.Int("workers"))
					}
					c := convert.New(logger,
						convert.WithMarker(opts.Marker),
						convert.WithDPI(opts.DPI),
						convert.WithWorkers(opts.Workers),
						convert.WithPages(cmd.String("pages")),
						convert.WithStrict(cmd.Bool("strict")),
					)

					in, out := cmd.String("input"), cmd.String("output")
					if cmd.Bool("watch") {
						return r.Watch(ctx, c, in, out)
					}
					return r.Convert(ctx, c, in, out)
				},
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("paperfinder version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
		},
	}

	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = shutdownTracer(context.Background())
		stop()
		os.Exit(1)
	}
}
