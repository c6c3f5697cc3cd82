package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"LineFinder/internal"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// newApp builds the CLI. A query starting with '-' must follow "--".
func newApp() *cli.App {
	return &cli.App{
		Name:            "LineFinder",
		Usage:           "Search a file or directory tree for lines containing a string",
		ArgsUsage:       "[--] <query> <path> [-i|-I|--ignore-case]",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "ignore-case",
				Aliases: []string{"i", "I"},
				Usage:   "Case-insensitive search",
				EnvVars: []string{"LINEFINDER_IGNORE_CASE"},
			},
			&cli.StringSliceFlag{
				Name:    "ext",
				Usage:   "Only scan these extensions (comma separated, e.g. txt,log). Use without dot.",
				EnvVars: []string{"LINEFINDER_EXT"},
			},
			&cli.StringSliceFlag{
				Name:  "exclude-ext",
				Usage: "Skip these extensions (comma separated). If --ext is set, this is ignored.",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Max directory depth (0 - unlimited)",
			},
			&cli.BoolFlag{
				Name:  "archives",
				Usage: "Also search members of archives (.zip,.tar,.gz,.7z,...)",
			},
			&cli.StringFlag{
				Name:    "encoding",
				Usage:   "Text encoding of scanned files: utf-8, utf-16, gbk, gb18030",
				EnvVars: []string{"LINEFINDER_ENCODING"},
			},
			&cli.StringFlag{
				Name:  "save-matches-file",
				Usage: "Append all matched lines into a single file",
			},
			&cli.StringFlag{
				Name:    "logfile",
				Usage:   "Write logs into file instead of stderr",
				EnvVars: []string{"LINEFINDER_LOGFILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn, error",
				EnvVars: []string{"LINEFINDER_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Colorize output: auto, always, never",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML file with default settings",
				EnvVars: []string{"LINEFINDER_CONFIG"},
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := internal.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	mergeFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	req, err := parseArgs(c.Args().Slice(), cfg.IgnoreCase)
	if err != nil {
		return cli.Exit("Problem parsing arguments: "+err.Error(), 1)
	}

	internal.InitLogger(c.String("logfile"), cfg.LogLevel)
	if err := internal.ConfigureColor(cfg.Color); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	opts := internal.SearchOptions{
		SearchRequest:   req,
		Whitelist:       cfg.Ext,
		Blacklist:       cfg.ExcludeExt,
		Depth:           cfg.Depth,
		Archives:        cfg.Archives,
		Encoding:        cfg.Encoding,
		SaveMatchesFile: cfg.SaveMatchesFile,
	}
	if err := opts.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	opts.Prepare()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := internal.Run(ctx, &opts, internal.NewPrinter(c.App.Writer, req), nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logrus.Warn("Search cancelled")
			return cli.Exit("", 130)
		}
		logrus.WithError(err).Error("Search failed")
		return cli.Exit(err.Error(), 1)
	}

	logrus.WithFields(logrus.Fields{
		"found":   stats.FilesFound.Load(),
		"scanned": stats.FilesScanned.Load(),
		"matches": stats.Matches.Load(),
		"errors":  stats.Errors.Load(),
	}).Infof("Search finished in %s", stats.Elapsed())
	return nil
}

// mergeFlags lets explicitly set flags override config file values.
func mergeFlags(c *cli.Context, cfg *internal.FileConfig) {
	if c.IsSet("ignore-case") {
		cfg.IgnoreCase = c.Bool("ignore-case")
	}
	if c.IsSet("ext") {
		cfg.Ext = c.StringSlice("ext")
	}
	if c.IsSet("exclude-ext") {
		cfg.ExcludeExt = c.StringSlice("exclude-ext")
	}
	if c.IsSet("depth") {
		cfg.Depth = c.Int("depth")
	}
	if c.IsSet("archives") {
		cfg.Archives = c.Bool("archives")
	}
	if c.IsSet("encoding") {
		cfg.Encoding = c.String("encoding")
	}
	if c.IsSet("save-matches-file") {
		cfg.SaveMatchesFile = c.String("save-matches-file")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("color") {
		cfg.Color = c.String("color")
	}
}
