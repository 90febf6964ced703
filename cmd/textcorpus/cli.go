package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/hyperifyio/textcorpus/internal/app"
	"github.com/hyperifyio/textcorpus/internal/dataset"
	"github.com/hyperifyio/textcorpus/internal/gate"
)

func init() {
	// -v belongs to --verbose.
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
}

func newCLI(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "textcorpus",
		Usage:   "build a cleaned, deduplicated text corpus from a URL list",
		Version: app.VersionString(),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
			&cli.StringSliceFlag{Name: "env-file", Value: cli.NewStringSlice(".env"), Usage: "dotenv files loaded before reading TEXTCORPUS_* variables"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			return app.LoadEnvFiles(c.StringSlice("env-file")...)
		},
		// Errors are returned to main, which owns the exit code policy.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			urlsCommand(),
			statsCommand(),
			mergeCommand(),
		},
	}
}

func urlsCommand() *cli.Command {
	return &cli.Command{
		Name:      "urls",
		Usage:     "fetch every URL in a list and write the surviving documents",
		ArgsUsage: "<url_file> <output_dir> [max_urls]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML or JSON config file"},
			&cli.StringFlag{Name: "exclude-domains", Usage: "comma separated domains to skip"},
			&cli.StringFlag{Name: "exclude-extensions", Usage: "comma separated file extensions to skip"},
			&cli.BoolFlag{Name: "no-default-excludes", Usage: "do not add the built-in exclusion lists"},
			&cli.IntFlag{Name: "min-words", Value: gate.DefaultMinWords, Usage: "minimum words per document"},
			&cli.IntFlag{Name: "dedup-words", Value: gate.DefaultDedupPrefixWords, Usage: "leading words compared for duplicates"},
			&cli.DurationFlag{Name: "timeout", Value: app.DefaultConfig().FetchTimeout, Usage: "per-URL fetch timeout"},
			&cli.IntFlag{Name: "workers", Value: 1, Usage: "concurrent fetch workers"},
			&cli.BoolFlag{Name: "resume", Usage: "continue numbering in a non-empty output directory"},
			&cli.StringFlag{Name: "cache-dir", Usage: "conditional GET cache directory"},
			&cli.StringFlag{Name: "ledger", Usage: "SQLite file recording every URL outcome"},
			&cli.StringFlag{Name: "extractor", Value: "structural", Usage: "structural or readability"},
			&cli.StringFlag{Name: "user-agent", Usage: "fixed User-Agent header"},
			&cli.StringFlag{Name: "comment-prefix", Value: "#", Usage: "input lines starting with this are ignored"},
			&cli.BoolFlag{Name: "unique-urls", Usage: "skip input URLs that repeat an earlier one after canonicalization"},
		},
		Action: runURLs,
	}
}

// buildConfig layers defaults, the config file, TEXTCORPUS_* variables and
// finally explicitly set flags and arguments.
func buildConfig(c *cli.Context) (app.Config, error) {
	cfg := app.DefaultConfig()
	if path := c.String("config"); path != "" {
		fc, err := app.LoadConfigFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.ApplyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	if c.IsSet("exclude-domains") {
		cfg.ExcludeDomains = app.SplitList(c.String("exclude-domains"))
	}
	if c.IsSet("exclude-extensions") {
		cfg.ExcludeExtensions = app.SplitList(c.String("exclude-extensions"))
	}
	if c.Bool("no-default-excludes") {
		cfg.UseDefaultExcludes = false
	}
	if c.IsSet("min-words") {
		cfg.MinWords = c.Int("min-words")
	}
	if c.IsSet("dedup-words") {
		cfg.DedupPrefixWords = c.Int("dedup-words")
	}
	if c.IsSet("timeout") {
		cfg.FetchTimeout = c.Duration("timeout")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.Bool("resume") {
		cfg.Resume = true
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("ledger") {
		cfg.LedgerPath = c.String("ledger")
	}
	if c.IsSet("extractor") {
		cfg.Extractor = c.String("extractor")
	}
	if c.IsSet("user-agent") {
		cfg.UserAgent = c.String("user-agent")
	}
	if c.IsSet("comment-prefix") {
		cfg.CommentPrefix = c.String("comment-prefix")
	}
	if c.Bool("unique-urls") {
		cfg.UniqueURLs = true
	}
	if c.Bool("verbose") {
		cfg.Verbose = true
	}

	args := c.Args()
	if args.Len() < 2 || args.Len() > 3 {
		return cfg, fmt.Errorf("usage: %s %s", c.Command.FullName(), c.Command.ArgsUsage)
	}
	cfg.InputPath = args.Get(0)
	cfg.OutputDir = args.Get(1)
	if args.Len() == 3 {
		n, err := strconv.Atoi(args.Get(2))
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("max_urls must be a non-negative integer, got %q", args.Get(2))
		}
		cfg.MaxURLs = n
	}
	return cfg, nil
}

func runURLs(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}()

	stats, runErr := a.Run(c.Context)
	printRunSummary(c.App.Writer, stats)
	if counts, err := a.LedgerCounts(c.Context); err != nil {
		log.Warn().Err(err).Msg("ledger summary failed")
	} else if counts != nil {
		printLedgerSummary(c.App.Writer, cfg.LedgerPath, counts)
	}
	return runErr
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "count documents and words in a dataset directory",
		ArgsUsage: "<dir>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: %s %s", c.Command.FullName(), c.Command.ArgsUsage)
			}
			s, err := dataset.Stats(c.Args().First())
			if err != nil {
				return err
			}
			printDatasetSummary(c.App.Writer, c.Args().First(), s)
			return nil
		},
	}
}

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "copy several datasets into one, renumbering and removing duplicates",
		ArgsUsage: "<dir>... <out>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "dedup-words", Value: gate.DefaultDedupPrefixWords, Usage: "leading words compared for duplicates"},
		},
		Action: func(c *cli.Context) error {
			args := c.Args().Slice()
			if len(args) < 2 {
				return fmt.Errorf("usage: %s %s", c.Command.FullName(), c.Command.ArgsUsage)
			}
			out := args[len(args)-1]
			res, err := dataset.Merge(c.Context, out, c.Int("dedup-words"), args[:len(args)-1]...)
			printMergeSummary(c.App.Writer, res)
			return err
		},
	}
}
