package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/graeme-hill/calcstuff-go/config"
	"github.com/graeme-hill/calcstuff-go/repl"
	"github.com/graeme-hill/calcstuff-go/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	// logger instance
	log = logrus.New()
)

// config file name kingpin.Value
// parses the configuration on value set
type configValue struct {
	cfg *config.Config
	v   string
}

func (f *configValue) Set(s string) error {
	f.v = s
	return f.cfg.ParseFile(f.v)
}

func (f *configValue) String() string {
	return f.v
}

type options struct {
	cfg        config.Config
	noColor    bool
	noBanner   bool
	recent     int
	expression []string
}

func newApp(opts *options) *kingpin.Application {
	app := kingpin.New("calc", "Arithmetic expression calculator.")
	app.Flag("config", "Calculator configuration in YML format.").SetValue(&configValue{cfg: &opts.cfg})
	app.Flag("debug", "Run in debug mode (more log messages).").Short('d').BoolVar(&opts.cfg.DebugMode)
	app.Flag("logging", "Logging level.").StringVar(&opts.cfg.Logging)
	app.Flag("prompt", "Prompt printed before each line.").StringVar(&opts.cfg.Prompt)
	app.Flag("no-color", "Disable colored output.").BoolVar(&opts.noColor)
	app.Flag("force-color", "Color output even when it is not a terminal.").BoolVar(&opts.cfg.ForceColor)
	app.Flag("no-banner", "Do not print the welcome banner.").BoolVar(&opts.noBanner)
	app.Flag("dump-tokens", "Print the token sequence of each line.").BoolVar(&opts.cfg.DumpTokens)
	app.Flag("history", "Record evaluated lines in the history database.").BoolVar(&opts.cfg.History.Enabled)
	app.Flag("history-driver", "History database driver: sqlite3, postgres.").EnumVar(&opts.cfg.History.Driver, "sqlite3", "postgres")
	app.Flag("history-dsn", "History database connection string.").StringVar(&opts.cfg.History.DSN)
	app.Flag("recent", "Print the last N history entries and exit.").Short('r').IntVar(&opts.recent)
	app.Arg("expression", "Evaluate this expression and exit instead of starting the prompt. "+
		"Quote it (calc '2 - 3') or put it after -- (calc -- 2 - 3).").StringsVar(&opts.expression)
	return app
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	opts := &options{cfg: config.Default()}
	app := newApp(opts)
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "calc: error: %s, try --help\n", err)
		return 2
	}

	cfg := opts.cfg
	if opts.noColor {
		cfg.Color = false
		cfg.ForceColor = false
	}
	if opts.noBanner {
		cfg.Banner = false
	}
	if opts.recent > 0 {
		cfg.History.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "calc: error: %s\n", err)
		return 2
	}
	level, _ := cfg.LogLevel()
	log.SetLevel(level)
	repl.SetLogLevel(level)
	store.SetLogLevel(level)

	ctx := context.Background()

	replOpts := repl.Options{
		Prompt:     cfg.Prompt,
		Banner:     cfg.Banner,
		Color:      cfg.Color,
		ForceColor: cfg.ForceColor,
		DumpTokens: cfg.DumpTokens,
	}

	if cfg.History.Enabled {
		history, err := store.Open(ctx, cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			log.WithError(err).Error("failed to open history database")
			return 1
		}
		defer history.Close()
		replOpts.Recorder = history

		if opts.recent > 0 {
			return printRecent(ctx, stdout, history, opts.recent)
		}
	}

	r := repl.New(replOpts)

	if len(opts.expression) > 0 {
		line := strings.Join(opts.expression, " ") + "\n"
		if err := r.Eval(ctx, line, stdout); err != nil {
			return 1
		}
		return 0
	}

	log.WithFields(map[string]interface{}{
		"history": cfg.History.Enabled,
		"driver":  cfg.History.Driver,
	}).Debug("starting prompt")

	if err := r.Run(ctx, stdin, stdout); err != nil {
		log.WithError(err).Error("failed to read input")
		return 1
	}
	return 0
}

func printRecent(ctx context.Context, out io.Writer, history *store.Store, limit int) int {
	entries, err := history.Recent(ctx, limit)
	if err != nil {
		log.WithError(err).Error("failed to read history")
		return 1
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		outcome := e.Result
		if e.Error != "" {
			outcome = "error: " + e.Error
		}
		fmt.Fprintf(out, "%s  %s = %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Expression, outcome)
	}
	return 0
}
