package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/graeme-hill/calcstuff-go/lib"
	"github.com/graeme-hill/calcstuff-go/store"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	// logger instance
	log = logrus.New()
)

func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

const (
	Banner        = "Welcome to the calculator app!\nEnter 'q' to exit.\n\n"
	DefaultPrompt = "(calc) "
)

// Recorder receives every line that reached the lexer, with its outcome.
type Recorder interface {
	Record(ctx context.Context, e store.Entry) (int64, error)
}

type Options struct {
	Prompt string
	Banner bool
	// Color allows colored output on terminals. ForceColor colors any writer.
	Color      bool
	ForceColor bool
	DumpTokens bool
	Recorder   Recorder
}

// REPL reads expressions line by line and prints one result or diagnostic
// per line. It holds no state between lines.
type REPL struct {
	opts    Options
	result  *color.Color
	failure *color.Color
}

func New(opts Options) *REPL {
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	r := &REPL{
		opts:    opts,
		result:  color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
	// whether to color is decided per writer in colorize
	r.result.EnableColor()
	r.failure.EnableColor()
	return r
}

func (r *REPL) colorize(out io.Writer) bool {
	if r.opts.ForceColor {
		return true
	}
	if !r.opts.Color || color.NoColor {
		return false
	}
	f, ok := out.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func (r *REPL) println(out io.Writer, c *color.Color, text string) {
	if r.colorize(out) {
		c.Fprintln(out, text)
		return
	}
	fmt.Fprintln(out, text)
}

// Run loops until in is exhausted, the quit command is read or ctx is done.
// Only I/O errors and cancellation are returned; bad expressions are
// reported to out and the loop continues.
func (r *REPL) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	if r.opts.Banner {
		fmt.Fprint(out, Banner)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(out, r.opts.Prompt)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if line == "" && err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}

		line = normalizeLine(line)
		if isQuit(line) {
			return nil
		}

		r.Eval(ctx, line, out)

		if err == io.EOF {
			return nil
		}
	}
}

// Eval handles a single line: lex, evaluate, print. The returned error is
// whatever failure was reported to out, nil for success and blank lines.
func (r *REPL) Eval(ctx context.Context, line string, out io.Writer) error {
	expr := strings.TrimRight(line, "\n")
	entry := log.WithField("expression", expr)

	tokens, err := lib.Lex(line)
	if errors.Is(err, lib.ErrEmptyResult) {
		return nil
	}
	if err != nil {
		entry.WithError(err).Debug("lexing failed")
		r.println(out, r.failure, lexDiagnostic(err))
		r.record(ctx, store.Entry{Expression: expr, Error: err.Error()})
		return err
	}

	if r.opts.DumpTokens {
		spew.Fdump(out, tokens)
	}

	value, err := lib.Evaluate(tokens)
	if err != nil {
		entry.WithError(err).Debug("evaluation failed")
		r.println(out, r.failure, "Error: "+err.Error())
		r.record(ctx, store.Entry{Expression: expr, Error: err.Error()})
		return err
	}

	text := lib.FormatResult(value)
	entry.WithField("result", text).Debug("evaluated")
	r.println(out, r.result, text)
	r.record(ctx, store.Entry{Expression: expr, Result: text})
	return nil
}

func (r *REPL) record(ctx context.Context, e store.Entry) {
	if r.opts.Recorder == nil {
		return
	}
	if _, err := r.opts.Recorder.Record(ctx, e); err != nil {
		log.WithError(err).WithField("expression", e.Expression).Warn("failed to record history")
	}
}

func lexDiagnostic(err error) string {
	switch {
	case errors.Is(err, lib.ErrInvalidNumber):
		return "Invalid number"
	case errors.Is(err, lib.ErrInvalidCharacter):
		return "Input contains invalid character"
	}
	return err.Error()
}

func normalizeLine(line string) string {
	if strings.HasSuffix(line, "\r\n") {
		return strings.TrimSuffix(line, "\r\n") + "\n"
	}
	return line
}

// isQuit reports whether line is the quit command. The terminator may be
// missing on the last line of input.
func isQuit(line string) bool {
	return line == "q\n" || line == "q"
}
