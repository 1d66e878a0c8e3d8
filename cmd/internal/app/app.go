// Package app holds the command line plumbing shared by the grayseq and graypar tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/esimov/grayscale"
	"github.com/esimov/grayscale/utils"
)

// PipeName is the file name that indicates stdin/stdout is being used.
const PipeName = "-"

// Pass selects the conversion strategy of a tool.
type Pass int

const (
	// Sequential converts every pixel on a single goroutine into a new buffer.
	Sequential Pass = iota
	// Parallel converts row bands concurrently, in place.
	Parallel
)

func (p Pass) String() string {
	if p == Parallel {
		return "parallel"
	}
	return "sequential"
}

// Version indicates the current build version.
var Version = "dev"

// env carries the state shared between the command hooks.
type env struct {
	pass   Pass
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger
}

// Run executes the tool selected by pass with the given arguments and returns
// the process exit status: 0 on success, 1 if the image could not be loaded,
// converted or saved.
func Run(ctx context.Context, pass Pass, args []string, stdout, stderr io.Writer) int {
	e := &env{pass: pass, stdout: stdout, stderr: stderr, log: zap.NewNop()}
	if err := e.command().Run(ctx, args); err != nil {
		return 1
	}
	return 0
}

func (e *env) command() *cli.Command {
	name, usage, dst := "grayseq", "converts an image to grayscale with a single sequential pass", "output_seq.jpg"
	if e.pass == Parallel {
		name, usage, dst = "graypar", "converts an image to grayscale in place, one row band per CPU", "output.jpg"
	}

	flags := []cli.Flag{
		&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Value: "input.jpg", Usage: "source image `FILE` (\"-\" reads from stdin)"},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: dst, Usage: "destination image `FILE` (\"-\" writes JPEG to stdout)"},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Value: grayscale.DefaultQuality, Usage: "JPEG encoding quality (1-100)",
			Validator: func(v int) error {
				if v < 1 || v > 100 {
					return fmt.Errorf("quality must be between 1 and 100, got %d", v)
				}
				return nil
			},
		},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log the processing steps to stderr"},
		&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
	}
	if e.pass == Parallel {
		flags = append(flags, &cli.IntFlag{Name: "workers", Aliases: []string{"w"},
			Usage: "number of row bands processed concurrently (0 uses the number of CPUs)",
			Validator: func(v int) error {
				if v < 0 || v > grayscale.MaxWorkers {
					return fmt.Errorf("the number of workers must be between 0 and %d, got %d", grayscale.MaxWorkers, v)
				}
				return nil
			},
		})
	}

	return &cli.Command{
		Name:            name,
		Usage:           usage,
		Version:         Version + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Writer:          e.stdout,
		ErrWriter:       e.stderr,
		Flags:           flags,
		Before:          e.before,
		After:           e.after,
		Action:          e.action,
		ExitErrHandler:  e.exitErrHandler,
	}
}

// before prepares logging and console decoration after the command line has been parsed.
func (e *env) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	utils.ColorEnabled = !cmd.Bool("no-color") && isTerminal(e.stdout) && isTerminal(e.stderr)

	level := zapcore.InfoLevel
	if cmd.Bool("debug") {
		level = zapcore.DebugLevel
	}
	e.log = newLogger(e.stderr, level).Named(e.pass.String())

	e.log.Debug("Program started", zap.Strings("args", cmd.Args().Slice()),
		zap.String("ver", Version), zap.String("runtime", runtime.Version()))
	return ctx, nil
}

func (e *env) after(_ context.Context, _ *cli.Command) error {
	e.log.Debug("Program ended")
	_ = e.log.Sync()
	return nil
}

func (e *env) action(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	op := &grayscale.Ops{
		Src:      cmd.String("in"),
		Dst:      cmd.String("out"),
		PipeName: PipeName,
		Quality:  cmd.Int("quality"),
		Log:      e.log,
	}
	if cmd.Args().Len() > 0 {
		e.log.Warn("Malformed command line, unexpected arguments", zap.Strings("ignoring", cmd.Args().Slice()))
	}

	// Keep stdout clean for the image data when it is used as a pipe.
	out := e.stdout
	if op.Dst == PipeName {
		out = e.stderr
	}

	if e.pass == Sequential {
		rep, err := op.RunSequential()
		if err != nil {
			return err
		}
		printSequential(out, rep)
		return nil
	}

	op.Workers = cmd.Int("workers")
	rep, err := op.RunParallel()
	printParallel(out, rep)
	return err
}

// exitErrHandler reports the error on the error stream; the exit status is set by Run.
func (e *env) exitErrHandler(_ context.Context, _ *cli.Command, err error) {
	var (
		lerr *grayscale.LoadError
		serr *grayscale.SaveError
		msg  = "Error converting the image"
	)
	switch {
	case errors.As(err, &lerr):
		msg = "Error loading the image"
	case errors.As(err, &serr):
		msg = "Error saving the image"
	}

	fmt.Fprintf(e.stderr, "%s %s\n",
		utils.DecorateText(msg+":", utils.ErrorMessage),
		utils.DecorateText(err.Error(), utils.DefaultMessage),
	)
	e.log.Debug("Program ended with error", zap.Error(err))
}

func printSequential(w io.Writer, rep *grayscale.Report) {
	fmt.Fprintf(w, "Sequential processing completed in %s ms\n",
		utils.DecorateText(utils.FormatMillis(rep.Elapsed), utils.SuccessMessage))
}

func printParallel(w io.Writer, rep *grayscale.Report) {
	if rep == nil {
		return
	}
	fmt.Fprintf(w, "Image loaded: %dx%d (%d channels)\n", rep.Width, rep.Height, rep.Channels)
	fmt.Fprintf(w, "Processing completed in %s seconds using %d workers.\n",
		utils.DecorateText(utils.FormatSeconds(rep.Elapsed), utils.SuccessMessage), rep.Workers)
	if rep.Saved && rep.Dst != PipeName {
		fmt.Fprintf(w, "Image saved as: %s\n", utils.DecorateText(rep.Dst, utils.SuccessMessage))
	}
}

// newLogger returns a console logger writing to w.
func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	if !utils.ColorEnabled {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
