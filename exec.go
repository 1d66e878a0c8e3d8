package grayscale

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/esimov/grayscale/utils"
)

// ErrTerminal is returned when a pipe name is used on an interactive terminal.
var ErrTerminal = errors.New("`-` should be used with a pipe")

// Ops describes a single conversion pass.
type Ops struct {
	Src, Dst, PipeName string
	// Workers is the number of row bands used by the parallel pass.
	// Zero or less selects WorkerCount.
	Workers int
	// Quality is the JPEG encoding quality, DefaultQuality if zero.
	Quality int

	Log    *zap.Logger
	Stdin  io.Reader
	Stdout io.Writer
}

// Report holds the relevant information about a finished (or partially finished) pass.
type Report struct {
	Src, Dst string
	Width    int
	Height   int
	Channels int
	Workers  int
	Elapsed  time.Duration
	Saved    bool
}

// LoadError is returned when the source image could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load the source image %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError is returned when the resulting image could not be encoded or written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save the image %q: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// RunSequential loads the source as RGB, converts it with Sequential into a
// separate buffer and saves the result. The elapsed time covers the whole pass,
// decoding and encoding included.
func (op *Ops) RunSequential() (*Report, error) {
	log := op.logger().Named("seq")
	now := time.Now()

	src, err := op.load(3)
	if err != nil {
		return nil, err
	}
	rep := op.newReport(src)
	log.Debug("Image loaded", zap.Int("width", src.Width), zap.Int("height", src.Height), zap.Int("channels", src.Channels))

	dst, err := Sequential(src)
	if err != nil {
		return rep, err
	}

	if err := op.save(dst); err != nil {
		rep.Elapsed = time.Since(now)
		return rep, err
	}
	rep.Saved = true
	rep.Elapsed = time.Since(now)

	log.Debug("Sequential pass completed", zap.String("elapsed", utils.FormatTime(rep.Elapsed)), zap.String("destination", op.Dst))
	return rep, nil
}

// RunParallel loads the source keeping its channel count, converts it in place
// with Parallel and saves the result. The elapsed time covers only the conversion.
func (op *Ops) RunParallel() (*Report, error) {
	log := op.logger().Named("par")

	buf, err := op.load(0)
	if err != nil {
		return nil, err
	}
	rep := op.newReport(buf)
	rep.Workers = op.Workers
	if rep.Workers <= 0 {
		rep.Workers = WorkerCount()
	}
	log.Debug("Image loaded", zap.Int("width", buf.Width), zap.Int("height", buf.Height),
		zap.Int("channels", buf.Channels), zap.Int("workers", rep.Workers))

	now := time.Now()
	if err := Parallel(buf, rep.Workers); err != nil {
		return rep, err
	}
	rep.Elapsed = time.Since(now)
	log.Debug("Parallel pass completed", zap.String("elapsed", utils.FormatTime(rep.Elapsed)))

	if err := op.save(buf); err != nil {
		return rep, err
	}
	rep.Saved = true
	return rep, nil
}

func (op *Ops) newReport(buf *Buffer) *Report {
	return &Report{
		Src:      op.Src,
		Dst:      op.Dst,
		Width:    buf.Width,
		Height:   buf.Height,
		Channels: buf.Channels,
	}
}

func (op *Ops) logger() *zap.Logger {
	if op.Log == nil {
		return zap.NewNop()
	}
	return op.Log
}

func (op *Ops) isPipe(path string) bool {
	return len(op.PipeName) > 0 && path == op.PipeName
}

// load reads the source image either from a regular file or from stdin.
func (op *Ops) load(channels int) (*Buffer, error) {
	if !op.isPipe(op.Src) {
		buf, err := Load(op.Src, channels)
		if err != nil {
			return nil, &LoadError{Path: op.Src, Err: err}
		}
		return buf, nil
	}

	in := op.Stdin
	if in == nil {
		in = os.Stdin
	}
	if isTerminal(in) {
		return nil, &LoadError{Path: op.Src, Err: fmt.Errorf("%w for stdin", ErrTerminal)}
	}
	// Stdin is not seekable, the content sniffing needs to rewind.
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, &LoadError{Path: op.Src, Err: err}
	}
	buf, err := Decode(bytes.NewReader(data), channels)
	if err != nil {
		return nil, &LoadError{Path: op.Src, Err: err}
	}
	return buf, nil
}

// save writes the image either into a regular file or, as JPEG, to stdout.
func (op *Ops) save(buf *Buffer) error {
	if !op.isPipe(op.Dst) {
		if err := Save(op.Dst, buf, op.Quality); err != nil {
			return &SaveError{Path: op.Dst, Err: err}
		}
		return nil
	}

	out := op.Stdout
	if out == nil {
		out = os.Stdout
	}
	if isTerminal(out) {
		return &SaveError{Path: op.Dst, Err: fmt.Errorf("%w for stdout", ErrTerminal)}
	}
	if err := Encode(out, buf, "", op.Quality); err != nil {
		return &SaveError{Path: op.Dst, Err: err}
	}
	return nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
