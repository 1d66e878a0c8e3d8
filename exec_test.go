package grayscale

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const pipeName = "-"

func writeSample(t *testing.T, dir string, channels int) (string, *Buffer) {
	t.Helper()

	src := randomBuffer(imgWidth, imgHeight, channels, 5)
	if channels == 4 {
		for i := 3; i < len(src.Pix); i += 4 {
			src.Pix[i] = 0x80
		}
	}
	path := filepath.Join(dir, "input.png")
	require.NoError(t, Save(path, src, 0))
	return path, src
}

func newOps(t *testing.T, src, dst string) *Ops {
	return &Ops{
		Src:      src,
		Dst:      dst,
		PipeName: pipeName,
		Log:      zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller())),
	}
}

func TestExec_SequentialPass(t *testing.T) {
	dir := t.TempDir()
	in, src := writeSample(t, dir, 3)
	out := filepath.Join(dir, "output_seq.png")

	rep, err := newOps(t, in, out).RunSequential()
	require.NoError(t, err)

	assert.True(t, rep.Saved)
	assert.Equal(t, imgWidth, rep.Width)
	assert.Equal(t, imgHeight, rep.Height)
	assert.Equal(t, 3, rep.Channels)
	assert.Positive(t, int64(rep.Elapsed))

	want, err := Sequential(src)
	require.NoError(t, err)
	got, err := Load(out, 0)
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.Pix)
}

func TestExec_SequentialPassDropsAlpha(t *testing.T) {
	dir := t.TempDir()
	in, _ := writeSample(t, dir, 4)

	rep, err := newOps(t, in, filepath.Join(dir, "output_seq.png")).RunSequential()
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Channels)
}

func TestExec_ParallelPass(t *testing.T) {
	dir := t.TempDir()
	in, src := writeSample(t, dir, 4)
	out := filepath.Join(dir, "output.png")

	op := newOps(t, in, out)
	op.Workers = 3
	rep, err := op.RunParallel()
	require.NoError(t, err)

	assert.True(t, rep.Saved)
	assert.Equal(t, 4, rep.Channels)
	assert.Equal(t, 3, rep.Workers)

	want, err := Sequential(src)
	require.NoError(t, err)
	got, err := Load(out, 0)
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.Pix)
}

func TestExec_PassesLogElapsedTime(t *testing.T) {
	dir := t.TempDir()
	in, _ := writeSample(t, dir, 3)

	core, logs := observer.New(zapcore.DebugLevel)
	op := newOps(t, in, filepath.Join(dir, "output.png"))
	op.Log = zap.New(core)

	_, err := op.RunSequential()
	require.NoError(t, err)
	_, err = op.RunParallel()
	require.NoError(t, err)

	for _, msg := range []string{"Sequential pass completed", "Parallel pass completed"} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)

		elapsed, ok := entries[0].ContextMap()["elapsed"].(string)
		require.True(t, ok, msg)
		assert.Regexp(t, `^\d+\.\d{2}s$`, elapsed)
	}
}

func TestExec_ParallelPassTooManyWorkers(t *testing.T) {
	dir := t.TempDir()
	in, _ := writeSample(t, dir, 3)
	out := filepath.Join(dir, "output.png")

	op := newOps(t, in, out)
	op.Workers = MaxWorkers + 1
	rep, err := op.RunParallel()
	assert.ErrorIs(t, err, ErrWorkers)
	require.NotNil(t, rep)
	assert.False(t, rep.Saved)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no output file expected")
}

func TestExec_ParallelPassDefaultWorkers(t *testing.T) {
	dir := t.TempDir()
	in, _ := writeSample(t, dir, 3)

	rep, err := newOps(t, in, filepath.Join(dir, "output.png")).RunParallel()
	require.NoError(t, err)
	assert.Equal(t, WorkerCount(), rep.Workers)
}

func TestExec_MissingSource(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output.jpg")

	for name, run := range map[string]func(*Ops) (*Report, error){
		"sequential": (*Ops).RunSequential,
		"parallel":   (*Ops).RunParallel,
	} {
		t.Run(name, func(t *testing.T) {
			rep, err := run(newOps(t, filepath.Join(dir, "input.jpg"), out))
			assert.Nil(t, rep)

			var lerr *LoadError
			require.True(t, errors.As(err, &lerr), "expected a load error, got %v", err)
			assert.True(t, errors.Is(err, os.ErrNotExist))

			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr), "no output file expected")
		})
	}
}

func TestExec_SaveFailureIsReportedByBothPasses(t *testing.T) {
	dir := t.TempDir()
	in, _ := writeSample(t, dir, 3)
	out := filepath.Join(dir, "missing", "output.jpg")

	for name, run := range map[string]func(*Ops) (*Report, error){
		"sequential": (*Ops).RunSequential,
		"parallel":   (*Ops).RunParallel,
	} {
		t.Run(name, func(t *testing.T) {
			rep, err := run(newOps(t, in, out))

			var serr *SaveError
			require.True(t, errors.As(err, &serr), "expected a save error, got %v", err)
			assert.Equal(t, out, serr.Path)
			require.NotNil(t, rep)
			assert.False(t, rep.Saved)
		})
	}
}

func TestExec_Pipes(t *testing.T) {
	var in bytes.Buffer
	src := randomBuffer(imgWidth, imgHeight, 3, 8)
	require.NoError(t, Encode(&in, src, ".png", 0))

	var out bytes.Buffer
	op := newOps(t, pipeName, pipeName)
	op.Stdin = &in
	op.Stdout = &out

	rep, err := op.RunParallel()
	require.NoError(t, err)
	assert.True(t, rep.Saved)

	dst, err := Decode(bytes.NewReader(out.Bytes()), 0)
	require.NoError(t, err)
	assert.Equal(t, imgWidth, dst.Width)
	assert.Equal(t, imgHeight, dst.Height)
}

func TestExec_PipeWithNonImageInput(t *testing.T) {
	op := newOps(t, pipeName, filepath.Join(t.TempDir(), "output.jpg"))
	op.Stdin = bytes.NewBufferString("plain text")

	_, err := op.RunSequential()
	assert.ErrorIs(t, err, ErrNotImage)

	var lerr *LoadError
	assert.True(t, errors.As(err, &lerr))
}
