// Command graypar converts an image to grayscale in place by splitting its rows
// into one band per CPU, and reports the elapsed time in seconds.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/esimov/grayscale/cmd/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Run(ctx, app.Parallel, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
