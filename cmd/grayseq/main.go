// Command grayseq converts an image to grayscale with a single sequential pass
// and reports the elapsed time in milliseconds.
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
	code := app.Run(ctx, app.Sequential, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
