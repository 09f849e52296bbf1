// Command rosterpipe extracts tournament teams into a validated artifact.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], deps{stdout: os.Stdout, stderr: os.Stderr})
	stop()
	os.Exit(code)
}
