// Command build wipes a destination directory, runs the pre-build commands of
// a project's .buildrc, copies the selected files, runs the post-build
// commands and writes a .buildinfo provenance file.
//
//	build [flags] [src] <dest> [profile]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
