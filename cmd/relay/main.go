// Command relay sends one generate-content request and prints the answer.
//
// Usage:
//
//	relay [flags] [prompt]
//	relay settings [-provider p] [-base-url u] [-keys k]
//
// The prompt is read from the arguments, or from stdin when none are given.
// Configuration comes from the environment (and a .env file if present):
//
//	API_KEY              API keys, newline or comma separated (locks settings)
//	RELAY_SETTINGS       memory, file or redis
//	RELAY_SETTINGS_PATH  settings file for the file backend
//	RELAY_REDIS_URL      redis URL for the redis backend
//	RELAY_MODEL          default model
//	RELAY_TIMEOUT        overall timeout (default 2m)
//	RELAY_LOG_LEVEL      debug, info, warn or error
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "relay:", err)
		os.Exit(1)
	}
}
