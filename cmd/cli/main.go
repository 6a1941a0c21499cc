package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mansoorceksport/mobipent/internal/bootstrap"
	"github.com/mansoorceksport/mobipent/internal/config"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Keep stdout for results
	log.SetOutput(io.Discard)
	if os.Getenv("MOBIPENT_VERBOSE") != "" {
		log.SetOutput(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := bootstrap.Telemetry(ctx, cfg)
	defer shutdownTelemetry()

	client, err := bootstrap.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	cli := &commands{
		client: client,
		picker: tui.FilePicker{},
		out:    os.Stdout,
	}

	if err := cli.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "Cancelled")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		shutdownTelemetry()
		client.Close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: mobipent <command> [flags]

Commands:
  login    -email E -password P   log in and store the token
  signup   -email E -password P   create an account
  logout                          forget the stored token
  whoami                          show the logged-in account
  ping                            check the backend is reachable
  upload   [-tool T] [FILE]       run one tool (pick a file when FILE is omitted)
  scan     [FILE]                 run the comprehensive scan
  batch    [-tools A,B] FILE      run several tools concurrently
  history  [-clear]               list recent uploads
  tools                           list the available tools

FILE is a local path, file://, s3:// or http(s):// location.`)
}
