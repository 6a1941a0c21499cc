package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mansoorceksport/mobipent/internal/bootstrap"
	"github.com/mansoorceksport/mobipent/internal/config"
	"github.com/mansoorceksport/mobipent/internal/tui"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The UI owns the terminal, so logs go to a file
	logFile, err := tea.LogToFile(cfg.Log.File, "mobipent")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Starting MobiPent...")

	shutdownTelemetry := bootstrap.Telemetry(ctx, cfg)
	defer shutdownTelemetry()

	client, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Printf("Failed to start: %v", err)
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	startDir, _ := os.Getwd()
	model := tui.NewModel(tui.Deps{
		Auth:     client.Auth,
		Uploads:  client.Uploads,
		History:  client.History,
		Ctx:      ctx,
		StartDir: startDir,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		log.Printf("TUI exited: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
