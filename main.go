// polychat - A terminal chat client for multiple LLM models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"polychat/internal/app"
	"polychat/internal/cloud"
	"polychat/internal/config"
	"polychat/internal/storage"
	"polychat/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "", "tui":
		runTUI()
	case "history":
		runHistory()
	case "config":
		runConfig()
	case "version", "--version", "-v":
		fmt.Printf("polychat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`polychat - chat with multiple LLM models from your terminal

Usage:
  polychat            Start the chat interface
  polychat history    List past chats
  polychat config     Show the configuration file path
  polychat version    Show version information

Configuration:
  ~/.polychat/config.toml

Environment:
  POLYCHAT_API_KEY    Completion API key (or OPENROUTER_API_KEY)
  POLYCHAT_MODEL      Default model ID
  POLYCHAT_BASE_URL   Completion API base URL
`)
}

// buildCore loads config and assembles the application core.
func buildCore() (*app.App, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, nil, err
	}

	registry := cfg.Registry()
	store := storage.NewStore(backend)
	client := cloud.NewClient(cfg.Cloud.APIKey).WithBaseURL(cfg.Cloud.BaseURL)

	core := app.New(registry, store, client)
	if m, ok := registry.Resolve(cfg.DefaultModel); ok {
		core.SelectModel(m.ID)
	}
	return core, cfg, nil
}

// openBackend opens the configured storage backend.
func openBackend(cfg *config.Config) (storage.Backend, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == "sqlite" {
		return storage.NewSQLiteBackend(path)
	}
	return storage.NewFileBackend(path)
}

func runTUI() {
	core, cfg, err := buildCore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Keep stray log output away from the alternate screen.
	logFile := setupLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	m := ui.NewModel(core, ui.Options{
		Theme:       cfg.UI.Theme,
		HistoryOpen: cfg.UI.HistoryOpen,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runHistory() {
	core, _, err := buildCore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(storage.FormatSummaryList(core.Summaries()))
}

func runConfig() {
	path, err := config.Path()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("(not created yet - defaults in effect)")
	}
}

// setupLogging redirects the standard logger to ~/.polychat/polychat.log so
// warnings don't corrupt the TUI. Falls back to discarding on error.
func setupLogging() *os.File {
	dir, err := config.Dir()
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(dir+"/polychat.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(f)
	return f
}
