// Command recoverytui is a terminal control surface for the recovery map. It
// loads the workbooks with the same configuration as the HTTP service and
// logs to a file so the screen stays clean.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/couchcryptid/wireline-recovery-map/internal/app"
	"github.com/couchcryptid/wireline-recovery-map/internal/config"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
	"github.com/couchcryptid/wireline-recovery-map/internal/tui"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logPath := os.Getenv("TUI_LOG_FILE")
	if logPath == "" {
		logPath = "recoverytui.log"
	}
	logFile, err := tea.LogToFile(logPath, "")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := observability.NewFileLogger(logFile, cfg.LogLevel)
	metrics := observability.NewMetrics()

	a, err := app.New(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("데이터를 불러오는 중...")
	a.Start(context.Background())

	if _, err := tea.NewProgram(tui.New(a.Session), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
