package matchstorm

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/artloop/sketchduel/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "storm_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the matchmaking storm tool.
func ShowHelp() {
	os.Stdout.WriteString(`SketchDuel Matchmaking Storm Tool
=================================

A concurrent tool for stress-testing the SketchDuel matchmaking engine.

Usage:
  go run cmd/matchstorm/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -players int
        Number of players requesting a match (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -votes int
        Number of completed games to vote on afterwards (default 50)
  -log string
        Log file for test output (default: storm_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Storm with default settings
  go run cmd/matchstorm/main.go

  # Storm with custom parameters
  go run cmd/matchstorm/main.go -players 5000 -workers 16 -url http://localhost:8080

  # Storm with verbose output
  go run cmd/matchstorm/main.go -verbose -players 2000
`)
}
