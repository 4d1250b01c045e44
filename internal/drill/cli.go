package drill

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/funnel/pkg/logger"
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
		logFile = "drill_log_" + timestamp + ".log"
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

// ShowHelp prints usage information for the pipeline drill tool.
func ShowHelp() {
	os.Stdout.WriteString(`Funnel Pipeline Drill
=====================

A concurrent tool that drives synthetic candidates through the full hiring
pipeline, including deliberate event replays and double token consumption.

Usage:
  go run cmd/pipeline-drill/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -candidates int
        Number of candidates to drive through the pipeline (default 500)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for drill output (default: drill_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Drill with default settings
  go run cmd/pipeline-drill/main.go

  # Drill with custom parameters
  go run cmd/pipeline-drill/main.go -candidates 2000 -workers 16 -url http://localhost:8080

  # Drill with verbose output
  go run cmd/pipeline-drill/main.go -verbose -candidates 100
`)
}
