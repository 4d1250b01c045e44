package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/funnel/internal/drill"
)

// Default configuration constants.
const (
	defaultNumCandidates = 500
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultDrillTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numCandidates = flag.Int("candidates", defaultNumCandidates, "Number of candidates to drive through the pipeline")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile       = flag.String("log", "", "Log file for drill output (default: drill_log_TIMESTAMP.log)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		drill.ShowHelp()
		return
	}

	// Setup logging
	if err := drill.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultDrillTimeout)
	defer cancel()

	// Create drill configuration
	config := &drill.Config{
		BaseURL:       *baseURL,
		NumCandidates: *numCandidates,
		Workers:       *workers,
		Timeout:       *timeout,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	// Run the drill
	if err := drill.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Drill failed: " + err.Error() + "\n")
		return
	}
}
