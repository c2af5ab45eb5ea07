package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/artloop/sketchduel/internal/matchstorm"
)

// Default configuration constants.
const (
	defaultNumPlayers  = 1000
	defaultVoteRounds  = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numPlayers = flag.Int("players", defaultNumPlayers, "Number of players requesting a match")
		voteRounds = flag.Int("votes", defaultVoteRounds, "Number of completed games to vote on afterwards")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile    = flag.String("log", "", "Log file for test output (default: storm_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		matchstorm.ShowHelp()
		return
	}

	// Setup logging
	if err := matchstorm.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &matchstorm.Config{
		BaseURL:    *baseURL,
		NumPlayers: *numPlayers,
		VoteRounds: *voteRounds,
		Workers:    *workers,
		Timeout:    *timeout,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the storm
	if err := matchstorm.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Storm failed: " + err.Error() + "\n")
		return
	}
}
