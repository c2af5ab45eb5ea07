package matchstorm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artloop/sketchduel/pkg/logger"
)

// Run executes the complete matchmaking storm.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting sketchduel matchmaking storm",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.NumPlayers),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("voteRounds", config.VoteRounds),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Storm the matchmaker
	assignments, err := stormPlays(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("matchmaking storm failed: %w", err)
	}

	// Step 3: Verify pairing invariants
	paired, err := verifyAssignments(ctx, config, assignments, stats)
	if err != nil {
		return fmt.Errorf("pairing verification failed: %w", err)
	}

	// Step 4: Play out a sample of paired games
	if err := playOutGames(ctx, config, paired, stats); err != nil {
		log.Printf("game playout warning: %v", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "storm completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url, "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// stormPlays fires NumPlayers concurrent matchmaking requests and collects
// the resulting assignments.
func stormPlays(ctx context.Context, config *Config, stats *Stats) ([]Assignment, error) {
	log.Printf("storming matchmaker with %d players and %d workers...", config.NumPlayers, config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/play"

	var (
		matched int64
		failed  int64
	)

	var mu sync.Mutex
	assignments := make([]Assignment, 0, config.NumPlayers)

	userChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for userID := range userChan {
				select {
				case <-ctx.Done():
					return
				default:
					game, err := requestMatch(ctx, client, url, userID)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("play failed for %s: %v", userID, err)
						}
						continue
					}

					atomic.AddInt64(&matched, 1)
					mu.Lock()
					assignments = append(assignments, Assignment{UserID: userID, Game: game})
					mu.Unlock()
				}
			}
		}()
	}

	// Send player ids to workers
	go func() {
		defer close(userChan)
		for i := 0; i < config.NumPlayers; i++ {
			select {
			case <-ctx.Done():
				return
			case userChan <- fmt.Sprintf("storm-player-%04d", i):
			}
		}
	}()

	wg.Wait()

	stats.PlaysRequested = config.NumPlayers
	stats.PlaysMatched = int(atomic.LoadInt64(&matched))
	stats.PlaysFailed = int(atomic.LoadInt64(&failed))

	log.Printf("matchmaking completed: matched=%d failed=%d", stats.PlaysMatched, stats.PlaysFailed)
	return assignments, nil
}

// requestMatch submits one matchmaking request and decodes the game.
func requestMatch(ctx context.Context, client *HTTPClient, url, userID string) (Game, error) {
	resp, err := client.Post(ctx, url, userID, nil)
	if err != nil {
		return Game{}, err
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Game{}, err
	}

	if resp.StatusCode != StatusOK {
		return Game{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var game Game
	if err := json.Unmarshal(body, &game); err != nil {
		return Game{}, fmt.Errorf("failed to decode game: %w", err)
	}
	return game, nil
}

// playOutGames submits drawings and casts spectator votes for a sample of
// completed games.
func playOutGames(ctx context.Context, config *Config, paired []Game, stats *Stats) error {
	if len(paired) == 0 {
		return fmt.Errorf("no paired games to play out")
	}

	rounds := config.VoteRounds
	if rounds > len(paired) {
		rounds = len(paired)
	}

	log.Printf("playing out %d paired games...", rounds)

	client := newHTTPClient(config.Timeout)
	drawURL := config.BaseURL + "/games/drawing"
	voteURL := config.BaseURL + "/games/vote"

	for i := 0; i < rounds; i++ {
		game := paired[i]

		// Both seats submit a drawing.
		for _, p := range game.Players {
			body := map[string]string{
				"game_id":      game.ID,
				"drawing_data": "data:image/png;base64,c3Rvcm0=",
			}
			resp, err := client.Post(ctx, drawURL, p.UserID, body)
			if err != nil {
				return fmt.Errorf("drawing submission failed: %w", err)
			}
			if _, err := readResponseBody(resp); err != nil {
				return err
			}
			if resp.StatusCode == StatusOK {
				stats.DrawingsAccepted++
			}
		}

		// A spectator votes for the first seat; the repeat vote must be
		// reported as a duplicate.
		voter := fmt.Sprintf("storm-voter-%04d", i)
		body := map[string]string{
			"game_id":     game.ID,
			"vote_for_id": game.Players[0].UserID,
		}
		for attempt := 0; attempt < 2; attempt++ {
			resp, err := client.Post(ctx, voteURL, voter, body)
			if err != nil {
				return fmt.Errorf("vote failed: %w", err)
			}
			respBody, err := readResponseBody(resp)
			if err != nil {
				return err
			}
			if resp.StatusCode != StatusOK {
				return fmt.Errorf("vote returned status %d: %s", resp.StatusCode, string(respBody))
			}

			var ack VoteAck
			if err := json.Unmarshal(respBody, &ack); err != nil {
				return fmt.Errorf("failed to decode vote ack: %w", err)
			}
			if ack.Duplicate {
				stats.VotesDuplicate++
			} else {
				stats.VotesCounted++
			}
		}
	}

	log.Printf("playout completed: drawings=%d votes=%d duplicates=%d",
		stats.DrawingsAccepted, stats.VotesCounted, stats.VotesDuplicate)
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, playsPerSecond float64

	if stats.PlaysRequested > 0 {
		successRate = float64(stats.PlaysMatched) / float64(stats.PlaysRequested) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		playsPerSecond = float64(stats.PlaysRequested) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("playsRequested", stats.PlaysRequested),
		logger.Int("playsMatched", stats.PlaysMatched),
		logger.Int("playsFailed", stats.PlaysFailed),
		logger.Int("gamesCreated", stats.GamesCreated),
		logger.Int("gamesPaired", stats.GamesPaired),
		logger.Int("drawingsAccepted", stats.DrawingsAccepted),
		logger.Int("votesCounted", stats.VotesCounted),
		logger.Int("votesDuplicate", stats.VotesDuplicate),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("playsPerSecond", playsPerSecond))
}
