package matchstorm

import (
	"context"
	"fmt"
	"log"
)

// verifyAssignments checks the pairing invariants over all collected
// assignments and returns the games that ended up fully seated.
func verifyAssignments(ctx context.Context, config *Config, assignments []Assignment, stats *Stats) ([]Game, error) {
	log.Println("verifying pairing invariants...")

	if len(assignments) == 0 {
		return nil, fmt.Errorf("no assignments to verify")
	}

	seatsByGame := make(map[string][]string)
	latestByGame := make(map[string]Game)

	for _, a := range assignments {
		// A player must always be seated in the game they were assigned.
		found := false
		for _, p := range a.Game.Players {
			if p.UserID == a.UserID {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("player %s not seated in assigned game %s", a.UserID, a.Game.ID)
		}

		// No player may face themselves.
		seen := make(map[string]bool, len(a.Game.Players))
		for _, p := range a.Game.Players {
			if seen[p.UserID] {
				return nil, fmt.Errorf("game %s seats player %s twice", a.Game.ID, p.UserID)
			}
			seen[p.UserID] = true
		}

		seatsByGame[a.Game.ID] = append(seatsByGame[a.Game.ID], a.UserID)
		latestByGame[a.Game.ID] = a.Game
	}

	var created, paired int
	pairedGames := make([]Game, 0, len(seatsByGame))

	for gameID, seats := range seatsByGame {
		// At most two storm players may have been routed to one game.
		if len(seats) > MaxSeatsPerGame {
			return nil, fmt.Errorf("game %s absorbed %d storm players", gameID, len(seats))
		}

		game := latestByGame[gameID]
		if len(seats) == MaxSeatsPerGame || len(game.Players) == MaxSeatsPerGame {
			paired++
			pairedGames = append(pairedGames, game)
		} else {
			created++
		}
	}

	stats.GamesCreated = created
	stats.GamesPaired = paired

	if config.Verbose {
		displayPairingBreakdown(seatsByGame)
	}

	log.Printf("pairing verified: paired=%d stillOpen=%d", paired, created)
	return pairedGames, nil
}

// displayPairingBreakdown logs per-game seat counts.
func displayPairingBreakdown(seatsByGame map[string][]string) {
	full, half := 0, 0
	for _, seats := range seatsByGame {
		if len(seats) == MaxSeatsPerGame {
			full++
		} else {
			half++
		}
	}

	log.Printf(`pairing breakdown:
   Fully seated by storm: %d
   Single storm seat: %d
   Distinct games: %d
`, full, half, len(seatsByGame))
}
