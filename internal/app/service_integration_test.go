package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	service "github.com/artloop/sketchduel/internal/app"
	"github.com/artloop/sketchduel/internal/domain/model"
	"github.com/artloop/sketchduel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		svc := service.New(
			service.WithBatchSize(100),
			service.WithLookupLimit(100),
			service.WithDedupeSize(500),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When many players request matches concurrently", func() {
			const players = 20

			var wg sync.WaitGroup
			games := make([]model.Game, players)
			errs := make([]error, players)
			for i := 0; i < players; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					games[i], errs[i] = svc.Play(ctx, fmt.Sprintf("player-%d", i))
				}(i)
			}
			wg.Wait()

			Convey("Then every request resolves to a game", func() {
				for i := 0; i < players; i++ {
					So(errs[i], ShouldBeNil)
					So(games[i].ID, ShouldNotBeEmpty)
				}
			})

			Convey("And nobody is matched against themselves", func() {
				for i, g := range games {
					user := fmt.Sprintf("player-%d", i)
					if len(g.Players) == 2 {
						So(g.Players[0].UserID, ShouldNotEqual, g.Players[1].UserID)
					}
					So(g.Seat(user), ShouldBeGreaterThanOrEqualTo, 0)
				}
			})

			Convey("And no game seats more than two players", func() {
				// Re-read every game through the profile to see final state
				seatCount := make(map[string]int)
				for i := 0; i < players; i++ {
					user := fmt.Sprintf("player-%d", i)
					userGames, err := svc.GamesForUser(ctx, user)
					So(err, ShouldBeNil)
					for _, g := range userGames {
						So(len(g.Players), ShouldBeLessThanOrEqualTo, 2)
						seatCount[g.ID]++
					}
				}
				for id, n := range seatCount {
					So(n, ShouldBeLessThanOrEqualTo, 2)
					_ = id
				}
			})
		})

		Convey("When two players duel end-to-end", func() {
			// Host enters matchmaking first and receives an open game
			hostGame, err := svc.Play(ctx, "host")
			So(err, ShouldBeNil)
			So(len(hostGame.Players), ShouldEqual, 1)

			// The host can read their own game while it waits for an
			// opponent; outsiders cannot
			own, err := svc.GetGame(ctx, hostGame.ID, "host")
			So(err, ShouldBeNil)
			So(len(own.Players), ShouldEqual, 1)

			_, err = svc.GetGame(ctx, hostGame.ID, "stranger")
			So(err, ShouldNotBeNil)

			// The guest's request should pair with the host's open game
			guestGame, err := svc.Play(ctx, "guest")
			So(err, ShouldBeNil)
			So(guestGame.ID, ShouldEqual, hostGame.ID)
			So(len(guestGame.Players), ShouldEqual, 2)
			So(guestGame.Prompt, ShouldNotBeEmpty)

			Convey("And both submit drawings", func() {
				g, err := svc.SubmitDrawing(ctx, hostGame.ID, "host", "data:image/png;base64,HOST")
				So(err, ShouldBeNil)
				So(g.Players[0].DrawingData, ShouldNotBeEmpty)

				g, err = svc.SubmitDrawing(ctx, hostGame.ID, "guest", "data:image/png;base64,GUEST")
				So(err, ShouldBeNil)
				So(g.Players[1].DrawingData, ShouldNotBeEmpty)

				Convey("Then a spectator can fetch and vote on the game", func() {
					got, err := svc.GetGame(ctx, hostGame.ID, "spectator")
					So(err, ShouldBeNil)
					So(len(got.Players), ShouldEqual, 2)

					voted, err := svc.Vote(ctx, hostGame.ID, "spectator", "host")
					So(err, ShouldBeNil)
					So(voted.Players[0].Votes, ShouldEqual, 1)

					// A second vote by the same spectator is refused
					_, err = svc.Vote(ctx, hostGame.ID, "spectator", "guest")
					So(err, ShouldNotBeNil)
				})

				Convey("And the duel appears in another player's browse feed", func() {
					list, err := svc.ListGames(ctx, "someone-else", nil, 10)
					So(err, ShouldBeNil)

					found := false
					for _, g := range list {
						if g.ID == hostGame.ID {
							found = true
						}
					}
					So(found, ShouldBeTrue)
				})

				Convey("But not in the participants' own feed", func() {
					list, err := svc.ListGames(ctx, "host", nil, 10)
					So(err, ShouldBeNil)
					for _, g := range list {
						So(g.ID, ShouldNotEqual, hostGame.ID)
					}
				})
			})
		})

		Convey("When a player checks their profile", func() {
			_, err := svc.Play(ctx, "profiled")
			So(err, ShouldBeNil)

			profile, err := svc.Profile(ctx, "profiled", "Profiled Player")
			So(err, ShouldBeNil)
			So(profile.UserID, ShouldEqual, "profiled")
			So(len(profile.Games), ShouldBeGreaterThan, 0)

			userGames, err := svc.GamesForUser(ctx, "profiled")
			So(err, ShouldBeNil)
			So(len(userGames), ShouldBeGreaterThan, 0)
		})

		Convey("When checking service stats after activity", func() {
			_, err := svc.Play(ctx, "stats-player")
			So(err, ShouldBeNil)

			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["totalGames"], ShouldBeGreaterThan, 0)
			So(stats["totalProfiles"], ShouldBeGreaterThan, 0)
		})
	})
}
