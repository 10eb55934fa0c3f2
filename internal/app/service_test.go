package service

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"namearena/internal/adapters/repository"
	"namearena/internal/domain/model"
	"namearena/pkg/logger"
)

func init() {
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func startedService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc := New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(func() { svc.Stop(context.Background()) })
	return svc
}

// playOut votes left-wins through every remaining pair.
func playOut(ctx context.Context, svc *Service, sessionID string) VoteResult {
	var last VoteResult
	for {
		res, err := svc.SubmitVote(ctx, sessionID, "", model.LeftWins)
		So(err, ShouldBeNil)
		last = res
		if res.Finished {
			return last
		}
	}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		Convey("When a tournament is created", func() {
			mv, err := svc.CreateTournament(ctx, []string{"Apple", "Banana", "Cherry"})
			So(err, ShouldBeNil)
			So(mv.SessionID, ShouldNotBeBlank)
			So(mv.Left, ShouldEqual, "Apple")
			So(mv.Right, ShouldEqual, "Banana")

			Convey("Then the next match is stable until a vote lands", func() {
				again, ok, err := svc.NextMatch(ctx, mv.SessionID)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(again.Left, ShouldEqual, mv.Left)
				So(again.Right, ShouldEqual, mv.Right)
			})

			Convey("When every pair is voted on", func() {
				res := playOut(ctx, svc, mv.SessionID)
				So(res.Finished, ShouldBeTrue)

				Convey("Then standings are final", func() {
					standings, finished, err := svc.Standings(ctx, mv.SessionID)
					So(err, ShouldBeNil)
					So(finished, ShouldBeTrue)
					So(len(standings), ShouldEqual, 3)
					So(standings[0].Position, ShouldEqual, 1)
				})

				Convey("Then the result reaches the leaderboard", func() {
					So(waitForCount(ctx, svc, 3, 2*time.Second), ShouldBeTrue)

					top, err := svc.TopN(ctx, 10)
					So(err, ShouldBeNil)
					So(len(top), ShouldEqual, 3)

					entry, err := svc.Rank(ctx, top[0].Name)
					So(err, ShouldBeNil)
					So(entry.Rank, ShouldEqual, 1)
				})
			})
		})

		Convey("Then unknown sessions are rejected", func() {
			_, _, err := svc.NextMatch(ctx, "no-such-session")
			So(err, ShouldWrap, ErrSessionNotFound)

			_, err = svc.Undo(ctx, "no-such-session")
			So(err, ShouldWrap, ErrSessionNotFound)
		})

		Convey("Then oversized tournaments are rejected", func() {
			names := make([]string, 0, 200)
			for i := 0; i < 200; i++ {
				names = append(names, "Name-"+string(rune('A'+i%26))+string(rune('0'+i/26)))
			}
			_, err := svc.CreateTournament(ctx, names)
			So(err, ShouldWrap, ErrTooManyItems)
		})
	})
}

func waitForCount(ctx context.Context, svc *Service, want int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if svc.store.Count(ctx) >= want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return svc.store.Count(ctx) >= want
}

func TestVoteIdempotency(t *testing.T) {
	Convey("Given a tournament and a vote with an ID", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		mv, err := svc.CreateTournament(ctx, []string{"Apple", "Banana", "Cherry"})
		So(err, ShouldBeNil)

		res, err := svc.SubmitVote(ctx, mv.SessionID, "vote-1", model.LeftWins)
		So(err, ShouldBeNil)
		So(res.Duplicate, ShouldBeFalse)

		Convey("When the same vote ID is retried", func() {
			retry, err := svc.SubmitVote(ctx, mv.SessionID, "vote-1", model.LeftWins)
			So(err, ShouldBeNil)

			Convey("Then it reports duplicate and applies nothing", func() {
				So(retry.Duplicate, ShouldBeTrue)
				next, ok, err := svc.NextMatch(ctx, mv.SessionID)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(next.MatchNumber, ShouldEqual, 2)
			})
		})

		Convey("When a vote with a fresh ID fails to apply", func() {
			_, err := svc.SubmitVote(ctx, mv.SessionID, "vote-2", model.Outcome("sideways"))
			So(err, ShouldWrap, ErrInvalidOutcome)

			Convey("Then the ID is released for retry", func() {
				again, err := svc.SubmitVote(ctx, mv.SessionID, "vote-2", model.RightWins)
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeFalse)
			})
		})
	})
}

func TestServiceUndo(t *testing.T) {
	Convey("Given a tournament with one vote", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		mv, err := svc.CreateTournament(ctx, []string{"Apple", "Banana"})
		So(err, ShouldBeNil)
		_, err = svc.SubmitVote(ctx, mv.SessionID, "", model.LeftWins)
		So(err, ShouldBeNil)

		Convey("Then undo on an unvoted session is an error", func() {
			back, err := svc.Undo(ctx, mv.SessionID)
			So(err, ShouldBeNil)
			So(back.Left, ShouldEqual, "Apple")

			_, err = svc.Undo(ctx, mv.SessionID)
			So(err, ShouldWrap, ErrNothingToUndo)
		})
	})
}

func TestSeedingFromStore(t *testing.T) {
	Convey("Given a store with history for one name", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(store.ArchiveResult(ctx, model.TournamentResult{
			SessionID:  "prior",
			FinishedAt: time.Now().UTC(),
			Standings: []model.FinalStanding{
				{Position: 1, Name: "Apple", Rating: 1900, LiveRating: 1900, Wins: 3, Matches: 3},
			},
		}), ShouldBeNil)

		svc := startedService(t, WithStore(store))

		Convey("When a tournament includes that name", func() {
			mv, err := svc.CreateTournament(ctx, []string{"Apple", "Banana"})
			So(err, ShouldBeNil)

			Convey("Then it enters at its stored rating", func() {
				So(mv.LeftRating, ShouldEqual, 1900)
				So(mv.RightRating, ShouldEqual, 1500)
			})
		})
	})
}

func TestServiceInitialRating(t *testing.T) {
	Convey("Given a service configured with a custom starting rating", t, func() {
		ctx := context.Background()
		svc := startedService(t, WithServiceInitialRating(1200))

		Convey("When a tournament with unseen names starts", func() {
			mv, err := svc.CreateTournament(ctx, []string{"Apple", "Banana"})
			So(err, ShouldBeNil)

			Convey("Then both names enter at the configured rating", func() {
				So(mv.LeftRating, ShouldEqual, 1200)
				So(mv.RightRating, ShouldEqual, 1200)
			})
		})
	})
}

func TestUnstartedServiceReads(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		ctx := context.Background()
		svc := New()

		Convey("Then leaderboard reads are rejected", func() {
			_, err := svc.TopN(ctx, 5)
			So(err, ShouldWrap, ErrNotStarted)
		})

		Convey("Then rank lookups are rejected", func() {
			_, err := svc.Rank(ctx, "Apple")
			So(err, ShouldWrap, ErrNotStarted)
		})

		Convey("Then tournament creation is rejected", func() {
			_, err := svc.CreateTournament(ctx, []string{"Apple", "Banana"})
			So(err, ShouldWrap, ErrNotStarted)
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service with one active tournament", t, func() {
		ctx := context.Background()
		svc := startedService(t)
		_, err := svc.CreateTournament(ctx, []string{"Apple", "Banana"})
		So(err, ShouldBeNil)

		Convey("Then stats report the live shape", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["activeSessions"], ShouldEqual, 1)
			So(stats["completedSessions"], ShouldEqual, 0)
		})
	})
}
