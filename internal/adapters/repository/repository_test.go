package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"namearena/internal/domain/model"
)

func sampleResult(id string) model.TournamentResult {
	return model.TournamentResult{
		SessionID:  id,
		FinishedAt: time.Now().UTC(),
		Standings: []model.FinalStanding{
			{Position: 1, Name: "Aurora", Rating: 1800, LiveRating: 1790, Wins: 2, Losses: 0, Matches: 2},
			{Position: 2, Name: "Basil", Rating: 1500, LiveRating: 1510, Wins: 1, Losses: 1, Matches: 2},
			{Position: 3, Name: "Clover", Rating: 1200, LiveRating: 1230, Wins: 0, Losses: 2, Matches: 2},
		},
		Records: []model.MatchRecord{
			{
				MatchNumber: 1, RoundNumber: 1,
				Left: "Aurora", Right: "Basil",
				Winner: "Aurora", Loser: "Basil",
				Outcome:  model.LeftWins,
				PlayedAt: time.Now().UTC(),
			},
		},
	}
}

func testStore(t *testing.T, name string, open func(t *testing.T) Store) {
	t.Helper()

	Convey("Given an empty "+name+" store", t, func() {
		ctx := context.Background()
		s := open(t)

		Convey("Then lookups miss and the board is empty", func() {
			_, err := s.Rank(ctx, "Aurora")
			So(err, ShouldWrap, ErrNotFound)
			So(s.Count(ctx), ShouldEqual, 0)

			top, err := s.TopN(ctx, 10)
			So(err, ShouldBeNil)
			So(top, ShouldBeEmpty)
		})

		Convey("Then a non-positive limit is rejected", func() {
			_, err := s.TopN(ctx, 0)
			So(err, ShouldWrap, ErrInvalidLimit)
		})

		Convey("When a tournament result is archived", func() {
			So(s.ArchiveResult(ctx, sampleResult("t-1")), ShouldBeNil)

			Convey("Then ratings and counters are stored", func() {
				e, err := s.Rank(ctx, "Aurora")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 1)
				So(e.Rating, ShouldEqual, 1800)
				So(e.Wins, ShouldEqual, 2)
				So(e.Matches, ShouldEqual, 2)
				So(s.Count(ctx), ShouldEqual, 3)
			})

			Convey("Then the leaderboard orders by rating desc", func() {
				top, err := s.TopN(ctx, 2)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].Name, ShouldEqual, "Aurora")
				So(top[1].Name, ShouldEqual, "Basil")
				So(top[1].Rank, ShouldEqual, 2)
			})

			Convey("And a second result arrives", func() {
				second := sampleResult("t-2")
				second.Standings = []model.FinalStanding{
					{Position: 1, Name: "Basil", Rating: 1900, LiveRating: 1900, Wins: 3, Losses: 0, Matches: 3},
				}
				second.Records = nil
				So(s.ArchiveResult(ctx, second), ShouldBeNil)

				Convey("Then the rating is replaced and counters accumulate", func() {
					e, err := s.Rank(ctx, "Basil")
					So(err, ShouldBeNil)
					So(e.Rank, ShouldEqual, 1)
					So(e.Rating, ShouldEqual, 1900)
					So(e.Wins, ShouldEqual, 4)
					So(e.Losses, ShouldEqual, 1)
					So(e.Matches, ShouldEqual, 5)
				})
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, "memory", func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	testStore(t, "sqlite", func(t *testing.T) Store {
		s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return s
	})
}

func TestTieOrdering(t *testing.T) {
	Convey("Given two names with equal ratings", t, func() {
		ctx := context.Background()
		s := NewMemoryStore()
		res := sampleResult("t-tie")
		res.Standings = []model.FinalStanding{
			{Position: 1, Name: "Maple", Rating: 1500, LiveRating: 1500, Matches: 1},
			{Position: 2, Name: "Cedar", Rating: 1500, LiveRating: 1500, Matches: 1},
		}
		res.Records = nil
		So(s.ArchiveResult(ctx, res), ShouldBeNil)

		Convey("Then the tie breaks alphabetically", func() {
			top, err := s.TopN(ctx, 10)
			So(err, ShouldBeNil)
			So(top[0].Name, ShouldEqual, "Cedar")
			So(top[1].Name, ShouldEqual, "Maple")

			e, err := s.Rank(ctx, "Maple")
			So(err, ShouldBeNil)
			So(e.Rank, ShouldEqual, 2)
		})
	})
}

func TestMemoryRetention(t *testing.T) {
	Convey("Given a memory store retaining two results", t, func() {
		ctx := context.Background()
		s := NewMemoryStore(WithMaxRetainedResults(2)).(*memoryStore)

		for _, id := range []string{"t-1", "t-2", "t-3"} {
			So(s.ArchiveResult(ctx, sampleResult(id)), ShouldBeNil)
		}

		Convey("Then only the newest two are kept", func() {
			kept := s.RetainedResults()
			So(len(kept), ShouldEqual, 2)
			So(kept[0].SessionID, ShouldEqual, "t-2")
			So(kept[1].SessionID, ShouldEqual, "t-3")
		})
	})
}
