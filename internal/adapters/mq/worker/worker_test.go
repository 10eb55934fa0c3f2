package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"namearena/internal/adapters/mq/queue"
	"namearena/internal/domain/model"
	"namearena/pkg/logger"
)

func init() {
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type recordingArchiver struct {
	mu       sync.Mutex
	archived []string
	fail     bool
}

func (a *recordingArchiver) ArchiveResult(_ context.Context, res model.TournamentResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errors.New("archive rejected")
	}
	a.archived = append(a.archived, res.SessionID)
	return nil
}

func (a *recordingArchiver) setFail(fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail = fail
}

func (a *recordingArchiver) ids() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.archived))
	copy(out, a.archived)
	return out
}

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorkerArchives(t *testing.T) {
	Convey("Given a worker draining a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		archiver := &recordingArchiver{}
		w := NewArchiveWorker(q, archiver, WithName("test-worker"))
		go w.Run(ctx)

		Convey("When a result is enqueued", func() {
			So(q.Enqueue(ctx, model.TournamentResult{SessionID: "t-1"}), ShouldBeTrue)

			Convey("Then the archiver receives it", func() {
				ok := waitFor(func() bool { return len(archiver.ids()) == 1 }, 2*time.Second)
				So(ok, ShouldBeTrue)
				So(archiver.ids()[0], ShouldEqual, "t-1")
			})
		})

		Convey("When the archiver fails", func() {
			archiver.setFail(true)
			So(q.Enqueue(ctx, model.TournamentResult{SessionID: "t-bad"}), ShouldBeTrue)

			Convey("Then the worker keeps running and later results still land", func() {
				time.Sleep(20 * time.Millisecond)
				archiver.setFail(false)

				So(q.Enqueue(ctx, model.TournamentResult{SessionID: "t-good"}), ShouldBeTrue)
				ok := waitFor(func() bool { return len(archiver.ids()) == 1 }, 2*time.Second)
				So(ok, ShouldBeTrue)
				So(archiver.ids()[0], ShouldEqual, "t-good")
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a running worker", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := NewArchiveWorker(q, &recordingArchiver{})
		go w.Run(ctx)

		Convey("Then Shutdown returns promptly", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			So(w.Shutdown(shutdownCtx), ShouldBeNil)
		})
	})
}

func TestPoolDrainsQueue(t *testing.T) {
	Convey("Given a pool of workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		archiver := &recordingArchiver{}
		pool := NewPool(4, q, archiver)
		pool.Start(ctx)

		Convey("When many results are enqueued", func() {
			const total = 32
			for i := 0; i < total; i++ {
				So(q.Enqueue(ctx, model.TournamentResult{SessionID: fmt.Sprintf("t-%d", i)}), ShouldBeTrue)
			}

			Convey("Then every result is archived exactly once", func() {
				ok := waitFor(func() bool { return len(archiver.ids()) == total }, 5*time.Second)
				So(ok, ShouldBeTrue)

				seen := make(map[string]bool)
				for _, id := range archiver.ids() {
					So(seen[id], ShouldBeFalse)
					seen[id] = true
				}
			})
		})

		Convey("Then Shutdown closes the queue and returns", func() {
			So(pool.Shutdown(ctx), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
		})
	})
}
