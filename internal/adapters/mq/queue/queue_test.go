package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/talentscore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func envelope(id string) model.Envelope {
	return model.AssessmentEnvelope(model.Assessment{ID: id, CandidateID: "c1", Type: "technical", Score: 50})
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity two", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(2))

		Convey("Then it starts empty", func() {
			So(q.Len(ctx), ShouldEqual, 0)
			So(q.Capacity(), ShouldEqual, 2)
		})

		Convey("When it is filled", func() {
			So(q.Enqueue(ctx, envelope("a1")), ShouldBeNil)
			So(q.Enqueue(ctx, envelope("a2")), ShouldBeNil)

			Convey("Then further records are rejected as full", func() {
				So(errors.Is(q.Enqueue(ctx, envelope("a3")), ErrQueueFull), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And records come out in order", func() {
				e, err := q.Receive(ctx)
				So(err, ShouldBeNil)
				So(e.ID(), ShouldEqual, "a1")
				e, err = q.Receive(ctx)
				So(err, ShouldBeNil)
				So(e.ID(), ShouldEqual, "a2")
				So(q.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the queue is closed with records buffered", func() {
			So(q.Enqueue(ctx, envelope("a1")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails but buffered records drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, envelope("a2")), ErrQueueClosed), ShouldBeTrue)

				e, err := q.Receive(ctx)
				So(err, ShouldBeNil)
				So(e.ID(), ShouldEqual, "a1")
				_, err = q.Receive(ctx)
				So(errors.Is(err, ErrQueueClosed), ShouldBeTrue)
			})
		})

		Convey("When the caller's context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then the record is not enqueued", func() {
				err := q.Enqueue(cctx, envelope("a1"))
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestInMemoryQueue_ReceiveCancel(t *testing.T) {
	Convey("Given a consumer blocked on an empty queue", t, func() {
		q := NewInMemoryQueue(WithCapacity(4))
		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			_, err := q.Receive(ctx)
			errCh <- err
		}()

		Convey("When its context is cancelled", func() {
			cancel()

			Convey("Then Receive returns the context error", func() {
				select {
				case err := <-errCh:
					So(errors.Is(err, context.Canceled), ShouldBeTrue)
				case <-time.After(time.Second):
					So("receive still blocked", ShouldBeEmpty)
				}
			})
		})

		Convey("When a record arrives instead", func() {
			defer cancel()
			So(q.Enqueue(context.Background(), envelope("a1")), ShouldBeNil)

			Convey("Then it is handed to the consumer", func() {
				So(<-errCh, ShouldBeNil)
				So(q.Len(context.Background()), ShouldEqual, 0)
			})
		})
	})
}

func TestInMemoryQueue_ManyConsumers(t *testing.T) {
	Convey("Given several consumers", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(100))
		for i := 0; i < 100; i++ {
			So(q.Enqueue(ctx, envelope(fmt.Sprintf("a%d", i))), ShouldBeNil)
		}
		So(q.Close(), ShouldBeNil)

		results := make(chan int, 4)
		for c := 0; c < 4; c++ {
			go func() {
				n := 0
				for {
					if _, err := q.Receive(ctx); err != nil {
						break
					}
					n++
				}
				results <- n
			}()
		}

		Convey("Then every record is delivered exactly once", func() {
			total := 0
			for c := 0; c < 4; c++ {
				total += <-results
			}
			So(total, ShouldEqual, 100)
		})
	})
}
