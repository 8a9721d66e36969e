package mailbox

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestLatestWins(t *testing.T) {
	c := qt.New(t)
	mb := New[int]()

	mb.Put(1)
	mb.Put(2)
	mb.Put(3)
	c.Assert(mb.Pending(), qt.IsTrue)

	v, ok := mb.Take(context.Background())
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, 3)
	c.Assert(mb.Pending(), qt.IsFalse)
	c.Assert(mb.TryTake(), qt.IsNil)
}

func TestTakeWaitsForPut(t *testing.T) {
	c := qt.New(t)
	mb := New[string]()

	got := make(chan string, 1)
	go func() {
		v, _ := mb.Take(context.Background())
		got <- v
	}()

	mb.Put("hello")
	select {
	case v := <-got:
		c.Assert(v, qt.Equals, "hello")
	case <-time.After(5 * time.Second):
		c.Fatal("Take did not return after Put")
	}
}

func TestTakeHonoursContext(t *testing.T) {
	c := qt.New(t)
	mb := New[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := mb.Take(ctx)
	c.Assert(ok, qt.IsFalse)
}

func TestStaleWakeupDoesNotReturnEmpty(t *testing.T) {
	c := qt.New(t)
	mb := New[int]()

	// leaves a wake token behind with an empty slot
	mb.Put(1)
	c.Assert(*mb.TryTake(), qt.Equals, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, ok := mb.Take(ctx)
	c.Assert(ok, qt.IsFalse)
}
