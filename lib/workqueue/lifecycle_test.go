package workqueue_test

import (
	"testing"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/workqueue"
	uctesting "github.com/ValentinKolb/ucoll/lib/testing"
)

func TestQueueLifecycle(t *testing.T) {
	uctesting.RunLifecycleTests(t, "Queue",
		func(a alloc.Allocator) (uctesting.Collection, error) {
			return workqueue.New[[4]int](32, a)
		},
		func(t *testing.T, c uctesting.Collection) {
			q := c.(*workqueue.Queue[[4]int])
			w := q.AsWriter()
			for i := 0; i < 40; i++ {
				w.TryAddValue([4]int{i})
			}
			if err := q.SetCapacity(64); err != nil {
				t.Fatalf("SetCapacity failed: %v", err)
			}
		})
}
