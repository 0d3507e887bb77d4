package threadlocal_test

import (
	"testing"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/threadlocal"
	uctesting "github.com/ValentinKolb/ucoll/lib/testing"
)

func TestSlotsLifecycle(t *testing.T) {
	uctesting.RunLifecycleTests(t, "Slots",
		func(a alloc.Allocator) (uctesting.Collection, error) {
			return threadlocal.New[int64](a, 8)
		},
		func(t *testing.T, c uctesting.Collection) {
			s := c.(*threadlocal.Slots[int64])
			*s.Get(3) = 42
		})

	uctesting.RunLifecycleTests(t, "ListCache",
		func(a alloc.Allocator) (uctesting.Collection, error) {
			return threadlocal.NewListCache[string](a, 4, 16)
		},
		func(t *testing.T, c uctesting.Collection) {
			l := c.(*threadlocal.ListCache[string])
			list := l.Get(1)
			*list = append(*list, "x")
		})
}
