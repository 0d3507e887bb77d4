package hashtable_test

import (
	"testing"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/hashtable"
	uctesting "github.com/ValentinKolb/ucoll/lib/testing"
)

func TestHashMapLifecycle(t *testing.T) {
	uctesting.RunLifecycleTests(t, "HashMap",
		func(a alloc.Allocator) (uctesting.Collection, error) {
			return hashtable.NewHashMap[int, string](4, a)
		},
		func(t *testing.T, c uctesting.Collection) {
			m := c.(*hashtable.HashMap[int, string])
			for i := 0; i < 500; i++ {
				m.Set(i, "v")
			}
			for i := 0; i < 250; i++ {
				m.Remove(i)
			}
			if err := m.TrimExcess(); err != nil {
				t.Fatalf("TrimExcess failed: %v", err)
			}
		})
}
