package testing

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/ucoll/lib/alloc"
)

// Collection is implemented by every structure that owns allocator blocks
type Collection interface {
	IsCreated() bool
	Dispose() error
}

// Factory creates an empty collection drawing from the allocator
type Factory func(a alloc.Allocator) (Collection, error)

// Exercise runs operations against a collection, typically enough to make it grow
type Exercise func(t *testing.T, c Collection)

// ArenaBudget is the budget of the arena used by the lifecycle suite
const ArenaBudget = 64 << 20

// RunLifecycleTests checks creation and disposal of a collection
func RunLifecycleTests(t *testing.T, name string, factory Factory, exercise Exercise) {
	t.Run(name, func(t *testing.T) {
		t.Run("DisposeReleasesAll", func(t *testing.T) {
			testDisposeReleasesAll(t, factory, exercise)
		})

		t.Run("DoubleDispose", func(t *testing.T) {
			testDoubleDispose(t, factory, exercise)
		})

		t.Run("Arena", func(t *testing.T) {
			testArena(t, factory, exercise)
		})

		t.Run("ExhaustedArena", func(t *testing.T) {
			testExhaustedArena(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func create(t *testing.T, factory Factory, a alloc.Allocator) Collection {
	t.Helper()
	c, err := factory(a)
	if err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}
	if !c.IsCreated() {
		t.Fatalf("Expected collection to be created")
	}
	return c
}

func testDisposeReleasesAll(t *testing.T, factory Factory, exercise Exercise) {
	tracker := alloc.NewTrackingAllocator(nil)
	c := create(t, factory, tracker)

	if tracker.Allocations() == 0 {
		t.Errorf("Expected at least one allocation on creation")
	}

	exercise(t, c)

	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if c.IsCreated() {
		t.Errorf("Expected collection to report disposed")
	}
	if tracker.Allocations() != tracker.Frees() {
		t.Errorf("Expected %d frees, got %d", tracker.Allocations(), tracker.Frees())
	}
	if err := tracker.Check(); err != nil {
		t.Errorf("Allocator check failed: %v", err)
	}
}

func testDoubleDispose(t *testing.T, factory Factory, exercise Exercise) {
	tracker := alloc.NewTrackingAllocator(nil)
	c := create(t, factory, tracker)
	exercise(t, c)

	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	frees := tracker.Frees()
	if err := c.Dispose(); err != nil {
		t.Errorf("Expected second Dispose to be a no-op, got %v", err)
	}
	if tracker.Frees() != frees {
		t.Errorf("Expected no frees on second Dispose, got %d", tracker.Frees()-frees)
	}
	if tracker.FailedFrees() != 0 {
		t.Errorf("Expected no rejected frees, got %d", tracker.FailedFrees())
	}
}

func testArena(t *testing.T, factory Factory, exercise Exercise) {
	arena, err := alloc.NewArenaAllocator(alloc.Temp, ArenaBudget)
	if err != nil {
		t.Fatalf("Failed to create arena: %v", err)
	}
	tracker := alloc.NewTrackingAllocator(arena)
	c := create(t, factory, tracker)
	exercise(t, c)

	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if arena.LiveBlocks() != 0 {
		t.Errorf("Expected no live arena blocks, got %d", arena.LiveBlocks())
	}
	if err := tracker.Check(); err != nil {
		t.Errorf("Allocator check failed: %v", err)
	}
	arena.Reset()
	if arena.Used() != 0 {
		t.Errorf("Expected empty arena after reset, used %d", arena.Used())
	}
}

func testExhaustedArena(t *testing.T, factory Factory) {
	arena, err := alloc.NewArenaAllocator(alloc.Temp, 0)
	if err != nil {
		t.Fatalf("Failed to create arena: %v", err)
	}
	c, err := factory(arena)
	if err == nil {
		// collections without an initial block payload may fit into an empty arena
		if disposeErr := c.Dispose(); disposeErr != nil {
			t.Errorf("Dispose failed: %v", disposeErr)
		}
		return
	}
	if !errors.Is(err, alloc.ErrArenaExhausted) {
		t.Errorf("Expected ErrArenaExhausted, got %v", err)
	}
}
