package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Benchmark / stress configuration struct
// --------------------------------------------------------------------------

// Config holds the tunables of the bench and stress commands
type Config struct {
	// Workers is the number of parallel workers (0 = GOMAXPROCS)
	Workers int

	// Capacity is the pre-sized capacity of the map under test
	Capacity int

	// Inserts is the total number of inserts attempted across all workers
	Inserts int

	// KeySpread is the number of distinct keys used by the inserts
	KeySpread int

	// QueueCapacity is the capacity of the work queue under test
	QueueCapacity int

	// Cycles is the number of fill/drain cycles run against the work queue
	Cycles int

	// Allocator selects the allocator label (persistent, temp)
	Allocator string

	// ArenaBytes is the budget of the temp arena allocator
	ArenaBytes int

	// Metrics prints the collected metrics in prometheus text format after the run
	Metrics bool

	// LogLevel is the level at which logs will be output
	LogLevel string
}

// Validate checks the configuration for obviously broken values
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be >= 0, got %d", c.Capacity)
	}
	if c.Inserts < 0 {
		return fmt.Errorf("inserts must be >= 0, got %d", c.Inserts)
	}
	if c.KeySpread <= 0 {
		return fmt.Errorf("keys must be > 0, got %d", c.KeySpread)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be > 0, got %d", c.QueueCapacity)
	}
	switch c.Allocator {
	case "persistent", "temp":
	default:
		return fmt.Errorf("invalid allocator %s (expected persistent or temp)", c.Allocator)
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Workload")
	addField("Workers", fmt.Sprintf("%d", c.Workers))
	addField("Capacity", fmt.Sprintf("%d", c.Capacity))
	addField("Inserts", fmt.Sprintf("%d", c.Inserts))
	addField("Distinct Keys", fmt.Sprintf("%d", c.KeySpread))

	addSection("Work Queue")
	addField("Capacity", fmt.Sprintf("%d", c.QueueCapacity))
	addField("Cycles", fmt.Sprintf("%d", c.Cycles))

	addSection("Memory")
	addField("Allocator", c.Allocator)
	if c.Allocator == "temp" {
		addField("Arena Budget", fmt.Sprintf("%d KB", c.ArenaBytes/1024))
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Metrics", fmt.Sprintf("%t", c.Metrics))

	return sb.String()
}
