package alloc

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// labelMetrics are the counters exported per allocator label
type labelMetrics struct {
	allocatedBytes *metrics.Counter
	freedBytes     *metrics.Counter
	liveBlocks     *metrics.Counter
	failures       *metrics.Counter
}

func newLabelMetrics(kind string, label Label) labelMetrics {
	name := func(metric string) string {
		return fmt.Sprintf(`ucoll_alloc_%s{allocator=%q,label=%q}`, metric, kind, label.String())
	}
	return labelMetrics{
		allocatedBytes: metrics.GetOrCreateCounter(name("allocated_bytes_total")),
		freedBytes:     metrics.GetOrCreateCounter(name("freed_bytes_total")),
		liveBlocks:     metrics.GetOrCreateCounter(name("live_blocks")),
		failures:       metrics.GetOrCreateCounter(name("failures_total")),
	}
}

func (m labelMetrics) allocated(size int) {
	m.allocatedBytes.Add(size)
	m.liveBlocks.Inc()
}

func (m labelMetrics) freed(size int) {
	m.freedBytes.Add(size)
	m.liveBlocks.Dec()
}
