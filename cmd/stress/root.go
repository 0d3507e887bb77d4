package stress

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ValentinKolb/ucoll/cmd/util"
	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/common"
	"github.com/ValentinKolb/ucoll/lib/hashtable"
	"github.com/ValentinKolb/ucoll/lib/jobs"
	"github.com/ValentinKolb/ucoll/lib/multimap"
	"github.com/ValentinKolb/ucoll/lib/threadlocal"
	"github.com/ValentinKolb/ucoll/lib/workqueue"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
)

var plog = logger.GetLogger("cli")

// batchSize is the number of inserts a worker claims from ParallelFor at once
const batchSize = 256

var (
	config    *common.Config
	allocator alloc.Allocator
	registry  gometrics.Registry

	// StressCommands represents the stress command group
	StressCommands = &cobra.Command{
		Use:               "stress",
		Short:             "Run repeated parallel rounds and verify their results",
		PersistentPreRunE: setupStress,
	}

	parallelWriterCmd = &cobra.Command{
		Use:   "parallel-writer",
		Short: "Insert from all workers through a fallback writer and check no value is lost or duplicated",
		RunE:  runParallelWriter,
	}
	queueCmd = &cobra.Command{
		Use:   "queue",
		Short: "Fill and drain the work queue and check every claimed element is consumed once",
		RunE:  runQueue,
	}
)

func init() {
	StressCommands.AddCommand(parallelWriterCmd)
	StressCommands.AddCommand(queueCmd)
}

func setupStress(cmd *cobra.Command, _ []string) error {
	var err error
	if config, err = util.PrepareRun(cmd); err != nil {
		return err
	}
	if allocator, err = util.NewAllocator(config); err != nil {
		return err
	}
	registry = gometrics.NewRegistry()
	return nil
}

// --------------------------------------------------------------------------
// Parallel writer
// --------------------------------------------------------------------------

func runParallelWriter(_ *cobra.Command, _ []string) error {
	fmt.Println("Stress test for the multi map parallel writer")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())

	fill := gometrics.GetOrRegisterTimer("fill", registry)
	drain := gometrics.GetOrRegisterTimer("drain", registry)
	overflow := gometrics.GetOrRegisterHistogram("overflow", registry, gometrics.NewUniformSample(1028))

	workers := jobs.Workers(config.Workers)
	spread := config.KeySpread
	hcfg := hashtable.Config[int]{Workers: workers}

	// worker scratch state outlives the rounds, so it stays off a resettable arena
	rnd, err := threadlocal.NewRandomCache(alloc.Default(), workers, 0)
	if err != nil {
		return err
	}
	defer func() {
		if err := rnd.Dispose(); err != nil {
			plog.Errorf("failed to dispose the random cache: %v", err)
		}
	}()

	for round := 0; round < max(config.Cycles, 1); round++ {
		m, err := multimap.NewWithConfig[int, int](config.Capacity, allocator, hcfg)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		w := multimap.NewFallbackWriter(m)

		began := time.Now()
		err = jobs.ParallelFor(context.Background(), workers, config.Inserts, batchSize, func(worker jobs.WorkerID, start, end int) error {
			for i := start; i < end; i++ {
				key := rnd.IntN(worker, spread)
				w.Add(worker, key, i*spread+key)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		fill.UpdateSince(began)

		began = time.Now()
		drained, err := w.Finalize()
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		drain.UpdateSince(began)
		overflow.Update(int64(drained))

		if err := verifyMultiMap(m, config.Inserts, spread); err != nil {
			_ = m.Dispose()
			return fmt.Errorf("round %d: %w", round, err)
		}
		plog.Debugf("round %d: %d claimed, %d drained, %s", round, w.Claimed(), drained, m.Stats())

		if err := m.Dispose(); err != nil {
			return err
		}
		util.ResetAllocator(allocator)
	}

	fmt.Println("Results:")
	printTimer("fill", fill)
	printTimer("drain", drain)
	printHistogram("overflowed", overflow)
	printMetrics()
	return nil
}

// verifyMultiMap checks that every insert i is stored exactly once. Values encode the
// insert as i*spread+key, so the key they are stored under can be checked as well.
func verifyMultiMap(m *multimap.MultiHashMap[int, int], inserts, spread int) error {
	if m.Count() != inserts {
		return fmt.Errorf("map holds %d entries, expected %d", m.Count(), inserts)
	}
	seen := make([]bool, inserts)
	for key, value := range m.All() {
		i := value / spread
		if value < 0 || i >= inserts {
			return fmt.Errorf("unexpected value %d", value)
		}
		if seen[i] {
			return fmt.Errorf("insert %d stored twice", i)
		}
		if key != value%spread {
			return fmt.Errorf("insert %d stored under key %d, expected %d", i, key, value%spread)
		}
		seen[i] = true
	}
	return nil
}

// --------------------------------------------------------------------------
// Work queue
// --------------------------------------------------------------------------

func runQueue(_ *cobra.Command, _ []string) error {
	fmt.Println("Stress test for the work queue")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())

	fill := gometrics.GetOrRegisterTimer("fill", registry)
	drain := gometrics.GetOrRegisterTimer("drain", registry)
	rejected := gometrics.GetOrRegisterHistogram("rejected", registry, gometrics.NewUniformSample(1028))

	workers := jobs.Workers(config.Workers)
	capacity := config.QueueCapacity
	// producers attempt more claims than fit so every cycle runs into the full queue
	attempts := capacity + capacity/4 + 1

	q, err := workqueue.New[uint64](capacity, allocator)
	if err != nil {
		return err
	}
	defer func() {
		if err := q.Dispose(); err != nil {
			plog.Errorf("failed to dispose the queue: %v", err)
		}
	}()
	wr, rd := q.AsWriter(), q.AsReader()

	consumed, err := threadlocal.NewListCache[uint64](alloc.Default(), workers, capacity/workers+1)
	if err != nil {
		return err
	}
	defer func() {
		if err := consumed.Dispose(); err != nil {
			plog.Errorf("failed to dispose the consumer lists: %v", err)
		}
	}()

	for cycle := 0; cycle < max(config.Cycles, 1); cycle++ {
		accepted := xsync.NewCounter()
		failed := xsync.NewCounter()

		began := time.Now()
		err := jobs.ParallelFor(context.Background(), workers, attempts, batchSize, func(_ jobs.WorkerID, start, end int) error {
			for i := start; i < end; i++ {
				slot, ref := wr.TryAdd()
				if slot == nil {
					failed.Inc()
					continue
				}
				*slot = ref
				accepted.Inc()
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("cycle %d: %w", cycle, err)
		}
		fill.UpdateSince(began)
		rejected.Update(failed.Value())

		began = time.Now()
		err = jobs.Schedule(context.Background(), workers, func(_ context.Context, worker jobs.WorkerID) error {
			list := consumed.Get(worker)
			for slot := rd.TryGetNext(); slot != nil; slot = rd.TryGetNext() {
				*list = append(*list, *slot)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("cycle %d: %w", cycle, err)
		}
		drain.UpdateSince(began)

		refs := xsync.NewMapOf[uint64, jobs.WorkerID]()
		for w := 0; w < workers; w++ {
			for _, ref := range consumed.Peek(jobs.WorkerID(w)) {
				if ref == 0 {
					return fmt.Errorf("cycle %d: element with ref id 0", cycle)
				}
				if other, loaded := refs.LoadOrStore(ref, jobs.WorkerID(w)); loaded {
					return fmt.Errorf("cycle %d: ref id %d consumed by workers %d and %d", cycle, ref, other, w)
				}
			}
		}

		if n := int64(refs.Size()); n != accepted.Value() {
			return fmt.Errorf("cycle %d: %d elements accepted but %d consumed", cycle, accepted.Value(), n)
		}
		if accepted.Value() != int64(capacity) {
			return fmt.Errorf("cycle %d: %d elements accepted, capacity is %d", cycle, accepted.Value(), capacity)
		}
		q.Update()
	}

	fmt.Println("Results:")
	printTimer("fill", fill)
	printTimer("drain", drain)
	printHistogram("rejected", rejected)
	fmt.Printf("%-16s%d\n", "ref ids", q.RefCount())
	printMetrics()
	return nil
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

var percentiles = []float64{0.5, 0.9, 0.99}

func printTimer(name string, t gometrics.Timer) {
	ps := t.Percentiles(percentiles)
	fmt.Printf("%-16srounds=%d mean=%s p50=%s p90=%s p99=%s max=%s\n", name, t.Count(),
		time.Duration(t.Mean()), time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]), time.Duration(t.Max()))
}

func printHistogram(name string, h gometrics.Histogram) {
	ps := h.Percentiles(percentiles)
	fmt.Printf("%-16smean=%.1f p50=%.0f p90=%.0f p99=%.0f max=%d\n", name, h.Mean(), ps[0], ps[1], ps[2], h.Max())
}

func printMetrics() {
	if !config.Metrics {
		return
	}
	fmt.Println()
	util.WriteMetrics(os.Stdout)
}
