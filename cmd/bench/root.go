package bench

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ValentinKolb/ucoll/cmd/util"
	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/common"
	uctesting "github.com/ValentinKolb/ucoll/lib/testing"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var plog = logger.GetLogger("cli")

// suite builds the scenarios of one collection
type suite func(cfg *common.Config, a alloc.Allocator) []uctesting.Scenario

var (
	config    *common.Config
	allocator alloc.Allocator

	// BenchCommands represents the bench command group
	BenchCommands = &cobra.Command{
		Use:               "bench",
		Short:             "Benchmark the collections",
		PersistentPreRunE: setupBench,
	}

	multiMapCmd = &cobra.Command{
		Use:   "multimap",
		Short: "Benchmark multi map inserts, parallel writers and lookups",
		RunE:  runSuites(map[string]suite{"multimap": uctesting.MultiMapScenarios}),
	}
	queueCmd = &cobra.Command{
		Use:   "queue",
		Short: "Benchmark work queue fill/drain cycles and claims",
		RunE:  runSuites(map[string]suite{"queue": uctesting.QueueScenarios}),
	}
	perfectHashCmd = &cobra.Command{
		Use:   "perfecthash",
		Short: "Benchmark perfect hash construction and lookups",
		RunE:  runSuites(map[string]suite{"perfecthash": uctesting.PerfectHashScenarios}),
	}
	keyedMapCmd = &cobra.Command{
		Use:   "keyedmap",
		Short: "Benchmark keyed map inserts, partial rebuilds and lookups",
		RunE:  runSuites(map[string]suite{"keyedmap": uctesting.KeyedMapScenarios}),
	}
	allCmd = &cobra.Command{
		Use:   "all",
		Short: "Run every benchmark",
		RunE: runSuites(map[string]suite{
			"multimap":    uctesting.MultiMapScenarios,
			"queue":       uctesting.QueueScenarios,
			"perfecthash": uctesting.PerfectHashScenarios,
			"keyedmap":    uctesting.KeyedMapScenarios,
		}),
	}
)

// suiteOrder keeps the output of "all" stable
var suiteOrder = []string{"multimap", "queue", "perfecthash", "keyedmap"}

func init() {
	key := "csv"
	BenchCommands.PersistentFlags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))

	// Add subcommands
	BenchCommands.AddCommand(multiMapCmd)
	BenchCommands.AddCommand(queueCmd)
	BenchCommands.AddCommand(perfectHashCmd)
	BenchCommands.AddCommand(keyedMapCmd)
	BenchCommands.AddCommand(allCmd)
}

// setupBench reads the configuration and creates the allocator shared by all scenarios
func setupBench(cmd *cobra.Command, _ []string) error {
	var err error
	if config, err = util.PrepareRun(cmd); err != nil {
		return err
	}
	if allocator, err = util.NewAllocator(config); err != nil {
		return err
	}
	return nil
}

func runSuites(suites map[string]suite) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		fmt.Println("Benchmarks for the ucoll collections")

		// Print configuration
		fmt.Println()
		fmt.Println("Configuration:")
		fmt.Println(config.String())

		results := make(map[string]testing.BenchmarkResult)
		var order []string

		for _, name := range suiteOrder {
			build, ok := suites[name]
			if !ok {
				continue
			}
			for _, scenario := range build(config, allocator) {
				test := name + "/" + scenario.Name
				plog.Debugf("running %s", test)

				result := testing.Benchmark(scenario.Run)
				util.ResetAllocator(allocator)

				results[test] = result
				order = append(order, test)
				printResult(test, result)
			}
		}

		if path := viper.GetString("csv"); path != "" {
			if err := writeResultsToCSV(path, order, results, config); err != nil {
				return err
			}
			plog.Infof("results written to %s", path)
		}

		if config.Metrics {
			fmt.Println()
			util.WriteMetrics(os.Stdout)
		}
		return nil
	}
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.N == 0 {
		fmt.Printf("%-32sfailed\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-32s%.0fns/op (%s/op)\t%.0f ops/sec\t%d allocs/op\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, result.AllocsPerOp())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, order []string, results map[string]testing.BenchmarkResult, config *common.Config) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "N", "NsPerOp", "DurationPerOp", "OpsPerSec", "AllocsPerOp",
		"Workers", "Capacity", "Keys", "QueueCapacity", "Allocator",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, test := range order {
		result := results[test]
		nsPerOp := math.Max(float64(result.NsPerOp()), 1)

		row := []string{
			test,
			strconv.Itoa(result.N),
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", 1.0/(nsPerOp/1e9)),
			strconv.FormatInt(result.AllocsPerOp(), 10),
			strconv.Itoa(config.Workers),
			strconv.Itoa(config.Capacity),
			strconv.Itoa(config.KeySpread),
			strconv.Itoa(config.QueueCapacity),
			config.Allocator,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %v", err)
		}
	}
	return nil
}
