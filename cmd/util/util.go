package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupWorkloadFlags adds the workload flags shared by the bench and stress commands
func SetupWorkloadFlags(cmd *cobra.Command) {
	key := "workers"
	cmd.PersistentFlags().Int(key, 0, WrapString("Number of parallel workers (0 = GOMAXPROCS)"))

	key = "capacity"
	cmd.PersistentFlags().Int(key, 100_000, WrapString("Pre-sized capacity of the map under test. Inserts beyond it overflow in the fallback writer"))

	key = "inserts"
	cmd.PersistentFlags().Int(key, 1_000_000, WrapString("Total number of inserts attempted across all workers"))

	key = "keys"
	cmd.PersistentFlags().Int(key, 1000, WrapString("How many distinct keys the inserts and lookups use"))

	key = "queue-capacity"
	cmd.PersistentFlags().Int(key, 100_000, WrapString("Capacity of the work queue per cycle"))

	key = "cycles"
	cmd.PersistentFlags().Int(key, 10, WrapString("Number of rounds (stress) or fill/drain cycles"))

	key = "allocator"
	cmd.PersistentFlags().String(key, "persistent", WrapString("Allocator for all collections: persistent (heap) or temp (bounded arena)"))

	key = "arena-bytes"
	cmd.PersistentFlags().Int(key, 1<<30, WrapString("Budget of the temp arena in bytes"))

	key = "metrics"
	cmd.PersistentFlags().Bool(key, false, WrapString("Print the collected metrics in prometheus text format after the run"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("Log level (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("ucoll")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetConfig reads the workload configuration from viper
func GetConfig() *common.Config {
	return &common.Config{
		Workers:       viper.GetInt("workers"),
		Capacity:      viper.GetInt("capacity"),
		Inserts:       viper.GetInt("inserts"),
		KeySpread:     viper.GetInt("keys"),
		QueueCapacity: viper.GetInt("queue-capacity"),
		Cycles:        viper.GetInt("cycles"),
		Allocator:     viper.GetString("allocator"),
		ArenaBytes:    viper.GetInt("arena-bytes"),
		Metrics:       viper.GetBool("metrics"),
		LogLevel:      viper.GetString("log-level"),
	}
}

// PrepareRun binds the flags of cmd, validates the configuration and sets up the loggers
func PrepareRun(cmd *cobra.Command) (*common.Config, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	config := GetConfig()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}
	return config, nil
}

// NewAllocator creates the allocator selected by the configuration
func NewAllocator(config *common.Config) (alloc.Allocator, error) {
	label, err := alloc.ParseLabel(config.Allocator)
	if err != nil {
		return nil, err
	}
	switch label {
	case alloc.Persistent:
		return alloc.Default(), nil
	case alloc.Temp:
		return alloc.NewArenaAllocator(alloc.Temp, config.ArenaBytes)
	default:
		return nil, fmt.Errorf("invalid allocator %s", config.Allocator)
	}
}

// ResetAllocator reclaims the budget of arena allocators between rounds
func ResetAllocator(a alloc.Allocator) {
	if arena, ok := a.(*alloc.ArenaAllocator); ok {
		arena.Reset()
	}
}

// WriteMetrics writes every registered metric in prometheus text format
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
