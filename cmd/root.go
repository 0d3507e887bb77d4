package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/ucoll/cmd/bench"
	"github.com/ValentinKolb/ucoll/cmd/stress"
	"github.com/ValentinKolb/ucoll/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "ucoll",
		Short: "unmanaged concurrent collections",
		Long: fmt.Sprintf(`ucoll (v%s)

Benchmark and stress driver for the ucoll collections: allocator backed
hash maps, multi maps with lock-free parallel writers, perfect hash maps
and a bounded lock-free work queue.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ucoll",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ucoll v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(bench.BenchCommands)
	RootCmd.AddCommand(stress.StressCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupWorkloadFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
