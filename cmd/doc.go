// Package cmd implements the command-line interface of ucoll. The collections
// themselves live under lib/ and have no CLI of their own; the commands here
// drive them with configurable workloads.
//
// The package is organized into several subpackages:
//
//   - bench: Benchmarks of the multi map, work queue, perfect hash map and keyed map
//   - stress: Repeated parallel rounds that verify no value is lost or duplicated
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See ucoll -help for a list of all commands.
package cmd
