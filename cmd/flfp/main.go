// Command flfp is the filter-list fingerprinting CLI: parse filterlists
// into equivalence sets, compute per-user targeted fingerprints or a
// population-wide general fingerprint, run the iterative robustness
// simulation, or serve the status/control API over a run registry.
//
// Adapted from the teacher's cmd/engine/main.go in spirit (plain stdlib
// log, environment/flag driven setup) but restructured around
// spf13/cobra subcommands rather than a single long-running process,
// since the kernel's operations are CLI invocations with file artifacts,
// not a continuously running scanner.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/privacylab/flfp-kernel/internal/config"
)

func main() {
	cfg := config.Load()

	root := &cobra.Command{
		Use:   "flfp",
		Short: "Filter-list fingerprinting kernel",
	}

	filterlistsCmd := &cobra.Command{Use: "filterlists", Short: "Work with filterlist registries"}
	filterlistsCmd.AddCommand(newFiltlistsParseCmd(cfg))

	fingerprintCmd := &cobra.Command{Use: "fingerprint", Short: "Compute fingerprints"}
	fingerprintCmd.AddCommand(
		newFingerprintTargetedCmd(cfg),
		newFingerprintGeneralCmd(cfg),
	)

	root.AddCommand(
		filterlistsCmd,
		fingerprintCmd,
		newIterativeRobustnessCmd(cfg),
		newServeCmd(cfg),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
