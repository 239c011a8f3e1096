// Package cli — free.go implements the "portclaim free" command.
//
// The free command runs the same reclaim sweep as "run" but launches
// nothing, and it is strict where run is forgiving: a port that is
// still in use after the sweep fails with exit code 4. This makes it
// usable as a guard step in scripts ("free the port or stop the
// pipeline") where run's fire-and-forget posture would hide a problem.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// NewFreeCommand creates the "free" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewFreeCommand() *cobra.Command {
	flags := &reclaimFlags{}

	cmd := &cobra.Command{
		Use:   "free",
		Short: "Reclaim the port without launching anything",
		Long: `Reclaim the configured port and exit.

The same sweep as "run" is performed: pattern kills, port-owner kill,
container stop. Unlike "run", the command fails with exit code 4 when
the port is still in use afterwards.

Examples:
  portclaim free
  portclaim free --port 8080
  portclaim free --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runFree(cmd.Context(), flags)
		},
	}

	flags.register(cmd)
	return cmd
}

// runFree is the main logic function for the free command.
func runFree(ctx context.Context, flags *reclaimFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	notify := func(format string, args ...any) {
		if !IsJSONOutput() {
			fmt.Printf(format+"\n", args...)
		}
	}

	reclaimer, cleanup, err := newReclaimer(cfg, notify)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := reclaimer.Run(ctx, reclaimOptions(cfg))
	if err != nil {
		return err
	}
	reportWarnings(result)

	if IsJSONOutput() {
		printReclaimJSON(result, "freed")
	} else {
		printFreeText(result)
	}

	if !result.PortFree {
		return model.NewCLIError(model.ExitPortStillInUse,
			fmt.Sprintf("port %d is still in use after reclaim", result.Port))
	}
	return nil
}

// printFreeText outputs the free command result as human-readable text.
func printFreeText(result *model.ReclaimResult) {
	killed := result.KilledPIDs()
	switch {
	case len(result.Actions) == 0:
		fmt.Printf("Port %d: nothing to reclaim\n", result.Port)
	case result.PortFree:
		fmt.Printf("Port %d freed (%d process(es) killed)\n", result.Port, len(killed))
	default:
		fmt.Printf("Port %d still in use after %d kill(s)\n", result.Port, len(killed))
	}
}
