// Package cli — status.go implements the "portclaim status" command.
//
// The status command reports who holds the target port without killing
// anything: the listening process(es) found in the process table, and
// any running Docker container publishing the port. It is the
// read-only companion to "free" — run it first when a kill sweep feels
// too blunt.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/portclaim/internal/docker"
	"github.com/mmr-tortoise/portclaim/internal/model"
	"github.com/mmr-tortoise/portclaim/internal/port"
	"github.com/mmr-tortoise/portclaim/internal/proc"
)

// statusFlags holds the flag values for the status command.
type statusFlags struct {
	// configPath is an explicit config file path (--config).
	configPath string

	// port overrides the configured port when > 0.
	port int

	// noDocker skips querying the Docker daemon.
	noDocker bool
}

// NewStatusCommand creates the "status" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStatusCommand() *cobra.Command {
	flags := &statusFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report what is using the port",
		Long: `Report the process and containers currently holding the port.

Nothing is killed or stopped; this is a read-only inspection of the
same sources the reclaim sweep targets.

Examples:
  portclaim status
  portclaim status --port 8080 --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Path to config file (portclaim.json or portclaim.yaml)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "Port to inspect (overrides config)")
	cmd.Flags().BoolVar(&flags.noDocker, "no-docker", false, "Skip querying the Docker daemon")

	return cmd
}

// runStatus is the main logic function for the status command.
func runStatus(ctx context.Context, flags *statusFlags) error {
	cfg, err := loadConfig(&reclaimFlags{configPath: flags.configPath, port: flags.port})
	if err != nil {
		return err
	}

	owners, err := proc.NewTable().FindPortOwners(cfg.Port)
	if err != nil {
		return model.WrapCLIError(model.ExitLookupFailed,
			fmt.Sprintf("failed to look up the owner of port %d", cfg.Port), err)
	}

	var containers []docker.PublishedContainer
	if cfg.Docker && !flags.noDocker {
		cli, err := docker.NewClient()
		if err != nil {
			VerboseLog("Docker unavailable, skipping container query: %v", err)
		} else {
			defer func() { _ = cli.Close() }()
			containers, err = docker.ContainersPublishing(ctx, cli, cfg.Port)
			if err != nil {
				return err // ContainersPublishing already returns CLIError
			}
		}
	}

	free := port.NewProber().IsFree(cfg.Port)

	if IsJSONOutput() {
		printStatusJSON(cfg.Port, free, owners, containers)
	} else {
		printStatusText(cfg.Port, free, owners, containers)
	}
	return nil
}

// printStatusJSON outputs the port status as structured JSON.
func printStatusJSON(portNum int, free bool, owners []model.PortOwner, containers []docker.PublishedContainer) {
	type ownerJSON struct {
		PID     int    `json:"pid"`
		Command string `json:"command"`
		Cmdline string `json:"cmdline"`
	}

	type containerJSON struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Image string `json:"image"`
	}

	type statusJSON struct {
		Port       int             `json:"port"`
		Free       bool            `json:"free"`
		Owners     []ownerJSON     `json:"owners"`
		Containers []containerJSON `json:"containers"`
	}

	out := statusJSON{
		Port:       portNum,
		Free:       free,
		Owners:     make([]ownerJSON, 0, len(owners)),
		Containers: make([]containerJSON, 0, len(containers)),
	}

	for _, o := range owners {
		out.Owners = append(out.Owners, ownerJSON{
			PID:     o.Process.PID,
			Command: o.Process.Command,
			Cmdline: o.Process.Cmdline,
		})
	}
	for _, c := range containers {
		out.Containers = append(out.Containers, containerJSON{
			ID:    c.ID,
			Name:  c.Name,
			Image: c.Image,
		})
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// printStatusText outputs the port status as human-readable text.
func printStatusText(portNum int, free bool, owners []model.PortOwner, containers []docker.PublishedContainer) {
	if free && len(owners) == 0 && len(containers) == 0 {
		fmt.Printf("Port %d is free\n", portNum)
		return
	}

	fmt.Printf("Port %d is in use\n", portNum)
	for _, o := range owners {
		fmt.Printf("  process   %d  %s  %s\n", o.Process.PID, o.Process.Command, o.Process.Cmdline)
	}
	for _, c := range containers {
		id := c.ID
		if len(id) > 12 {
			id = id[:12]
		}
		fmt.Printf("  container %s  %s  (image: %s)\n", id, c.Name, c.Image)
	}
}
