// Package cli — run.go implements the "portclaim run" command.
//
// The run command is the tool's main mode: it reclaims the configured
// port (pattern kills, port-owner kill, container stop) and then execs
// the server command, replacing the portclaim process entirely. On
// Unix the server inherits this PID, so nothing of portclaim remains
// once the handoff succeeds.
//
// The port reclaim is deliberately fire-and-forget: a port that is
// still busy after the sweep does not stop the launch. Servers that
// bind lazily or on a fallback port are the server's business; the
// "free" subcommand is the strict variant.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/portclaim/internal/config"
	"github.com/mmr-tortoise/portclaim/internal/docker"
	"github.com/mmr-tortoise/portclaim/internal/launch"
	"github.com/mmr-tortoise/portclaim/internal/model"
	"github.com/mmr-tortoise/portclaim/internal/port"
	"github.com/mmr-tortoise/portclaim/internal/proc"
	"github.com/mmr-tortoise/portclaim/internal/reclaim"
)

// reclaimFlags holds the flag values shared by the run and free
// commands. These are bound to cobra flags in the command constructors.
type reclaimFlags struct {
	// configPath is an explicit config file path (--config). Empty means
	// search the working directory for portclaim.json / portclaim.yaml.
	configPath string

	// port overrides the configured port when > 0.
	port int

	// patterns overrides the configured kill patterns when non-empty.
	patterns []string

	// noDocker disables the container pass regardless of configuration.
	noDocker bool
}

// register binds the shared reclaim flags onto a command.
func (f *reclaimFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to config file (portclaim.json or portclaim.yaml)")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "Port to reclaim (overrides config)")
	cmd.Flags().StringArrayVar(&f.patterns, "pattern", nil, "Command-line pattern to kill (repeatable, overrides config)")
	cmd.Flags().BoolVar(&f.noDocker, "no-docker", false, "Skip stopping containers that publish the port")
}

// loadConfig loads the effective configuration: file (or defaults)
// with flag overrides applied on top.
func loadConfig(flags *reclaimFlags) (*config.Config, error) {
	cfg, err := config.Load(".", flags.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Source != "" {
		VerboseLog("Loaded config from %s", cfg.Source)
	} else {
		VerboseLog("No config file found, using built-in defaults")
	}

	if flags.port > 0 {
		cfg.Port = flags.port
	}
	if len(flags.patterns) > 0 {
		cfg.Patterns = flags.patterns
	}
	if flags.noDocker {
		cfg.Docker = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// containerStopper adapts the Docker package to the reclaim package's
// ContainerReclaimer interface.
type containerStopper struct {
	cli *docker.Client
}

// StopPublishing stops every running container publishing the port.
// Individual stop failures are joined into the returned error while
// successfully stopped IDs are still reported.
func (s *containerStopper) StopPublishing(ctx context.Context, portNum int) ([]string, error) {
	containers, err := docker.ContainersPublishing(ctx, s.cli, portNum)
	if err != nil {
		return nil, err
	}

	var stopped []string
	var errs []error
	for _, c := range containers {
		if err := docker.StopContainer(ctx, s.cli, c.ID); err != nil {
			errs = append(errs, fmt.Errorf("container %s: %w", c.Name, err))
			continue
		}
		stopped = append(stopped, c.ID)
	}
	return stopped, errors.Join(errs...)
}

// newReclaimer wires the real process table, port prober, and (when
// enabled) Docker client into a Reclaimer. The returned cleanup closes
// the Docker client and must be called when the reclaim is done.
func newReclaimer(cfg *config.Config, notify reclaim.NotifyFunc) (*reclaim.Reclaimer, func(), error) {
	var containers reclaim.ContainerReclaimer
	cleanup := func() {}

	if cfg.Docker {
		cli, err := docker.NewClient()
		if err != nil {
			// An unreachable daemon downgrades the container pass to off
			// rather than failing the whole reclaim. Hosts without Docker
			// are common and the process passes still do their job.
			VerboseLog("Docker unavailable, skipping container pass: %v", err)
		} else {
			containers = &containerStopper{cli: cli}
			cleanup = func() { _ = cli.Close() }
		}
	}

	r := reclaim.New(proc.NewTable(), port.NewProber(), containers, proc.Kill, notify)
	return r, cleanup, nil
}

// reclaimOptions converts a loaded config to reclaim options.
func reclaimOptions(cfg *config.Config) reclaim.Options {
	return reclaim.Options{
		Port:         cfg.Port,
		Patterns:     cfg.Patterns,
		PatternGrace: cfg.PatternGrace,
		OwnerGrace:   cfg.OwnerGrace,
	}
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &reclaimFlags{}

	cmd := &cobra.Command{
		Use:   "run [-- command...]",
		Short: "Reclaim the port and launch the server",
		Long: `Reclaim the configured port and exec the server command.

Stale processes matching the configured patterns are killed first, then
whatever process is listening on the port, then (unless disabled) any
Docker container publishing the port. Once the sweep is done the server
command replaces the portclaim process.

Arguments after "--" override the configured server command.

Examples:
  portclaim run
  portclaim run --port 8080 -- gunicorn app:app
  portclaim run --pattern "flask run" --no-docker`,

		// Positional arguments (after --) override the launch command,
		// so any count is accepted.
		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), flags, args)
		},
	}

	flags.register(cmd)
	return cmd
}

// runRun is the main logic function for the run command.
// It reclaims the port, reports what was done, and execs the server.
func runRun(ctx context.Context, flags *reclaimFlags, args []string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Command = args
	}
	if err := model.ValidateCommand(cfg.Command); err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid launch command", err)
	}

	// Notices go straight to stdout in text mode. In JSON mode they are
	// suppressed; the reclaim summary object carries the same facts.
	notify := func(format string, fnArgs ...any) {
		if !IsJSONOutput() {
			fmt.Printf(format+"\n", fnArgs...)
		}
	}

	reclaimer, cleanup, err := newReclaimer(cfg, notify)
	if err != nil {
		return err
	}

	result, err := reclaimer.Run(ctx, reclaimOptions(cfg))
	// The Docker client is no longer needed once the sweep is done, and
	// exec would leak it: close before the handoff.
	cleanup()
	if err != nil {
		return err
	}
	reportWarnings(result)

	if IsJSONOutput() {
		printReclaimJSON(result, "launching")
	} else {
		fmt.Println(cfg.StartingNotice())
	}

	// On Unix a successful Exec never returns.
	return launch.Exec(cfg.Command)
}

// reportWarnings prints reclaim warnings to stderr. Warnings are
// non-fatal by design — they record lookup or stop failures that the
// sweep carried on past.
func reportWarnings(result *model.ReclaimResult) {
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}

// printReclaimJSON outputs the reclaim result as structured JSON.
// The action field records what the command did next with the port.
func printReclaimJSON(result *model.ReclaimResult, action string) {
	type actionJSON struct {
		PID         int    `json:"pid,omitempty"`
		Command     string `json:"command,omitempty"`
		ContainerID string `json:"containerId,omitempty"`
		Rule        string `json:"rule"`
		Error       string `json:"error,omitempty"`
	}

	type resultJSON struct {
		Port     int          `json:"port"`
		PortFree bool         `json:"portFree"`
		Action   string       `json:"action"`
		Killed   []actionJSON `json:"killed"`
		Warnings []string     `json:"warnings,omitempty"`
	}

	out := resultJSON{
		Port:     result.Port,
		PortFree: result.PortFree,
		Action:   action,
		Killed:   make([]actionJSON, 0, len(result.Actions)),
		Warnings: result.Warnings,
	}

	for _, a := range result.Actions {
		aj := actionJSON{
			PID:         a.Process.PID,
			Command:     a.Process.Cmdline,
			ContainerID: a.ContainerID,
			Rule:        a.Rule.String(),
		}
		if a.Err != nil {
			aj.Error = a.Err.Error()
		}
		out.Killed = append(out.Killed, aj)
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}
