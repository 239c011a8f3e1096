//go:build windows

package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// Exec runs the command as a child process with inherited stdio and
// exits with the child's exit code once it finishes. Windows has no
// process-image replacement, so this is the closest equivalent to the
// Unix exec handoff.
func Exec(command []string) error {
	path, err := Resolve(command)
	if err != nil {
		return err
	}

	cmd := exec.Command(path, command[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		return model.WrapCLIError(
			model.ExitLaunchFailed,
			fmt.Sprintf("failed to run %s", path),
			err,
		)
	}
	os.Exit(0)
	return nil
}
