//go:build !windows

package launch

import (
	"fmt"
	"os"
	"syscall"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// Exec replaces the current process with the command. On success it
// never returns; the server takes over this PID entirely.
func Exec(command []string) error {
	path, err := Resolve(command)
	if err != nil {
		return err
	}

	if err := syscall.Exec(path, command, os.Environ()); err != nil {
		return model.WrapCLIError(
			model.ExitLaunchFailed,
			fmt.Sprintf("failed to exec %s", path),
			err,
		)
	}
	// Unreachable: a successful exec does not return.
	return nil
}
