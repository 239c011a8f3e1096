package launch

import (
	"fmt"
	"os/exec"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// Resolve validates the command and resolves its binary against PATH.
// It returns the absolute path to the binary, ready to hand to Exec.
func Resolve(command []string) (string, error) {
	if err := model.ValidateCommand(command); err != nil {
		return "", err
	}

	path, err := exec.LookPath(command[0])
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitLaunchFailed,
			fmt.Sprintf("server command not found: %s", command[0]),
			err,
		)
	}
	return path, nil
}
