package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

func TestResolve_EmptyCommand(t *testing.T) {
	_, err := Resolve(nil)
	assert.Error(t, err)

	_, err = Resolve([]string{})
	assert.Error(t, err)
}

func TestResolve_BinaryNotFound(t *testing.T) {
	_, err := Resolve([]string{"portclaim-no-such-binary-xyz"})
	require.Error(t, err)

	// Missing binaries surface as launch failures with the original
	// LookPath error preserved for diagnostics.
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitLaunchFailed, cliErr.Code)
	assert.Error(t, cliErr.Err)
}

func TestResolve_FindsBinaryOnPath(t *testing.T) {
	// Every platform running these tests has a Go toolchain binary on
	// PATH; "go" itself is the one binary guaranteed present.
	path, err := Resolve([]string{"go", "version"})
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}
