package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReclaimRule_String verifies that ReclaimRule values produce the
// expected string representations for CLI output and JSON serialization.
func TestReclaimRule_String(t *testing.T) {
	tests := []struct {
		rule     ReclaimRule
		expected string
	}{
		{RulePattern, "pattern"},
		{RulePortOwner, "port-owner"},
		{RuleContainer, "container"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rule.String())
		})
	}
}

// TestReclaimRule_IsValid checks that only defined rule values pass validation.
func TestReclaimRule_IsValid(t *testing.T) {
	assert.True(t, RulePattern.IsValid())
	assert.True(t, RulePortOwner.IsValid())
	assert.True(t, RuleContainer.IsValid())
	assert.False(t, ReclaimRule("invalid").IsValid())
	assert.False(t, ReclaimRule("").IsValid())
}

// TestParseReclaimRule verifies string-to-rule conversion,
// including case normalization and error cases.
func TestParseReclaimRule(t *testing.T) {
	tests := []struct {
		input    string
		expected ReclaimRule
		hasError bool
	}{
		{"pattern", RulePattern, false},
		{"port-owner", RulePortOwner, false},
		{"container", RuleContainer, false},
		{"Pattern", RulePattern, false},      // case insensitive
		{"PORT-OWNER", RulePortOwner, false}, // case insensitive
		{"invalid", "", true},                // unknown value
		{"", "", true},                       // empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseReclaimRule(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestProcessInfo_String verifies the human-readable process format,
// including the fallback to the short command name when the full
// command line is unavailable.
func TestProcessInfo_String(t *testing.T) {
	withCmdline := ProcessInfo{PID: 1234, Command: "python3", Cmdline: "python3 app.py"}
	assert.Equal(t, "PID 1234 (python3 app.py)", withCmdline.String())

	// Zombies and kernel threads expose no cmdline; fall back to Command.
	noCmdline := ProcessInfo{PID: 42, Command: "kthreadd"}
	assert.Equal(t, "PID 42 (kthreadd)", noCmdline.String())
}

// TestReclaimAction_String verifies the per-action summary lines for both
// process and container targets, in success and failure variants.
func TestReclaimAction_String(t *testing.T) {
	ok := ReclaimAction{
		Process: ProcessInfo{PID: 1234, Command: "python3", Cmdline: "python3 app.py"},
		Rule:    RulePortOwner,
	}
	assert.Equal(t, "killed PID 1234 (python3 app.py) [port-owner]", ok.String())

	failed := ReclaimAction{
		Process: ProcessInfo{PID: 99, Command: "srv", Cmdline: "srv"},
		Rule:    RulePattern,
		Err:     errors.New("operation not permitted"),
	}
	assert.Equal(t, "failed to kill PID 99 (srv) [pattern]", failed.String())

	// Container IDs are truncated to the conventional 12-character form.
	container := ReclaimAction{
		ContainerID: "0123456789abcdef0123456789abcdef",
		Rule:        RuleContainer,
	}
	assert.Equal(t, "killed container 0123456789ab [container]", container.String())
}

// TestReclaimResult_KilledPIDs verifies that only successful process kills
// contribute PIDs, preserving action order, and that failed or container
// actions are excluded.
func TestReclaimResult_KilledPIDs(t *testing.T) {
	result := ReclaimResult{
		Port: 5000,
		Actions: []ReclaimAction{
			{Process: ProcessInfo{PID: 100}, Rule: RulePattern},
			{Process: ProcessInfo{PID: 200}, Rule: RulePattern, Err: errors.New("gone")},
			{Process: ProcessInfo{PID: 300}, Rule: RulePortOwner},
			{ContainerID: "abc123", Rule: RuleContainer},
		},
	}

	assert.Equal(t, []int{100, 300}, result.KilledPIDs())
}

// TestReclaimResult_Failures verifies that only failed actions are reported.
func TestReclaimResult_Failures(t *testing.T) {
	killErr := errors.New("no such process")
	result := ReclaimResult{
		Port: 5000,
		Actions: []ReclaimAction{
			{Process: ProcessInfo{PID: 100}, Rule: RulePattern},
			{Process: ProcessInfo{PID: 200}, Rule: RulePortOwner, Err: killErr},
		},
	}

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 200, failures[0].Process.PID)
	assert.Equal(t, killErr, failures[0].Err)
}

// TestReclaimResult_Empty verifies accessor behavior on a result where
// nothing matched (port already free, no pattern hits).
func TestReclaimResult_Empty(t *testing.T) {
	result := ReclaimResult{Port: 5000, PortFree: true}
	assert.Empty(t, result.KilledPIDs())
	assert.Empty(t, result.Failures())
}

// TestValidatePort checks the accepted port range boundaries.
func TestValidatePort(t *testing.T) {
	tests := []struct {
		name     string
		port     int
		hasError bool
	}{
		{"typical port", 5000, false},
		{"min port", 1, false},
		{"max port", 65535, false},
		{"zero (kernel-assigned)", 0, true},
		{"negative", -1, true},
		{"above max", 65536, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePort(tt.port)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestValidateCommand checks launch command argv validation.
func TestValidateCommand(t *testing.T) {
	assert.NoError(t, ValidateCommand([]string{"python", "app.py"}))
	assert.NoError(t, ValidateCommand([]string{"flask"}))
	assert.Error(t, ValidateCommand(nil), "empty argv must be rejected")
	assert.Error(t, ValidateCommand([]string{}), "empty argv must be rejected")
	assert.Error(t, ValidateCommand([]string{"python", ""}), "empty argument must be rejected")
}

// TestValidatePatterns checks that blank patterns are rejected — a blank
// pattern would match every process on the host.
func TestValidatePatterns(t *testing.T) {
	assert.NoError(t, ValidatePatterns(nil))
	assert.NoError(t, ValidatePatterns([]string{"python app.py"}))
	assert.Error(t, ValidatePatterns([]string{""}))
	assert.Error(t, ValidatePatterns([]string{"python app.py", "   "}))
}

// TestCLIError verifies the error message formatting and unwrapping
// behavior of the CLIError type.
func TestCLIError(t *testing.T) {
	plain := NewCLIError(ExitPortStillInUse, "port 5000 is still in use")
	assert.Equal(t, "port 5000 is still in use", plain.Error())
	assert.Equal(t, ExitPortStillInUse, plain.Code)
	assert.Nil(t, plain.Unwrap())

	underlying := errors.New("bind: address already in use")
	wrapped := WrapCLIError(ExitLaunchFailed, "failed to launch server", underlying)
	assert.Equal(t, "failed to launch server: bind: address already in use", wrapped.Error())

	// errors.Is must see through the wrapper via Unwrap.
	assert.True(t, errors.Is(wrapped, underlying))
}
