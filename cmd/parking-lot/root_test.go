package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PARKING_TELEMETRY_EXPORTER", "none")
	t.Setenv("PARKING_LOG_LEVEL", "error")

	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_CLIScenario(t *testing.T) {
	input := strings.Join([]string{
		"create_parking_lot 2",
		"park KA-01-AA-1111 swift white",
		"park KA-01-BB-2222 i20 black",
		"park KA-01-CC-3333 i10 red",
		"leave 1",
		"park KA-01-DD-4444 ritz white",
		"status",
		"exit",
	}, "\n")

	out, err := executeRoot(t, input, "--prompt=", "--slot-mode=fixed")
	require.NoError(t, err)
	require.Equal(t, strings.Join([]string{
		"Created a parking lot with 2 slots",
		"Allocated slot number: 1",
		"Allocated slot number: 2",
		"Sorry, parking lot is full",
		"Slot number 1 is free",
		"Allocated slot number: 1",
		"Slot No.\tRegistration No\tType\tColor",
		"1\tKA-01-DD-4444\tritz\twhite",
		"2\tKA-01-BB-2222\ti20\tblack",
	}, "\n")+"\n", out)
}

func TestRoot_DefaultPromptAndEOF(t *testing.T) {
	out, err := executeRoot(t, "status\n")
	require.NoError(t, err)
	require.Equal(t, "$ Invalid command\n$ ", out)
}

func TestRoot_InvalidMode(t *testing.T) {
	_, err := executeRoot(t, "", "--mode", "daemon")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid mode")
}

func TestRoot_InvalidSlotMode(t *testing.T) {
	_, err := executeRoot(t, "", "--slot-mode", "stacked")
	require.Error(t, err)
	require.Contains(t, err.Error(), "slot_mode")
}
