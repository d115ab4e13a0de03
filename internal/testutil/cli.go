package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/crmboard/internal/app"
	"github.com/thenoetrevino/crmboard/internal/cli"
)

// CaptureOutput captures stdout during function execution
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	// Save original stdout
	oldStdout := os.Stdout

	// Create pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}

	// Replace stdout with pipe writer
	os.Stdout = w

	// Channel to collect output
	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	// Close writer and restore stdout
	_ = w.Close()
	os.Stdout = oldStdout

	return <-outC
}

// ExecuteCommand runs cmd against testApp and returns what it printed to
// stdout. Output written through cmd.OutOrStdout is included.
func ExecuteCommand(t *testing.T, testApp *app.App, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()

	if testApp == nil {
		t.Fatal("testApp cannot be nil - SetupTestApp must be called first")
	}

	ctx := cli.WithApp(context.Background(), testApp)
	cmd.SetArgs(args)
	cmd.SetContext(ctx)

	// Disable usage output on error for cleaner test output
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	var executeErr error
	output := CaptureOutput(t, func() {
		cmd.SetOut(os.Stdout)
		cmd.SetErr(io.Discard)
		executeErr = cmd.ExecuteContext(ctx)
	})
	return output, executeErr
}

// ParseJSON parses JSON output from CLI commands
func ParseJSON(t *testing.T, output string) map[string]any {
	t.Helper()

	var result map[string]any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, output)
	}

	return result
}
