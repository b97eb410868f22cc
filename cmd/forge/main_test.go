package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storyforge/internal/preview"
	"storyforge/internal/validate"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"generate": false, "catalog": false, "validate": false,
		"verify": false, "history": false, "init": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRunInitWritesConfig(t *testing.T) {
	logger = zap.NewNop()
	workspace = t.TempDir()
	initForce = false

	output := captureOutput(t, func() {
		if err := runInit(&cobra.Command{}, nil); err != nil {
			t.Errorf("runInit returned error: %v", err)
		}
	})
	if !strings.Contains(output, "config.yaml") {
		t.Errorf("expected config path in output, got: %s", output)
	}

	// A second init without --force must refuse.
	if err := runInit(&cobra.Command{}, nil); err == nil {
		t.Error("expected error on existing config without --force")
	}
}

func TestRunHistoryEmpty(t *testing.T) {
	logger = zap.NewNop()
	workspace = t.TempDir()

	output := captureOutput(t, func() {
		if err := runHistory(&cobra.Command{}, nil); err != nil {
			t.Errorf("runHistory returned error: %v", err)
		}
	})
	if !strings.Contains(output, "no stories generated yet") {
		t.Errorf("expected empty-history notice, got: %s", output)
	}
}

func TestRenderOutcome(t *testing.T) {
	out := renderOutcome(validate.Outcome{
		IsValid: false,
		Diagnostics: []validate.Diagnostic{
			{Severity: validate.SeverityError, Message: "component <Foo> is used but never imported", Line: 7},
		},
	})
	if !strings.Contains(out, "invalid") || !strings.Contains(out, "<Foo>") {
		t.Errorf("unexpected rendering: %s", out)
	}
}

func TestRenderRuntime(t *testing.T) {
	out := renderRuntime(preview.RuntimeCheckResult{State: preview.StateSkipped})
	if !strings.Contains(out, "skipped") {
		t.Errorf("unexpected rendering: %s", out)
	}
	out = renderRuntime(preview.RuntimeCheckResult{
		State:       preview.StateRenderFailed,
		ErrorKind:   preview.ErrorKindModuleLoad,
		RenderError: "Failed to resolve import",
	})
	if !strings.Contains(out, "module-load") {
		t.Errorf("unexpected rendering: %s", out)
	}
}
