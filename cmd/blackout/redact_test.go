package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/blackout/internal/policy"
	"github.com/spf13/pflag"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	redactCmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRedact_AllMasksText(t *testing.T) {
	path := writeFile(t, "notes.txt", "alpha beta\n")

	out, err := run(t, "redact", "--all", "--no-color", path)
	if err != nil {
		t.Fatalf("redact: %v", err)
	}
	if out != "█████ ████\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRedact_RevealAndHTML(t *testing.T) {
	path := writeFile(t, "notes.txt", "alpha beta\n")

	out, err := run(t, "redact", "--all", "--no-color", "--reveal", path)
	if err != nil {
		t.Fatalf("redact: %v", err)
	}
	if out != "alpha beta\n" {
		t.Errorf("unexpected revealed output %q", out)
	}

	out, err = run(t, "redact", "--all", "--format", "html", path)
	if err != nil {
		t.Fatalf("redact: %v", err)
	}
	if strings.Count(out, `class="blackout-redacted"`) != 2 {
		t.Errorf("expected two spans in %s", out)
	}
}

func TestRedact_Errors(t *testing.T) {
	path := writeFile(t, "notes.txt", "alpha\n")

	if _, err := run(t, "redact", "--format", "pdf", path); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := run(t, "redact", "--mode", "haiku", path); err == nil {
		t.Error("expected error for unknown mode")
	}
	if _, err := run(t, "redact", writeFile(t, "notes.xyz", "x")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestRedactSettings_Layering(t *testing.T) {
	settingsPath := writeFile(t, "settings.yaml", "mode: privacy\nintensity: 0.2\n")
	if _, err := run(t, "redact", "--settings", settingsPath, "--keep-numbers", writeFile(t, "a.txt", "x\n")); err != nil {
		t.Fatalf("redact: %v", err)
	}

	got, err := redactSettings(redactCmd)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if got.Mode != policy.ModePrivacy || got.Intensity != 0.2 || !got.KeepNumbers {
		t.Errorf("unexpected settings %+v", got)
	}
}

func TestPresets_PrintsEveryMode(t *testing.T) {
	out, err := run(t, "presets")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	for _, m := range policy.Modes() {
		if !strings.Contains(out, string(m)+":") {
			t.Errorf("expected %s preset in\n%s", m, out)
		}
	}
	if !strings.Contains(out, "keep_proper_nouns:") {
		t.Errorf("expected yaml keys in\n%s", out)
	}
}
