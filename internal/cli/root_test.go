package cli

import (
	"io"
	"path/filepath"
	"testing"
)

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"schema", "inspect", "gc", "render", "serve", "browse", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.Version == "" {
		t.Error("root command should carry a version")
	}
}

func TestRootCommandVersion(t *testing.T) {
	out, err := runCLI(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	assertContains(t, out, "scatter")
}

func TestRootCommandBadConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.toml")
	if _, err := runCLI(t, "--config", missing, "schema"); err == nil {
		t.Error("a missing --config file should fail")
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.SetLogLevel(LogDebug)
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}
