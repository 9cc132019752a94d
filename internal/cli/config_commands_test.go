package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/genefit/genefit-link/internal/config"
)

// TestConfigCmd tests the config command group
func TestConfigCmd(t *testing.T) {
	cmd := newConfigCmd()
	if cmd == nil {
		t.Fatal("newConfigCmd() returned nil")
	}

	if cmd.Use != "config" {
		t.Errorf("Expected Use='config', got '%s'", cmd.Use)
	}

	expectedSubs := []string{"init", "show", "test", "path"}
	subcommands := cmd.Commands()
	if len(subcommands) != len(expectedSubs) {
		t.Errorf("Expected %d subcommands, got %d", len(expectedSubs), len(subcommands))
	}

	foundSubs := make(map[string]bool)
	for _, sub := range subcommands {
		foundSubs[sub.Name()] = true
		if sub.RunE == nil {
			t.Errorf("Subcommand '%s' has no RunE", sub.Name())
		}
	}
	for _, expected := range expectedSubs {
		if !foundSubs[expected] {
			t.Errorf("Subcommand '%s' not found", expected)
		}
	}

	if newConfigInitCmd().Flags().Lookup("force") == nil {
		t.Error("--force flag not found")
	}
}

func withConfigFile(t *testing.T, path string) {
	t.Helper()
	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })
}

// TestConfigInitWritesFile runs the interactive setup against scripted input
func TestConfigInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	withConfigFile(t, path)

	input := strings.Join([]string{
		"http://api.test:8001", // API base URL
		"secret-token",         // API token
		"",                     // poll interval (default)
		"5",                    // poll timeout minutes
		"memory",               // session backend
		"n",                    // proxy
	}, "\n") + "\n"

	cmd := newConfigInitCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "Configuration saved to: "+path) {
		t.Errorf("missing confirmation:\n%s", out.String())
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIBaseURL != "http://api.test:8001" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APIToken != "secret-token" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
	if cfg.Tracking.PollIntervalSeconds != 2 {
		t.Errorf("PollIntervalSeconds = %d, want default 2", cfg.Tracking.PollIntervalSeconds)
	}
	if cfg.Tracking.PollTimeoutMinutes != 5 {
		t.Errorf("PollTimeoutMinutes = %d, want 5", cfg.Tracking.PollTimeoutMinutes)
	}
	if cfg.SessionBackend != "memory" {
		t.Errorf("SessionBackend = %q", cfg.SessionBackend)
	}
}

// TestConfigInitKeepsExistingFile verifies --force is needed to overwrite
func TestConfigInitKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("[genefit]\napi_url = http://keep.me\n"), 0600); err != nil {
		t.Fatal(err)
	}
	withConfigFile(t, path)

	cmd := newConfigInitCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("expected existing-file notice, got:\n%s", out.String())
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "http://keep.me" {
		t.Errorf("file was overwritten: api_url = %q", cfg.APIBaseURL)
	}
}

// TestPrintConfigHidesToken checks that no part of the token is displayed
func TestPrintConfigHidesToken(t *testing.T) {
	cfg := config.NewConfig()
	cfg.APIToken = "super-secret-value"
	cfg.Tracking.PollTimeoutMinutes = 0

	var out bytes.Buffer
	printConfig(&out, cfg, filepath.Join(t.TempDir(), "missing"))

	s := out.String()
	if strings.Contains(s, "super-secret") {
		t.Fatalf("token leaked:\n%s", s)
	}
	for _, want := range []string{
		"<set (18 chars)>",
		"Poll Interval:    2s",
		"Poll Timeout:     none",
		"Max Poll Errors:  unlimited",
		"(file does not exist - using defaults)",
		"Notifications: false",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in:\n%s", want, s)
		}
	}
}
