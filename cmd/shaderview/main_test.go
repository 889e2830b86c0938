package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hubastard/shaderview/engine/colors"
)

func TestRunMissingShaderFails(t *testing.T) {
	var stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "missing.frag")
	code := run([]string{missing}, &stderr)
	if code != exitFailed {
		t.Fatalf("exit code = %d, want %d", code, exitFailed)
	}
	if !strings.Contains(stderr.String(), "missing.frag") {
		t.Errorf("stderr %q does not mention the shader path", stderr.String())
	}
}

func TestRunUnreadableShaderFails(t *testing.T) {
	// A directory cannot be read as a file.
	var stderr bytes.Buffer
	if code := run([]string{t.TempDir()}, &stderr); code != exitFailed {
		t.Fatalf("exit code = %d, want %d", code, exitFailed)
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no shader", nil},
		{"two shaders", []string{"a.frag", "b.frag"}},
		{"zero width", []string{"-width", "0", "a.frag"}},
		{"bad clear color", []string{"-clear", "nope", "a.frag"}},
		{"bad log level", []string{"-log-level", "loud", "a.frag"}},
		{"unknown flag", []string{"-fullscreen", "a.frag"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := run(tt.args, &stderr); code != exitUsage {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, exitUsage, stderr.String())
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"-help"}, &stderr); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stderr.String(), "usage: shaderview") {
		t.Errorf("help output %q", stderr.String())
	}
}

func TestParseArgsDefaults(t *testing.T) {
	opts, err := parseArgs([]string{"shaders/plasma.frag"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.cfg.Width != 1000 || opts.cfg.Height != 1000 {
		t.Errorf("size = %dx%d, want 1000x1000", opts.cfg.Width, opts.cfg.Height)
	}
	if opts.shader != "shaders/plasma.frag" {
		t.Errorf("shader = %q", opts.shader)
	}
	if opts.cfg.Title != "shaderview: plasma.frag" {
		t.Errorf("title = %q", opts.cfg.Title)
	}
	if opts.logLevel != slog.LevelInfo {
		t.Errorf("log level = %v", opts.logLevel)
	}
}

func TestParseArgsShortFlags(t *testing.T) {
	opts, err := parseArgs([]string{"-w", "320", "-h", "200", "x.frag"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.cfg.Width != 320 || opts.cfg.Height != 200 {
		t.Errorf("size = %dx%d, want 320x200", opts.cfg.Width, opts.cfg.Height)
	}
}

func TestParseArgsFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	doc := "width: 640\nheight: 480\nclear_color: \"#000000\"\ntitle: demo\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	opts, err := parseArgs([]string{"-config", path, "-height", "240", "-frames", "3", "x.frag"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	cfg := opts.cfg
	if cfg.Width != 640 || cfg.Height != 240 {
		t.Errorf("size = %dx%d, want 640x240", cfg.Width, cfg.Height)
	}
	if cfg.ClearColor != colors.Black || cfg.Title != "demo" || cfg.MaxFrames != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseArgsLogLevelFromEnv(t *testing.T) {
	t.Setenv(logLevelEnv, "debug")
	opts, err := parseArgs([]string{"x.frag"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.logLevel != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", opts.logLevel)
	}
}

func TestExampleFilesParse(t *testing.T) {
	opts, err := parseArgs([]string{"-config", "../../examples/viewer.yaml", "../../examples/shaders/plasma.frag"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.cfg.Width != 800 || opts.cfg.Height != 600 || opts.cfg.LogEvery != 60 {
		t.Errorf("cfg = %+v", opts.cfg)
	}
	if opts.cfg.Title != "plasma" {
		t.Errorf("title = %q", opts.cfg.Title)
	}
}
