package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdf-rag/internal/models"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "pdf-rag" {
		t.Errorf("Use = %q, want %q", cmd.Use, "pdf-rag")
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}

	flag := cmd.PersistentFlags().Lookup("config")
	if flag == nil {
		t.Fatal("--config flag not found")
	}
	if flag.DefValue != defaultConfigPath {
		t.Errorf("--config default = %q, want %q", flag.DefValue, defaultConfigPath)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"process", "ask", "index", "tui", "serve", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			if err != nil || sub.Name() != name {
				t.Fatalf("Find(%q) = %v, %v", name, sub, err)
			}
			if sub.RunE == nil && sub.Run == nil {
				t.Errorf("%s has no run function", name)
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-01-01")
	defer SetVersion("dev", "none", "unknown")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	for _, want := range []string{"pdf-rag 1.2.3", "abc123", "2026-01-01"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output = %q, missing %q", out.String(), want)
		}
	}
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"process without files", []string{"process"}},
		{"ask without question", []string{"ask"}},
		{"version with args", []string{"version", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err == nil {
				t.Error("Execute() succeeded, want argument error")
			}
		})
	}
}

func TestProcess_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "embed_llm:\n  provider: ollama\n  model: nomic-embed-text\ninference_llm:\n  provider: ollama\n  model: llama3\nrag:\n  chunk_size: 100\n  chunk_overlap: 100\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "process", filepath.Join(dir, "a.pdf")})
	err := cmd.Execute()
	if !errors.Is(err, models.ErrConfig) {
		t.Fatalf("Execute() = %v, want ErrConfig", err)
	}
	if !strings.Contains(err.Error(), "rag.chunk_overlap") {
		t.Errorf("error = %q, want readable message naming the field", err.Error())
	}
}

func TestUserError(t *testing.T) {
	err := userError(models.ErrMissingIndex)
	if !errors.Is(err, models.ErrMissingIndex) {
		t.Error("userError() lost the wrapped error")
	}
	if err.Error() != models.UserMessage(models.ErrMissingIndex) {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestFlagsDoNotLeakBetweenCommandTrees(t *testing.T) {
	first := NewRootCmd()
	first.SetOut(&bytes.Buffer{})
	first.SetArgs([]string{"--config", "/tmp/other.yaml", "--log-level", "debug", "version"})
	if err := first.Execute(); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	ask, _, err := first.Find([]string{"ask"})
	if err != nil {
		t.Fatal(err)
	}
	if err := ask.Flags().Parse([]string{"--sources"}); err != nil {
		t.Fatal(err)
	}

	second := NewRootCmd()
	if got := second.PersistentFlags().Lookup("config").Value.String(); got != defaultConfigPath {
		t.Errorf("--config = %q, want %q", got, defaultConfigPath)
	}
	if got := second.PersistentFlags().Lookup("log-level").Value.String(); got != "" {
		t.Errorf("--log-level = %q, want empty", got)
	}
	ask2, _, err := second.Find([]string{"ask"})
	if err != nil {
		t.Fatal(err)
	}
	if got := ask2.Flags().Lookup("sources").Value.String(); got != "false" {
		t.Errorf("--sources = %q, want false", got)
	}
}
