package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr() != "127.0.0.1:8787" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "127.0.0.1:8787")
	}
	if cfg.OpenAIModel != "gpt-4.1-mini" {
		t.Errorf("OpenAIModel = %q, want %q", cfg.OpenAIModel, "gpt-4.1-mini")
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "data")
	}
	if cfg.StaticDir != "" {
		t.Errorf("StaticDir = %q, want no front end by default", cfg.StaticDir)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "livetechno.yaml")
	content := "port: 9000\nhost: 0.0.0.0\nopenai_model: gpt-4o\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LIVETECHNO_OPENAI_MODEL", "gpt-from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8787, "")
	flags.String("data-dir", "data", "")
	flags.String("static-dir", "", "")
	if err := flags.Parse([]string{"--port", "9100", "--data-dir", "/var/lib/livetechno", "--static-dir", "web"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file, flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want flag value 9100", cfg.Port)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want file value 0.0.0.0", cfg.Host)
	}
	if cfg.OpenAIModel != "gpt-from-env" {
		t.Errorf("OpenAIModel = %q, want env value", cfg.OpenAIModel)
	}
	if cfg.DataDir != "/var/lib/livetechno" {
		t.Errorf("DataDir = %q, want flag value", cfg.DataDir)
	}
	if cfg.StaticDir != "web" {
		t.Errorf("StaticDir = %q, want flag value", cfg.StaticDir)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("Load() expected error for a missing explicit config file")
	}
}
