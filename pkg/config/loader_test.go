package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cuelang.org/go/cue"

	"github.com/usenet-go/nntp/pkg/config"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestLoadValueFromReader(t *testing.T) {
	val, err := config.LoadValueFromReader(strings.NewReader(`
servers:
  - host: news.example.com
    tls: true
`))
	if err != nil {
		t.Fatalf("LoadValueFromReader failed: %v", err)
	}

	host, err := val.LookupPath(cue.ParsePath("servers[0].host")).String()
	if err != nil {
		t.Fatalf("failed to get servers[0].host: %v", err)
	}
	if host != "news.example.com" {
		t.Errorf("unexpected host: %s", host)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "nntp.json"),
		`{"servers": [{"host": "news.example.com", "port": 443, "tls": true}], "compress": true}`)

	cfg, err := config.LoadFromFile[config.Config](path)
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	if len(cfg.Servers) != 1 || cfg.Servers[0].Port != 443 {
		t.Errorf("unexpected servers: %+v", cfg.Servers)
	}
	if !cfg.Compress {
		t.Error("expected compress to be true")
	}
}

func TestLoadFromFile_NonexistentFile(t *testing.T) {
	_, err := config.LoadFromFile[config.Config]("/nonexistent/nntp.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoadAndUnifyPaths_SingleCUE(t *testing.T) {
	cueFile := writeFile(t, filepath.Join(t.TempDir(), "nntp.cue"), `
servers: [{host: "primary.example.com", priority: 0}]
compress: true
`)

	val, err := config.LoadAndUnifyPaths([]string{cueFile})
	if err != nil {
		t.Fatalf("LoadAndUnifyPaths failed: %v", err)
	}

	compress, err := val.LookupPath(cue.ParsePath("compress")).Bool()
	if err != nil {
		t.Fatalf("failed to get compress: %v", err)
	}
	if !compress {
		t.Error("expected compress to be true")
	}

	host, err := val.LookupPath(cue.ParsePath("servers[0].host")).String()
	if err != nil {
		t.Fatalf("failed to get servers[0].host: %v", err)
	}
	if host != "primary.example.com" {
		t.Errorf("unexpected host: %s", host)
	}
}

func TestLoadAndUnifyPaths_MultipleFilesCompatible(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, filepath.Join(dir, "base.yaml"), `
servers:
  - host: news.example.com
`)
	overlay := writeFile(t, filepath.Join(dir, "overlay.yaml"), `
auth:
  user_env: MY_USER
`)

	val, err := config.LoadAndUnifyPaths([]string{base, overlay})
	if err != nil {
		t.Fatalf("LoadAndUnifyPaths failed: %v", err)
	}

	userEnv, err := val.LookupPath(cue.ParsePath("auth.user_env")).String()
	if err != nil {
		t.Fatalf("failed to get auth.user_env: %v", err)
	}
	if userEnv != "MY_USER" {
		t.Errorf("expected MY_USER, got %s", userEnv)
	}
}

func TestLoadAndUnifyPaths_ConflictingValues(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.yaml"), "dial_timeout: 10s\n")
	b := writeFile(t, filepath.Join(dir, "b.yaml"), "dial_timeout: 20s\n")

	_, err := config.LoadAndUnifyPaths([]string{a, b})
	if err == nil {
		t.Fatal("expected error for conflicting values, got nil")
	}
}

func TestLoadAndUnifyPaths_GlobAndMissing(t *testing.T) {
	dir := t.TempDir()
	confDir := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(confDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(confDir, "a.yaml"), "compress: true\n")
	writeFile(t, filepath.Join(confDir, "b.yaml"), "raw_blocks: true\n")

	val, err := config.LoadAndUnifyPaths([]string{
		filepath.Join(dir, "does-not-exist.yaml"),
		filepath.Join(confDir, "*.yaml"),
	})
	if err != nil {
		t.Fatalf("LoadAndUnifyPaths failed: %v", err)
	}

	for _, path := range []string{"compress", "raw_blocks"} {
		v, err := val.LookupPath(cue.ParsePath(path)).Bool()
		if err != nil {
			t.Fatalf("failed to get %s: %v", path, err)
		}
		if !v {
			t.Errorf("expected %s to be true", path)
		}
	}
}

func TestLoadAndUnifyPaths_EmptyResult(t *testing.T) {
	val, err := config.LoadAndUnifyPaths([]string{filepath.Join(t.TempDir(), "none.yaml")})
	if err != nil {
		t.Fatalf("LoadAndUnifyPaths failed: %v", err)
	}
	if !val.Exists() {
		t.Error("expected value to exist (empty object)")
	}
}
