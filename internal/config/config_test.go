package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresWatchInterval(t *testing.T) {
	t.Setenv("WATCH_INTERVAL", "")
	os.Unsetenv("WATCH_INTERVAL")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without WATCH_INTERVAL")
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("WATCH_INTERVAL", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for WATCH_INTERVAL=0")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WATCH_INTERVAL", "300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interval() != 5*time.Minute {
		t.Fatalf("unexpected interval: %v", cfg.Interval())
	}
	if cfg.TargetsPath != "monitoring.yaml" {
		t.Fatalf("unexpected targets path: %q", cfg.TargetsPath)
	}
	if cfg.QueueSize != 256 {
		t.Fatalf("unexpected queue size: %d", cfg.QueueSize)
	}
}

func writeTargets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitoring.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write targets file: %v", err)
	}
	return path
}

func TestLoadTargetsNormalizesSymbols(t *testing.T) {
	t.Parallel()

	path := writeTargets(t, `
targets:
  abc:
    url: https://host.example/news
    container_id: news
    article_tag: article
    title_xpath: .//div[@class='headline']
    date_xpath: .//div[@class='date-time']
`)

	targets, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("load targets: %v", err)
	}
	tc, ok := targets["ABC"]
	if !ok {
		t.Fatalf("symbol not uppercased: %v", targets)
	}
	if tc.ContainerID != "news" || tc.ArticleTag != "article" {
		t.Fatalf("unexpected config: %+v", tc)
	}
}

func TestLoadTargetsRequiresURL(t *testing.T) {
	t.Parallel()

	path := writeTargets(t, `
targets:
  abc:
    container_id: news
`)

	if _, err := LoadTargets(path); err == nil {
		t.Fatal("expected an error for a target without url")
	}
}

func TestLoadTargetsAllowsStrategyWithoutURL(t *testing.T) {
	t.Parallel()

	path := writeTargets(t, `
targets:
  abc:
    strategy: custom
`)

	targets, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("load targets: %v", err)
	}
	if targets["ABC"].Strategy != "custom" {
		t.Fatalf("unexpected config: %+v", targets["ABC"])
	}
}

func TestLoadTargetsMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadTargets(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
