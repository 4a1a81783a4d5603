package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds environment-level parameters required across the application.
// WatchInterval has no default on purpose: running the watcher without an
// explicit cadence is a misconfiguration and must fail at startup.
type Config struct {
	WatchInterval   int    `envconfig:"WATCH_INTERVAL" required:"true"`
	SummaryURL      string `envconfig:"SUMMARY_URL"`
	DatabaseDSN     string `envconfig:"DATABASE_DSN"`
	TargetsPath     string `envconfig:"TARGETS_CONFIG" default:"monitoring.yaml"`
	DownloadDir     string `envconfig:"DOWNLOAD_DIR" default:"downloads"`
	QueueSize       int    `envconfig:"QUEUE_SIZE" default:"256"`
	FetchTimeout    int    `envconfig:"FETCH_TIMEOUT" default:"20"`
	DownloadTimeout int    `envconfig:"DOWNLOAD_TIMEOUT" default:"30"`
	SummaryTimeout  int    `envconfig:"SUMMARY_TIMEOUT" default:"120"`
	MetricsAddr     string `envconfig:"METRICS_ADDR"`
	TelegramToken   string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID  string `envconfig:"TELEGRAM_CHAT_ID"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads environment parameters.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if cfg.WatchInterval <= 0 {
		return Config{}, fmt.Errorf("WATCH_INTERVAL must be a positive number of seconds, got %d", cfg.WatchInterval)
	}
	return cfg, nil
}

// Interval returns the polling cadence as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.WatchInterval) * time.Second
}

// ExtractionConfig is the declarative per-symbol descriptor interpreted by
// the extraction engine. ContainerID/ContainerClass and
// ArticleTag/ArticleXPath are alternatives; the id and tag forms win when
// both are set.
type ExtractionConfig struct {
	URL                  string `yaml:"url"`
	ContainerID          string `yaml:"container_id"`
	ContainerClass       string `yaml:"container_class"`
	ArticleTag           string `yaml:"article_tag"`
	ArticleXPath         string `yaml:"article_xpath"`
	TitleXPath           string `yaml:"title_xpath"`
	DateXPath            string `yaml:"date_xpath"`
	DateJoin             bool   `yaml:"date_join"`
	URLXPath             string `yaml:"url_xpath"`
	PDFLinkText          string `yaml:"pdf_link_text"`
	RequiresArticleVisit bool   `yaml:"requires_article_visit"`
	Strategy             string `yaml:"strategy"`
}

type targetsFile struct {
	Targets map[string]ExtractionConfig `yaml:"targets"`
}

// LoadTargets reads the symbol -> extraction config map from YAML.
// Symbols are uppercase-normalized; each config-driven entry must carry a
// source URL so broken entries fail here rather than mid-cycle.
func LoadTargets(path string) (map[string]ExtractionConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets config %s: %w", path, err)
	}

	var file targetsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse targets config %s: %w", path, err)
	}

	targets := make(map[string]ExtractionConfig, len(file.Targets))
	for symbol, tc := range file.Targets {
		normalized := strings.ToUpper(strings.TrimSpace(symbol))
		if normalized == "" {
			return nil, fmt.Errorf("targets config %s: empty symbol", path)
		}
		if tc.Strategy == "" && tc.URL == "" {
			return nil, fmt.Errorf("target %s: url is required", normalized)
		}
		if _, dup := targets[normalized]; dup {
			return nil, fmt.Errorf("target %s: duplicate entry", normalized)
		}
		targets[normalized] = tc
	}

	return targets, nil
}
