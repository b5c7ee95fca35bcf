package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"dataDir"`
	} `yaml:"app" json:"app"`

	Search struct {
		Terms      []string `yaml:"terms" json:"terms"`
		Locations  []string `yaml:"locations" json:"locations"`
		MaxResults int      `yaml:"max_results" json:"maxResults"` // per query; 0 = unlimited
		Headless   bool     `yaml:"headless" json:"headless"`
	} `yaml:"search" json:"search"`

	Collect struct {
		NavigationTimeoutSeconds int `yaml:"navigation_timeout_seconds" json:"navigationTimeoutSeconds"`
		ScrollPauseMillis        int `yaml:"scroll_pause_ms" json:"scrollPauseMs"`
		MaxScrollAttempts        int `yaml:"max_scroll_attempts" json:"maxScrollAttempts"`
	} `yaml:"collect" json:"collect"`

	Enrich struct {
		Concurrency         int     `yaml:"concurrency" json:"concurrency"`
		VisitTimeoutSeconds int     `yaml:"visit_timeout_seconds" json:"visitTimeoutSeconds"`
		RequestsPerHost     float64 `yaml:"requests_per_host" json:"requestsPerHost"`
		Burst               int     `yaml:"burst" json:"burst"`
		PhoneMinDigits      int     `yaml:"phone_min_digits" json:"phoneMinDigits"`
	} `yaml:"enrich" json:"enrich"`

	Dedup struct {
		CaseFold           bool `yaml:"case_fold" json:"caseFold"`
		CollapseWhitespace bool `yaml:"collapse_whitespace" json:"collapseWhitespace"`
		StripPunctuation   bool `yaml:"strip_punctuation" json:"stripPunctuation"`
	} `yaml:"dedup" json:"dedup"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Default returns the built-in configuration used when no config file
// has been bootstrapped yet.
func Default() Config {
	var cfg Config
	cfg.App.Port = 8844
	cfg.Search.Terms = []string{"Construction"}
	cfg.Search.Locations = []string{"Thessaloniki"}
	cfg.Search.MaxResults = 10
	cfg.Search.Headless = true
	cfg.Collect.NavigationTimeoutSeconds = 20
	cfg.Collect.ScrollPauseMillis = 1500
	cfg.Collect.MaxScrollAttempts = 20
	cfg.Enrich.Concurrency = 5
	cfg.Enrich.VisitTimeoutSeconds = 20
	cfg.Enrich.RequestsPerHost = 1
	cfg.Enrich.Burst = 1
	cfg.Enrich.PhoneMinDigits = 10
	cfg.Dedup.CaseFold = true
	cfg.Dedup.CollapseWhitespace = true
	cfg.Dedup.StripPunctuation = true
	return cfg
}

func (c Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Collect.NavigationTimeoutSeconds) * time.Second
}

func (c Config) ScrollPause() time.Duration {
	return time.Duration(c.Collect.ScrollPauseMillis) * time.Millisecond
}

func (c Config) VisitTimeout() time.Duration {
	return time.Duration(c.Enrich.VisitTimeoutSeconds) * time.Second
}
