// Package config loads the daemon's YAML configuration file and layers
// command-line flags over it, following the same load/validate shape as
// the rest of the back-office pipeline's services.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// BackendConfig points at the typed RPC surface the daemon treats as
// external (spec §6). Concrete transport is an HTTP+JSON client; see
// internal/backend.
type BackendConfig struct {
	BaseURL   string `yaml:"baseURL"`
	APIKey    string `yaml:"apiKey"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

// BrowserConfig controls the headless-browser driver used by the
// exploration, contact-extraction, and market-discovery loops.
type BrowserConfig struct {
	Headless        bool `yaml:"headless"`
	NavTimeoutMs    int  `yaml:"navTimeoutMs"`
	PostLoadSleepMs int  `yaml:"postLoadSleepMs"`
}

// AgentConfig controls the code-generating agent subprocess (spec §4.4).
type AgentConfig struct {
	Binary          string `yaml:"binary"`
	TimeoutMinutes  int    `yaml:"timeoutMinutes"`
	KillGraceMs     int    `yaml:"killGraceMs"`
	OutputEnvVar    string `yaml:"outputEnvVar"`
	TemplatePath    string `yaml:"templatePath"`
}

// ScratchpadConfig controls the on-disk scratch layout (spec §6).
type ScratchpadConfig struct {
	Dir         string `yaml:"dir"`
	LogFileName string `yaml:"logFileName"`
	StatusFile  string `yaml:"statusFile"`
}

// TestHarnessConfig points at the Node.js runner and the external
// browser-harness script the test stage shells out to (spec §4.5).
type TestHarnessConfig struct {
	Binary        string `yaml:"binary"`
	HarnessScript string `yaml:"harnessScript"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type GoogleLLMConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// LLMConfig is carried verbatim from the teacher: the AI-extraction
// facility (spec §4.2, §4.8) needs exactly this provider/key/model triad.
type LLMConfig struct {
	DefaultProvider string          `yaml:"defaultProvider"`
	OpenAI          OpenAIConfig    `yaml:"openai"`
	Anthropic       AnthropicConfig `yaml:"anthropic"`
	Google          GoogleLLMConfig `yaml:"google"`
}

// SearxngConfig is carried verbatim from the teacher.
type SearxngConfig struct {
	BaseURL      string `yaml:"baseURL"`
	DefaultLimit int    `yaml:"defaultLimit"`
	TimeoutMs    int    `yaml:"timeoutMs"`
}

// SearchConfig drives the market-discovery loop's query sweep (spec §4.9).
type SearchConfig struct {
	Provider string        `yaml:"provider"`
	Searxng  SearxngConfig `yaml:"searxng"`
}

// RedisConfig backs the optional cross-instance worker lease (see
// SPEC_FULL.md §9 domain-stack wiring).
type RedisConfig struct {
	URL          string `yaml:"url"`
	LeaseEnabled bool   `yaml:"leaseEnabled"`
	LeaseTTLMs   int    `yaml:"leaseTTLMs"`
}

// StatusServerConfig controls the optional read-only operator status
// endpoint (SPEC_FULL.md §9; additive, not part of spec.md's named RPCs).
type StatusServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// TranscriptRetentionConfig controls cleanup of old scratchpad transcript
// files, generalized from the teacher's document/job TTL retention.
type TranscriptRetentionConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxAgeDays int  `yaml:"maxAgeDays"`
}

// WorkerConfig bounds the scraper-development worker pool and the three
// auxiliary loop cadences (spec §4.1, §5).
type WorkerConfig struct {
	PollIntervalSeconds    int `yaml:"pollIntervalSeconds"`
	DirectoryIntervalSecs  int `yaml:"directoryIntervalSeconds"`
	ContactIntervalSecs    int `yaml:"contactIntervalSeconds"`
	DiscoveryIntervalSecs  int `yaml:"discoveryIntervalSeconds"`
}

type Config struct {
	Backend    BackendConfig             `yaml:"backend"`
	Browser    BrowserConfig             `yaml:"browser"`
	Agent      AgentConfig               `yaml:"agent"`
	Scratchpad ScratchpadConfig          `yaml:"scratchpad"`
	TestHarness TestHarnessConfig        `yaml:"testHarness"`
	LLM        LLMConfig                 `yaml:"llm"`
	Search     SearchConfig              `yaml:"search"`
	Redis      RedisConfig               `yaml:"redis"`
	Status     StatusServerConfig        `yaml:"status"`
	Retention  TranscriptRetentionConfig `yaml:"retention"`
	Worker     WorkerConfig              `yaml:"worker"`

	// Flags, layered over the file by Load.
	Workers    int
	CitySlug   string
	Verbose    bool
	OneShotDir bool
	OneShotCon bool
	OneShotDis bool
}

// Load reads path, decodes YAML into a Config with sane defaults, then
// parses args with the daemon's own flag set and layers the result over
// the file (matching the teacher's fatal-on-decode-error shape in
// config.Load).
func Load(path string, args []string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	cfg := defaults()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	fs := flag.NewFlagSet("scraperdev", flag.ExitOnError)
	workers := fs.Int("workers", 1, "number of concurrent scraper-development workers [1,10]")
	fs.IntVar(workers, "w", 1, "shorthand for -workers")
	city := fs.String("city", "", "restrict scraper-development claims to one city slug")
	fs.StringVar(city, "c", "", "shorthand for -city")
	verbose := fs.Bool("verbose", false, "echo per-worker log lines to stdout")
	fs.BoolVar(verbose, "v", false, "shorthand for -verbose")
	dir := fs.Bool("directory", false, "one-shot: run the directory loop once, then exit")
	fs.BoolVar(dir, "d", false, "shorthand for -directory")
	contact := fs.Bool("contact", false, "one-shot: run the contact-extraction loop once, then exit")
	discovery := fs.Bool("discovery", false, "one-shot: run the market-discovery loop once, then exit")
	fs.BoolVar(discovery, "D", false, "shorthand for -discovery")
	_ = fs.Parse(args)

	cfg.Workers = ClampWorkers(*workers)
	cfg.CitySlug = *city
	cfg.Verbose = *verbose
	cfg.OneShotDir = *dir
	cfg.OneShotCon = *contact
	cfg.OneShotDis = *discovery

	return cfg
}

// ClampWorkers enforces the [1,10] bound from spec §4.1; out-of-range
// values fall back to the default of 1.
func ClampWorkers(n int) int {
	if n < 1 || n > 10 {
		return 1
	}
	return n
}

func defaults() *Config {
	return &Config{
		Backend: BackendConfig{TimeoutMs: 30_000},
		Browser: BrowserConfig{Headless: true, NavTimeoutMs: 30_000, PostLoadSleepMs: 3_000},
		Agent: AgentConfig{
			Binary:         "claude",
			TimeoutMinutes: 20,
			KillGraceMs:    5_000,
			OutputEnvVar:   "SCRAPER_OUTPUT_FILE",
			TemplatePath:   "prompt-template.md",
		},
		Scratchpad: ScratchpadConfig{
			Dir:         "./.scraper-development/",
			LogFileName: "daemon.log",
			StatusFile:  "current-status.txt",
		},
		TestHarness: TestHarnessConfig{
			Binary:        "node",
			HarnessScript: "test-harness.js",
		},
		Worker: WorkerConfig{
			PollIntervalSeconds:   5,
			DirectoryIntervalSecs: 30,
			ContactIntervalSecs:   60,
			DiscoveryIntervalSecs: 30,
		},
	}
}

// Validate performs basic startup sanity checks, matching the teacher's
// fail-fast LLM-provider validation in (*Config).Validate.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return errors.New("backend.baseURL must be set")
	}

	provider := strings.TrimSpace(cfg.LLM.DefaultProvider)
	if provider == "" {
		return errors.New("llm.defaultProvider must be set to 'openai', 'anthropic', or 'google'")
	}
	switch provider {
	case "openai":
		if cfg.LLM.OpenAI.APIKey == "" || cfg.LLM.OpenAI.Model == "" {
			return errors.New("openai llm provider is not fully configured")
		}
	case "anthropic":
		if cfg.LLM.Anthropic.APIKey == "" || cfg.LLM.Anthropic.Model == "" {
			return errors.New("anthropic llm provider is not fully configured")
		}
	case "google":
		if cfg.LLM.Google.APIKey == "" || cfg.LLM.Google.Model == "" {
			return errors.New("google llm provider is not fully configured")
		}
	default:
		return fmt.Errorf("unsupported llm.defaultProvider: %s", provider)
	}

	return nil
}
