package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/swcstudio/fsl-continuum-sub003/internal/complexity"
	"github.com/swcstudio/fsl-continuum-sub003/internal/tier"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Version    string                   `mapstructure:"version"`
	Backends   map[string]BackendConfig `mapstructure:"backends"`
	Tiers      map[string][]string      `mapstructure:"tiers"`
	Classifier ClassifierConfig         `mapstructure:"classifier"`
	Ensemble   EnsembleConfig           `mapstructure:"ensemble"`
	Logging    LoggingConfig            `mapstructure:"logging"`
	Server     ServerConfig             `mapstructure:"server"`
	Output     OutputConfig             `mapstructure:"output"`
}

// BackendConfig describes one backend: its static attributes and how to reach it.
type BackendConfig struct {
	Type          string        `mapstructure:"type"` // simulated, openai, openrouter, vllm, lmstudio, custom, ollama
	Model         string        `mapstructure:"model"`
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CostPerUnit   float64       `mapstructure:"cost_per_unit"`
	QualityScore  float64       `mapstructure:"quality_score"`
	MaxTier       *tier.Tier    `mapstructure:"max_tier"`       // nil means no cap
	BaseLatency   time.Duration `mapstructure:"base_latency"`   // simulated only
	SimulateDelay bool          `mapstructure:"simulate_delay"` // simulated only
	Fail          bool          `mapstructure:"fail"`           // simulated only
	RateLimit     float64       `mapstructure:"rate_limit"`     // requests per second, 0 = unlimited
}

// ClassifierConfig holds the complexity pattern table and domain multipliers.
type ClassifierConfig struct {
	Patterns map[string][]string `mapstructure:"patterns"` // level name -> regexes
	Domains  map[string]float64  `mapstructure:"domains"`
}

// EnsembleConfig controls fan-out and consensus policy.
type EnsembleConfig struct {
	AgreementPolicy string        `mapstructure:"agreement_policy"` // fixed or overlap
	FixedAgreement  float64       `mapstructure:"fixed_agreement"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"` // 0 = no per-call timeout
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes daemon settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	Transport      string `mapstructure:"transport"` // connect or ndjson
}

// OutputConfig controls how results are serialized by the CLI.
type OutputConfig struct {
	Format string `mapstructure:"format"` // json or yaml
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// Environment variables override file values (prefix: FSL_, dots replaced with underscores).
// Without an explicit path a missing file is not an error: built-in tables are used.
func Load(path string) (*Config, error) {
	v := newViper()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		v.SetConfigName("config.example")
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

// Default returns the built-in configuration, with environment overrides applied.
func Default() (*Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FSL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyTableDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults populates sensible defaults for optional scalar fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", "1")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("ensemble.agreement_policy", "fixed")
	v.SetDefault("ensemble.fixed_agreement", 0.85)
	v.SetDefault("ensemble.max_concurrency", 8)
	v.SetDefault("ensemble.call_timeout", "30s")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.transport", "connect")

	v.SetDefault("output.format", "json")
	v.SetDefault("output.pretty", true)
}

// applyTableDefaults fills whole tables that the file left out.
func (c *Config) applyTableDefaults() {
	if len(c.Backends) == 0 {
		c.Backends = DefaultBackends()
	}
	if len(c.Tiers) == 0 {
		c.Tiers = DefaultTiers()
	}
	if len(c.Classifier.Patterns) == 0 {
		c.Classifier.Patterns = make(map[string][]string)
		for lvl, list := range complexity.DefaultPatterns() {
			c.Classifier.Patterns[lvl.String()] = list
		}
	}
	if len(c.Classifier.Domains) == 0 {
		c.Classifier.Domains = complexity.DefaultDomains()
	}
}

// ClassifierTable converts the pattern config into a classifier table.
func (c *Config) ClassifierTable() (complexity.Table, error) {
	table := complexity.Table{
		Patterns: make(map[complexity.Level][]string, len(c.Classifier.Patterns)),
		Domains:  c.Classifier.Domains,
	}
	for name, list := range c.Classifier.Patterns {
		lvl, err := complexity.ParseLevel(name)
		if err != nil {
			return complexity.Table{}, fmt.Errorf("classifier.patterns: %w", err)
		}
		table.Patterns[lvl] = list
	}
	return table, nil
}

// TierBackends returns the tier lists keyed by tier.
func (c *Config) TierBackends() (map[tier.Tier][]string, error) {
	out := make(map[tier.Tier][]string, len(c.Tiers))
	for name, ids := range c.Tiers {
		t, err := tier.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("tiers: %w", err)
		}
		out[t] = append([]string(nil), ids...)
	}
	return out, nil
}

// BackendIDs returns configured backend ids in sorted order.
func (c *Config) BackendIDs() []string {
	ids := make([]string, 0, len(c.Backends))
	for id := range c.Backends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("at least one backend must be configured")
	}

	for id, b := range c.Backends {
		switch strings.ToLower(strings.TrimSpace(b.Type)) {
		case "simulated", "openai", "openrouter", "vllm", "lmstudio", "custom", "ollama":
		case "":
			return fmt.Errorf("backend %q must define type", id)
		default:
			return fmt.Errorf("backend %q has unknown type %q", id, b.Type)
		}
		if b.CostPerUnit < 0 {
			return fmt.Errorf("backend %q cost_per_unit cannot be negative", id)
		}
		if b.QualityScore < 0 || b.QualityScore > 1 {
			return fmt.Errorf("backend %q quality_score must be within [0,1]", id)
		}
		if b.MaxTier != nil && !b.MaxTier.Valid() {
			return fmt.Errorf("backend %q max_tier is invalid", id)
		}
		if b.Timeout < 0 || b.BaseLatency < 0 {
			return fmt.Errorf("backend %q durations cannot be negative", id)
		}
		if b.RateLimit < 0 {
			return fmt.Errorf("backend %q rate_limit cannot be negative", id)
		}
	}

	tiers, err := c.TierBackends()
	if err != nil {
		return err
	}
	if _, ok := tiers[tier.Lowest]; !ok {
		return fmt.Errorf("tiers must define the %s tier", tier.Lowest)
	}
	for t, ids := range tiers {
		if len(ids) == 0 {
			return fmt.Errorf("tier %s must list at least one backend", t)
		}
		for _, id := range ids {
			if _, ok := c.Backends[id]; !ok {
				return fmt.Errorf("tier %s references unknown backend %q", t, id)
			}
		}
	}

	table, err := c.ClassifierTable()
	if err != nil {
		return err
	}
	if _, err := complexity.New(table); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(c.Ensemble.AgreementPolicy)) {
	case "", "fixed", "overlap":
	default:
		return fmt.Errorf("ensemble.agreement_policy must be one of fixed or overlap, got %q", c.Ensemble.AgreementPolicy)
	}
	if c.Ensemble.FixedAgreement < 0 || c.Ensemble.FixedAgreement > 1 {
		return errors.New("ensemble.fixed_agreement must be within [0,1]")
	}
	if c.Ensemble.MaxConcurrency <= 0 {
		return errors.New("ensemble.max_concurrency must be > 0")
	}
	if c.Ensemble.CallTimeout < 0 {
		return errors.New("ensemble.call_timeout must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(c.Server.Transport)) {
	case "", "connect", "ndjson":
	default:
		return fmt.Errorf("server.transport must be one of connect or ndjson, got %q", c.Server.Transport)
	}

	switch strings.ToLower(strings.TrimSpace(c.Output.Format)) {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be one of json or yaml, got %q", c.Output.Format)
	}

	return nil
}
