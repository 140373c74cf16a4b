package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	TestingMode bool

	ServerPort string

	RadarBaseURL string
	RadarTimeout time.Duration

	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	RequestTimeout time.Duration
	CacheTTL       time.Duration
	CacheBackend   string // "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	BreakerFailureThreshold int
	BreakerCooldown         time.Duration

	ShutdownTimeout time.Duration
	DrainTimeout    time.Duration

	WarmTargets  []WarmTarget
	WarmInterval time.Duration
}

// WarmTarget is a coordinate pair refreshed in the background.
type WarmTarget struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

type fileConfig struct {
	TestingMode *bool `yaml:"testing_mode"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Radar struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"radar"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RateLimitRPS            int    `yaml:"rate_limit_rps"`
		RateLimitBurst          int    `yaml:"rate_limit_burst"`
		BreakerFailureThreshold int    `yaml:"breaker_failure_threshold"`
		BreakerCooldown         string `yaml:"breaker_cooldown"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout      string `yaml:"timeout"`
		DrainTimeout string `yaml:"drain_timeout"`
	} `yaml:"shutdown"`

	Warming struct {
		Interval string       `yaml:"interval"`
		Targets  []WarmTarget `yaml:"targets"`
	} `yaml:"warming"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) with
// env overrides. PORT always wins over the file value. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}
	if fc.TestingMode != nil {
		cfg.TestingMode = *fc.TestingMode
	}

	cfg.ServerPort = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.ServerPort == "" {
		cfg.ServerPort = fc.Server.Port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "3001"
	}

	cfg.RadarBaseURL = strings.TrimSpace(os.Getenv("RADAR_BASE_URL"))
	if cfg.RadarBaseURL == "" {
		cfg.RadarBaseURL = strings.TrimSpace(fc.Radar.BaseURL)
	}
	if cfg.RadarBaseURL == "" {
		cfg.RadarBaseURL = "http://www.bom.gov.au"
	}
	cfg.RadarBaseURL = strings.TrimRight(cfg.RadarBaseURL, "/")
	cfg.RadarTimeout = parseDuration(fc.Radar.Timeout, 10*time.Second)

	cfg.WeatherAPIURL = strings.TrimSpace(os.Getenv("WEATHER_API_URL"))
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = strings.TrimSpace(fc.WeatherAPI.URL)
	}
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.weather.bom.gov.au"
	}
	cfg.WeatherAPIURL = strings.TrimRight(cfg.WeatherAPIURL, "/")
	cfg.WeatherAPITimeout = parseDuration(fc.WeatherAPI.Timeout, 10*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 25*time.Second)
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 5*time.Minute)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}
	cfg.BreakerFailureThreshold = fc.Reliability.BreakerFailureThreshold
	if cfg.BreakerFailureThreshold <= 0 {
		cfg.BreakerFailureThreshold = 5
	}
	cfg.BreakerCooldown = parseDuration(fc.Reliability.BreakerCooldown, 30*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.DrainTimeout = parseDuration(fc.Shutdown.DrainTimeout, 10*time.Second)

	cfg.WarmTargets = fc.Warming.Targets
	cfg.WarmInterval = parseDuration(fc.Warming.Interval, 5*time.Minute)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string, returning defaultVal on empty
// string, parse error or non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate checks cross-field constraints. The request timeout must leave
// room for an upstream fan-out to complete.
func validate(cfg *Config) error {
	longest := cfg.RadarTimeout
	if cfg.WeatherAPITimeout > longest {
		longest = cfg.WeatherAPITimeout
	}
	if cfg.RequestTimeout <= longest {
		cfg.RequestTimeout = longest + time.Second
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	for i, t := range cfg.WarmTargets {
		if t.Lat < -90 || t.Lat > 90 || t.Lng < -180 || t.Lng > 180 {
			return fmt.Errorf("warming.targets[%d]: coordinates out of range (%v, %v)", i, t.Lat, t.Lng)
		}
	}
	return nil
}
