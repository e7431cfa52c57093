package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Prober names accepted in benchmark.prober.
const (
	ProberCurl = "curl"
	ProberHTTP = "http"
)

// Config is the top-level configuration
type Config struct {
	DNS       DNSConfig       `yaml:"dns"`
	Tools     ToolsConfig     `yaml:"tools"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Output    OutputConfig    `yaml:"output"`
}

// DNSConfig holds mirror directory lookup settings
type DNSConfig struct {
	Service string        `yaml:"service"`
	Servers []string      `yaml:"servers"`
	Timeout time.Duration `yaml:"timeout"`
}

// ToolsConfig holds paths to the external helper tools
type ToolsConfig struct {
	Pkg  string `yaml:"pkg"`
	Curl string `yaml:"curl"`
}

// BenchmarkConfig holds probe settings
type BenchmarkConfig struct {
	Prober string `yaml:"prober"`
	// Workers is the number of mirrors probed in parallel. 1 keeps the run
	// fully sequential.
	Workers int `yaml:"workers"`
	// ProbeTimeout bounds a single probe. Zero means no timeout.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// OutputConfig holds reporter settings
type OutputConfig struct {
	RepoConfig string `yaml:"repo_config"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DNS: DNSConfig{
			Service: "_http._tcp.pkg.all.freebsd.org",
			Servers: nil,
			Timeout: 5 * time.Second,
		},
		Tools: ToolsConfig{
			Pkg:  "/usr/sbin/pkg",
			Curl: "curl",
		},
		Benchmark: BenchmarkConfig{
			Prober:       ProberCurl,
			Workers:      1,
			ProbeTimeout: 0,
		},
		Output: OutputConfig{
			RepoConfig: "/usr/local/etc/pkg/repos/FreeBSD.conf",
		},
	}
}

// Load reads a config file from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, error) {
	searchPaths := []string{
		"fastest-pkg.yaml",
		"/usr/local/etc/fastest-pkg.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", "fastest-pkg", "fastest-pkg.yaml"),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPaths)
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DNS.Service) == "" {
		return fmt.Errorf("dns.service must not be empty")
	}
	if c.DNS.Timeout < 0 {
		return fmt.Errorf("dns.timeout must not be negative")
	}
	if c.Benchmark.Workers < 1 {
		return fmt.Errorf("benchmark.workers must be at least 1, got %d", c.Benchmark.Workers)
	}
	if c.Benchmark.ProbeTimeout < 0 {
		return fmt.Errorf("benchmark.probe_timeout must not be negative")
	}
	switch c.Benchmark.Prober {
	case ProberCurl:
		if c.Tools.Curl == "" {
			return fmt.Errorf("tools.curl is required for the curl prober")
		}
	case ProberHTTP:
	default:
		return fmt.Errorf("unknown benchmark.prober %q (want %q or %q)", c.Benchmark.Prober, ProberCurl, ProberHTTP)
	}
	if c.Tools.Pkg == "" {
		return fmt.Errorf("tools.pkg must not be empty")
	}
	if c.Output.RepoConfig == "" {
		return fmt.Errorf("output.repo_config must not be empty")
	}
	return nil
}
