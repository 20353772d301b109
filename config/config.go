package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// WebScanConfig configures the web crawler/scanner adapter (ZAP-compatible API)
type WebScanConfig struct {
	BaseURL             string `yaml:"baseURL"`
	APIKey              string `yaml:"apiKey"`
	PollIntervalSeconds int    `yaml:"pollIntervalSeconds"`
	SpiderTimeoutMin    int    `yaml:"spiderTimeoutMinutes"`
	ActiveTimeoutMin    int    `yaml:"activeTimeoutMinutes"`
	PassiveSettleSec    int    `yaml:"passiveSettleSeconds"`
}

// DepVulnConfig configures the dependency-vulnerability database adapter
type DepVulnConfig struct {
	BaseURL string `yaml:"baseURL"`
}

// ContainerConfig configures the container scanner adapter
type ContainerConfig struct {
	ServerURL string `yaml:"serverURL"`
}

// StaticConfig configures the static-analysis service adapter
type StaticConfig struct {
	BaseURL string `yaml:"baseURL"`
	APIKey  string `yaml:"apiKey"`
}

// AdvisoriesConfig configures the source-host security-advisory adapter
type AdvisoriesConfig struct {
	BaseURL string `yaml:"baseURL"`
	Token   string `yaml:"token"`
}

// AdaptersConfig groups per-tool adapter settings.
// A missing credential or base URL disables that adapter, never the process.
type AdaptersConfig struct {
	WebScan    WebScanConfig    `yaml:"webscan"`
	DepVuln    DepVulnConfig    `yaml:"depvuln"`
	Container  ContainerConfig  `yaml:"container"`
	Static     StaticConfig     `yaml:"staticanalysis"`
	Advisories AdvisoriesConfig `yaml:"advisories"`
}

// ScanConfig groups orchestration settings
type ScanConfig struct {
	MaxConcurrentScans int `yaml:"maxConcurrentScans"`
	// RetentionHours prunes terminal jobs older than this; 0 keeps jobs forever
	RetentionHours int `yaml:"retentionHours"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Scan     ScanConfig     `yaml:"scan"`
	Adapters AdaptersConfig `yaml:"adapters"`
}

// LoadConfig loads configuration from a YAML file, then applies env overrides
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	loadConfigFromEnv(config)
	applyDefaults(config)

	return config, nil
}

// Defaults returns a configuration with only defaults and env overrides applied,
// for running without a config file.
func Defaults() *Config {
	config := &Config{}
	loadConfigFromEnv(config)
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 3030
	}
	if config.Storage.Path == "" {
		config.Storage.Path = "./data"
	}
	if config.Scan.MaxConcurrentScans <= 0 {
		config.Scan.MaxConcurrentScans = 3
	}
	ws := &config.Adapters.WebScan
	if ws.PollIntervalSeconds <= 0 {
		ws.PollIntervalSeconds = 5
	}
	if ws.SpiderTimeoutMin <= 0 {
		ws.SpiderTimeoutMin = 2
	}
	if ws.ActiveTimeoutMin <= 0 {
		ws.ActiveTimeoutMin = 30
	}
	if ws.PassiveSettleSec <= 0 {
		ws.PassiveSettleSec = 30
	}
	if config.Adapters.DepVuln.BaseURL == "" {
		config.Adapters.DepVuln.BaseURL = "https://api.osv.dev"
	}
	if config.Adapters.Static.BaseURL == "" {
		config.Adapters.Static.BaseURL = "https://semgrep.dev"
	}
	if config.Adapters.Advisories.BaseURL == "" {
		config.Adapters.Advisories.BaseURL = "https://api.github.com"
	}
}

func loadConfigFromEnv(config *Config) {
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			config.Server.Port = port
		}
	}

	if storagePath := os.Getenv("STORAGE_PATH"); storagePath != "" {
		config.Storage.Path = storagePath
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}
	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		config.Logging.Format = logFormat
	}

	if v := os.Getenv("SCAN_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scan.MaxConcurrentScans = n
		}
	}
	if v := os.Getenv("SCAN_RETENTION_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scan.RetentionHours = n
		}
	}

	// Adapter endpoints and credentials. Missing values leave the adapter disabled.
	if v := os.Getenv("WEBSCAN_BASE_URL"); v != "" {
		config.Adapters.WebScan.BaseURL = v
	}
	if v := os.Getenv("WEBSCAN_API_KEY"); v != "" {
		config.Adapters.WebScan.APIKey = v
	}
	if v := os.Getenv("OSV_BASE_URL"); v != "" {
		config.Adapters.DepVuln.BaseURL = v
	}
	if v := os.Getenv("CONTAINER_SCANNER_URL"); v != "" {
		config.Adapters.Container.ServerURL = v
	}
	if v := os.Getenv("STATIC_ANALYSIS_BASE_URL"); v != "" {
		config.Adapters.Static.BaseURL = v
	}
	if v := os.Getenv("STATIC_ANALYSIS_API_KEY"); v != "" {
		config.Adapters.Static.APIKey = v
	}
	if v := os.Getenv("SOURCE_HOST_BASE_URL"); v != "" {
		config.Adapters.Advisories.BaseURL = v
	}
	if v := os.Getenv("SOURCE_HOST_TOKEN"); v != "" {
		config.Adapters.Advisories.Token = v
	}
}
