package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string        `yaml:"git_commit" envconfig:"BMGR_GIT_COMMIT"`
	GitTag             string        `yaml:"git_tag" envconfig:"BMGR_GIT_TAG"`
	BuildTime          string        `yaml:"build_time" envconfig:"BMGR_BUILD_TIME"`
	IsProduction       bool          `yaml:"is_production" envconfig:"BMGR_IS_PRODUCTION"`
	LogLevel           zapcore.Level `yaml:"log_level" envconfig:"BMGR_LOG_LEVEL"`
	LogFile            string        `yaml:"log_file" envconfig:"BMGR_LOG_FILE"`
	OpsEndpointsEnable bool          `yaml:"ops_endpoints_enable" envconfig:"BMGR_OPS_ENDPOINTS_ENABLE"`
	ProfilerEnable     bool          `yaml:"profiler_enable" envconfig:"BMGR_PROFILER_ENABLE"`
	Server             ServerConfig  `yaml:"server"`
	Catalog            CatalogConfig `yaml:"catalog"`
	Notion             NotionConfig  `yaml:"notion"`
	BoltDB             BoltDBConfig  `yaml:"boltdb"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BMGR_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BMGR_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BMGR_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BMGR_SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BMGR_SERVER_SHUTDOWN_TIMEOUT"`
}

// CatalogConfig holds the aladin open api settings. The version and
// cover size are fixed protocol parameters sent on every request.
type CatalogConfig struct {
	SearchURL  string        `yaml:"search_url" envconfig:"BMGR_CATALOG_SEARCH_URL"`
	LookupURL  string        `yaml:"lookup_url" envconfig:"BMGR_CATALOG_LOOKUP_URL"`
	APIKey     string        `yaml:"api_key" envconfig:"BMGR_CATALOG_API_KEY"`
	Version    string        `yaml:"version" envconfig:"BMGR_CATALOG_VERSION"`
	CoverSize  string        `yaml:"cover_size" envconfig:"BMGR_CATALOG_COVER_SIZE"`
	MaxResults int           `yaml:"max_results" envconfig:"BMGR_CATALOG_MAX_RESULTS"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BMGR_CATALOG_TIMEOUT"`
}

// NotionConfig holds the destination store settings. The database id
// accepts either the bare identifier or a full sharing link.
type NotionConfig struct {
	BaseURL    string        `yaml:"base_url" envconfig:"BMGR_NOTION_BASE_URL"`
	Token      string        `yaml:"token" envconfig:"BMGR_NOTION_TOKEN"`
	DatabaseID string        `yaml:"database_id" envconfig:"BMGR_NOTION_DATABASE_ID"`
	APIVersion string        `yaml:"api_version" envconfig:"BMGR_NOTION_API_VERSION"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BMGR_NOTION_TIMEOUT"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BMGR_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BMGR_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BMGR_BOLTDB_BUCKET_NAME"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if len(config.Catalog.SearchURL) == 0 || len(config.Catalog.LookupURL) == 0 {
		return errors.New("make sure to set valid catalog search and lookup urls in configuration file")
	}

	if len(config.Catalog.Version) == 0 {
		config.Catalog.Version = "20131101"
	}

	if len(config.Catalog.CoverSize) == 0 {
		config.Catalog.CoverSize = "Big"
	}

	if config.Catalog.MaxResults <= 0 {
		config.Catalog.MaxResults = 10
	}

	if config.Catalog.Timeout <= 0 {
		config.Catalog.Timeout = 10 * time.Second
	}

	if len(config.Notion.BaseURL) == 0 {
		config.Notion.BaseURL = "https://api.notion.com"
	}

	if len(config.Notion.APIVersion) == 0 {
		config.Notion.APIVersion = "2022-06-28"
	}

	if config.Notion.Timeout <= 0 {
		config.Notion.Timeout = 10 * time.Second
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load("./config.env")
	if err != nil {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BMGR`.
	err = LoadConfigEnvs("BMGR", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
