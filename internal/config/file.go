package config

import (
	"fmt"
	"net/url"
	"os"

	"gihan9a/draftsync/internal/draft"
	"gihan9a/draftsync/pkg/chunk"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the structure of the configuration file
type FileConfig struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Sync struct {
		Path           string `yaml:"path"`
		DocumentID     string `yaml:"document_id"`
		ChunkSize      int    `yaml:"chunk_size"`
		MaxMessageSize int64  `yaml:"max_message_size"`
	} `yaml:"sync"`

	Store struct {
		Backend   string `yaml:"backend"`
		Dir       string `yaml:"dir"`
		Extension string `yaml:"extension"`
		Watch     *bool  `yaml:"watch"`
		Redis     struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"store"`

	Proxy struct {
		URL            string `yaml:"url"`
		InsecureVerify bool   `yaml:"insecure_verify"`
	} `yaml:"proxy"`

	TLS struct {
		Enabled      bool   `yaml:"enabled"`
		CertFile     string `yaml:"cert_file"`
		KeyFile      string `yaml:"key_file"`
		GenerateCert bool   `yaml:"generate_cert"`
	} `yaml:"tls"`

	CORS struct {
		Enabled          bool   `yaml:"enabled"`
		AllowOrigins     string `yaml:"allow_origins"`
		AllowMethods     string `yaml:"allow_methods"`
		AllowHeaders     string `yaml:"allow_headers"`
		AllowCredentials bool   `yaml:"allow_credentials"`
		MaxAge           int    `yaml:"max_age"`
	} `yaml:"cors"`

	Log struct {
		File       string `yaml:"file"`
		Production bool   `yaml:"production"`
		Debug      bool   `yaml:"debug"`
	} `yaml:"log"`

	Tracing struct {
		Enabled  bool   `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"tracing"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:          2048,
		InsecureProxy: false,
		Sync: SyncConfig{
			Path:           "/sync",
			DocumentID:     "untitled",
			ChunkSize:      chunk.DefaultSize,
			MaxMessageSize: 4 << 20,
		},
		Store: StoreConfig{
			Backend:     BackendFile,
			Dir:         "drafts",
			Extension:   ".md",
			Watch:       true,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "draftsync:draft:",
		},
		TLS: TLSConfig{
			Enabled:      false,
			CertFile:     "cert/cert.pem",
			KeyFile:      "cert/key.pem",
			GenerateCert: false,
		},
		CORS: CORSConfig{
			Enabled:          false,
			AllowOrigins:     "*",
			AllowMethods:     "GET, OPTIONS",
			AllowHeaders:     "Content-Type, Authorization",
			AllowCredentials: false,
			MaxAge:           86400,
		},
		Log: LogConfig{
			FilePath: "draftsync.log",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "localhost:4318",
		},
	}
}

// LoadConfig loads configuration from a YAML file over the defaults.
// An empty path returns the defaults.
func LoadConfig(filePath string) (*Config, error) {
	config := Default()

	if filePath == "" {
		return config, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var fileConfig FileConfig
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if fileConfig.Server.Port != 0 {
		config.Port = fileConfig.Server.Port
	}

	// Sync settings
	if fileConfig.Sync.Path != "" {
		config.Sync.Path = fileConfig.Sync.Path
	}
	if fileConfig.Sync.DocumentID != "" {
		config.Sync.DocumentID = fileConfig.Sync.DocumentID
	}
	if fileConfig.Sync.ChunkSize != 0 {
		config.Sync.ChunkSize = fileConfig.Sync.ChunkSize
	}
	if fileConfig.Sync.MaxMessageSize != 0 {
		config.Sync.MaxMessageSize = fileConfig.Sync.MaxMessageSize
	}

	// Store settings
	if fileConfig.Store.Backend != "" {
		config.Store.Backend = fileConfig.Store.Backend
	}
	if fileConfig.Store.Dir != "" {
		config.Store.Dir = fileConfig.Store.Dir
	}
	if fileConfig.Store.Extension != "" {
		config.Store.Extension = fileConfig.Store.Extension
	}
	if fileConfig.Store.Watch != nil {
		config.Store.Watch = *fileConfig.Store.Watch
	}
	if fileConfig.Store.Redis.Addr != "" {
		config.Store.RedisAddr = fileConfig.Store.Redis.Addr
	}
	config.Store.RedisPassword = fileConfig.Store.Redis.Password
	config.Store.RedisDB = fileConfig.Store.Redis.DB
	if fileConfig.Store.Redis.Prefix != "" {
		config.Store.RedisPrefix = fileConfig.Store.Redis.Prefix
	}

	// Proxy settings
	if fileConfig.Proxy.URL != "" {
		proxyURL, err := url.Parse(fileConfig.Proxy.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		config.ProxyURL = proxyURL
		config.InsecureProxy = fileConfig.Proxy.InsecureVerify
	}

	// TLS settings
	config.TLS.Enabled = fileConfig.TLS.Enabled
	if fileConfig.TLS.CertFile != "" {
		config.TLS.CertFile = fileConfig.TLS.CertFile
	}
	if fileConfig.TLS.KeyFile != "" {
		config.TLS.KeyFile = fileConfig.TLS.KeyFile
	}
	config.TLS.GenerateCert = fileConfig.TLS.GenerateCert

	// CORS settings
	config.CORS.Enabled = fileConfig.CORS.Enabled
	if fileConfig.CORS.AllowOrigins != "" {
		config.CORS.AllowOrigins = fileConfig.CORS.AllowOrigins
	}
	if fileConfig.CORS.AllowMethods != "" {
		config.CORS.AllowMethods = fileConfig.CORS.AllowMethods
	}
	if fileConfig.CORS.AllowHeaders != "" {
		config.CORS.AllowHeaders = fileConfig.CORS.AllowHeaders
	}
	config.CORS.AllowCredentials = fileConfig.CORS.AllowCredentials
	if fileConfig.CORS.MaxAge != 0 {
		config.CORS.MaxAge = fileConfig.CORS.MaxAge
	}

	// Log settings
	if fileConfig.Log.File != "" {
		config.Log.FilePath = fileConfig.Log.File
	}
	config.Log.Production = fileConfig.Log.Production
	config.Log.Debug = fileConfig.Log.Debug

	// Tracing settings
	config.Tracing.Enabled = fileConfig.Tracing.Enabled
	if fileConfig.Tracing.Endpoint != "" {
		config.Tracing.Endpoint = fileConfig.Tracing.Endpoint
	}

	return config, nil
}

// Validate checks settings that would otherwise fail at first use
func (c *Config) Validate() error {
	if err := draft.ValidateID(c.Sync.DocumentID); err != nil {
		return fmt.Errorf("invalid sync.document_id: %w", err)
	}
	if c.Sync.ChunkSize <= 0 {
		return fmt.Errorf("invalid sync.chunk_size %d: %w", c.Sync.ChunkSize, chunk.ErrInvalidChunkSize)
	}
	switch c.Store.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// SaveDefaultConfig saves a default configuration file
func SaveDefaultConfig(filePath string) error {
	def := Default()
	var fileConfig FileConfig

	fileConfig.Server.Port = def.Port

	fileConfig.Sync.Path = def.Sync.Path
	fileConfig.Sync.DocumentID = def.Sync.DocumentID
	fileConfig.Sync.ChunkSize = def.Sync.ChunkSize
	fileConfig.Sync.MaxMessageSize = def.Sync.MaxMessageSize

	fileConfig.Store.Backend = def.Store.Backend
	fileConfig.Store.Dir = def.Store.Dir
	fileConfig.Store.Extension = def.Store.Extension
	fileConfig.Store.Watch = &def.Store.Watch
	fileConfig.Store.Redis.Addr = def.Store.RedisAddr
	fileConfig.Store.Redis.Prefix = def.Store.RedisPrefix

	fileConfig.TLS.CertFile = def.TLS.CertFile
	fileConfig.TLS.KeyFile = def.TLS.KeyFile

	fileConfig.CORS.AllowOrigins = def.CORS.AllowOrigins
	fileConfig.CORS.AllowMethods = def.CORS.AllowMethods
	fileConfig.CORS.AllowHeaders = def.CORS.AllowHeaders
	fileConfig.CORS.MaxAge = def.CORS.MaxAge

	fileConfig.Log.File = def.Log.FilePath
	fileConfig.Tracing.Endpoint = def.Tracing.Endpoint

	data, err := yaml.Marshal(fileConfig)
	if err != nil {
		return fmt.Errorf("error creating default config: %w", err)
	}

	yamlWithComments := "# Draft sync server configuration\n" +
		"# chunk_size must match the client; changing it breaks the protocol\n\n" +
		string(data)

	if err := os.WriteFile(filePath, []byte(yamlWithComments), 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
