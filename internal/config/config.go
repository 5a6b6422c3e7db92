package config

import (
	"flag"
	"log"
	"net/url"
	"os"
)

// TLSConfig holds TLS configuration options
type TLSConfig struct {
	Enabled      bool
	CertFile     string
	KeyFile      string
	GenerateCert bool
}

// CORSConfig holds CORS configuration options
type CORSConfig struct {
	Enabled          bool
	AllowOrigins     string
	AllowMethods     string
	AllowHeaders     string
	AllowCredentials bool
	MaxAge           int
}

// SyncConfig holds the sync protocol options
type SyncConfig struct {
	Path           string
	DocumentID     string
	ChunkSize      int
	MaxMessageSize int64
}

// StoreConfig selects and configures the draft store backend
type StoreConfig struct {
	Backend       string // "file", "redis" or "memory"
	Dir           string
	Extension     string
	Watch         bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// LogConfig holds logging options
type LogConfig struct {
	FilePath   string
	Production bool
	Debug      bool
}

// TracingConfig holds OpenTelemetry options
type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

// Config holds the application configuration
type Config struct {
	Port          int
	ProxyURL      *url.URL
	InsecureProxy bool
	Sync          SyncConfig
	Store         StoreConfig
	TLS           TLSConfig
	CORS          CORSConfig
	Log           LogConfig
	Tracing       TracingConfig
}

// Store backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ParseFlags parses command line flags and merges them with the config file and environment
func ParseFlags() (*Config, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	configFlag := fs.String("config", "config.yml", "Path to configuration file")
	generateConfigFlag := fs.Bool("generate-config", false, "Generate a default configuration file")
	configFilePathFlag := fs.String("config-path", "config.yml", "Path where config file should be generated")
	envFileFlag := fs.String("env", ".env", "Path to an optional .env file")

	// Simple flags for overriding config file
	dirFlag := fs.String("d", "", "Directory holding draft files (overrides config)")
	portFlag := fs.Int("p", 0, "Port to listen on (overrides config)")
	docFlag := fs.String("doc", "", "Document identifier to sync (overrides config)")
	backendFlag := fs.String("store", "", "Draft store backend: file, redis or memory (overrides config)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *generateConfigFlag {
		log.Printf("Generating default configuration file at %s", *configFilePathFlag)
		if err := SaveDefaultConfig(*configFilePathFlag); err != nil {
			return nil, err
		}
		log.Printf("Configuration file generated successfully")
	}

	config, err := LoadConfig(*configFlag)
	if err != nil {
		log.Printf("Warning: Could not load config file: %v", err)
		log.Printf("Using default configuration")
		config, _ = LoadConfig("")
	}

	if err := applyEnv(config, *envFileFlag); err != nil {
		return nil, err
	}

	if *dirFlag != "" {
		config.Store.Dir = *dirFlag
	}
	if *portFlag != 0 {
		config.Port = *portFlag
	}
	if *docFlag != "" {
		config.Sync.DocumentID = *docFlag
	}
	if *backendFlag != "" {
		config.Store.Backend = *backendFlag
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
