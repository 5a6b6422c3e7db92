package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const envPrefix = "DRAFTSYNC_"

// applyEnv loads an optional .env file and applies DRAFTSYNC_* variables on top of config.
// Variables already set in the process environment win over the file.
func applyEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	setString(&config.Sync.DocumentID, "DOCUMENT_ID")
	setString(&config.Sync.Path, "SYNC_PATH")
	setString(&config.Store.Backend, "STORE_BACKEND")
	setString(&config.Store.Dir, "STORE_DIR")
	setString(&config.Store.RedisAddr, "REDIS_ADDR")
	setString(&config.Store.RedisPassword, "REDIS_PASSWORD")
	setString(&config.Store.RedisPrefix, "REDIS_PREFIX")
	setString(&config.Log.FilePath, "LOG_FILE")
	setString(&config.Tracing.Endpoint, "OTEL_ENDPOINT")

	if err := setInt(&config.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&config.Sync.ChunkSize, "CHUNK_SIZE"); err != nil {
		return err
	}
	if err := setInt(&config.Store.RedisDB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setBool(&config.Log.Production, "LOG_PRODUCTION"); err != nil {
		return err
	}
	if err := setBool(&config.Tracing.Enabled, "OTEL_ENABLED"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(envPrefix + key); ok && value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	value, ok := os.LookupEnv(envPrefix + key)
	if !ok || value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	value, ok := os.LookupEnv(envPrefix + key)
	if !ok || value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = b
	return nil
}
