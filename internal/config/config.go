// Package config loads service settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/movierec/config.yaml",
}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Data      DataConfig      `koanf:"data"`
	Database  DatabaseConfig  `koanf:"database"`
	Recommend RecommendConfig `koanf:"recommend"`
	TMDb      TMDbConfig      `koanf:"tmdb"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// RateLimit is requests per minute per client on /api. Zero disables it.
	RateLimit int `koanf:"rate_limit" validate:"min=0"`
}

type DataConfig struct {
	Source         string `koanf:"source" validate:"oneof=files database"`
	Dir            string `koanf:"dir"`
	MoviesFile     string `koanf:"movies_file" validate:"required"`
	SimilarityFile string `koanf:"similarity_file" validate:"required"`
	PostersFile    string `koanf:"posters_file"`
}

type DatabaseConfig struct {
	Type           string `koanf:"type" validate:"oneof=sqlite postgres"`
	Path           string `koanf:"path"`
	Host           string `koanf:"host"`
	Port           int    `koanf:"port" validate:"min=0,max=65535"`
	User           string `koanf:"user"`
	Password       string `koanf:"password"`
	Name           string `koanf:"name"`
	MigrationsPath string `koanf:"migrations_path"`
}

type RecommendConfig struct {
	K       int           `koanf:"k" validate:"min=1,max=100"`
	Workers int           `koanf:"workers" validate:"min=1,max=64"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

type TMDbConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	ImageBaseURL      string        `koanf:"image_base_url" validate:"required,url"`
	PosterSize        string        `koanf:"poster_size" validate:"required"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"min=0"`
	Retries           int           `koanf:"retries" validate:"min=0,max=3"`
	// AccessToken is read from TMDB_ACCESS_TOKEN only, never from files.
	AccessToken string `koanf:"-"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			RequestTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
		},
		Data: DataConfig{
			Source:         "files",
			Dir:            "./data",
			MoviesFile:     "movies.json",
			SimilarityFile: "similarity.json",
			PostersFile:    "posters.json",
		},
		Database: DatabaseConfig{
			Type:           "sqlite",
			Path:           "./movierec.db",
			Host:           "localhost",
			Port:           5432,
			User:           "movierec",
			Name:           "movierec",
			MigrationsPath: "./migrations",
		},
		Recommend: RecommendConfig{
			K:       5,
			Workers: 5,
			Timeout: 10 * time.Second,
		},
		TMDb: TMDbConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p",
			PosterSize:        "w500",
			Timeout:           5 * time.Second,
			RequestsPerSecond: 20,
			Retries:           1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads .env (if present), defaults, the config file and the
// environment, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.TMDb.AccessToken = strings.TrimSpace(os.Getenv("TMDB_ACCESS_TOKEN"))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

var envMappings = map[string]string{
	"port":                     "server.port",
	"request_timeout":          "server.request_timeout",
	"shutdown_timeout":         "server.shutdown_timeout",
	"api_rate_limit":           "server.rate_limit",
	"data_source":              "data.source",
	"data_dir":                 "data.dir",
	"movies_file":              "data.movies_file",
	"similarity_file":          "data.similarity_file",
	"posters_file":             "data.posters_file",
	"db_type":                  "database.type",
	"db_path":                  "database.path",
	"db_host":                  "database.host",
	"db_port":                  "database.port",
	"db_user":                  "database.user",
	"db_password":              "database.password",
	"db_name":                  "database.name",
	"migrations_path":          "database.migrations_path",
	"recommend_k":              "recommend.k",
	"recommend_workers":        "recommend.workers",
	"recommend_timeout":        "recommend.timeout",
	"tmdb_base_url":            "tmdb.base_url",
	"tmdb_image_base_url":      "tmdb.image_base_url",
	"tmdb_poster_size":         "tmdb.poster_size",
	"tmdb_timeout":             "tmdb.timeout",
	"tmdb_requests_per_second": "tmdb.requests_per_second",
	"tmdb_retries":             "tmdb.retries",
	"log_level":                "log.level",
	"log_format":               "log.format",
}

// envTransformFunc maps environment variables to config paths, e.g.
// DB_PATH -> database.path. Unknown variables are dropped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

var validate = validator.New()

// Validate checks field constraints and the settings that depend on each
// other.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	if c.Data.Source == "files" && c.Data.Dir == "" {
		return fmt.Errorf("DATA_DIR is required when DATA_SOURCE=files")
	}

	if c.Data.Source == "database" {
		switch c.Database.Type {
		case "sqlite":
			if c.Database.Path == "" {
				return fmt.Errorf("DB_PATH is required for sqlite")
			}
		case "postgres":
			if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
				return fmt.Errorf("DB_HOST, DB_NAME and DB_USER are required for postgres")
			}
		}
	}

	return nil
}

// EnrichmentEnabled reports whether a TMDb credential is configured.
func (c *Config) EnrichmentEnabled() bool {
	return c.TMDb.AccessToken != ""
}
