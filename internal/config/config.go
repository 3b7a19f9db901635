package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultMaxUploadBytes is the canonical document ceiling (10 MB).
	DefaultMaxUploadBytes int64 = 10 * 1024 * 1024
	// DefaultBodyLimit leaves room for multipart framing around a maximal document.
	DefaultBodyLimit = 12 * 1024 * 1024
)

type Config struct {
	Server   ServerConfig
	StudyAPI StudyAPIConfig
	Upload   UploadConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	CLI      CLIConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

// StudyAPIConfig points at the remote Study API. Paths are owned by the
// deployment and may be overridden per environment.
type StudyAPIConfig struct {
	BaseURL string
	Timeout time.Duration
	Paths   StudyAPIPaths
}

type StudyAPIPaths struct {
	Upload       string
	Quiz         string
	Answers      string
	Explanations string
	CreateTopics string
	Topics       string
	Register     string
	Login        string
}

type UploadConfig struct {
	MaxBytes     int64
	AllowedTypes []string
}

type RedisConfig struct {
	Address       string
	Password      string
	DB            int
	CredentialTTL time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

type CLIConfig struct {
	Profile string
	// StorePath is the SQLite file holding the CLI credential. Empty means
	// StorePathOrDefault picks one under the user config directory.
	StorePath string
}

// StorePathOrDefault returns StorePath, or study-quiz/store.db under the user
// config directory, or under the working directory when that is unknown.
func (c CLIConfig) StorePathOrDefault() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "study-quiz", "store.db")
}

// DefaultPaths returns the endpoint layout of the reference study service.
func DefaultPaths() StudyAPIPaths {
	return StudyAPIPaths{
		Upload:       "/a/upload",
		Quiz:         "/r/quiz",
		Answers:      "/a/answer",
		Explanations: "/r/explanation",
		CreateTopics: "/a/topic",
		Topics:       "/r/topics",
		Register:     "/u/register",
		Login:        "/u/login",
	}
}

func setDefaults(v *viper.Viper) {
	paths := DefaultPaths()

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.body_limit", DefaultBodyLimit)

	v.SetDefault("study_api.base_url", "http://localhost:8080")
	v.SetDefault("study_api.timeout", 60)
	v.SetDefault("study_api.paths.upload", paths.Upload)
	v.SetDefault("study_api.paths.quiz", paths.Quiz)
	v.SetDefault("study_api.paths.answers", paths.Answers)
	v.SetDefault("study_api.paths.explanations", paths.Explanations)
	v.SetDefault("study_api.paths.create_topics", paths.CreateTopics)
	v.SetDefault("study_api.paths.topics", paths.Topics)
	v.SetDefault("study_api.paths.register", paths.Register)
	v.SetDefault("study_api.paths.login", paths.Login)

	v.SetDefault("upload.max_bytes", DefaultMaxUploadBytes)
	v.SetDefault("upload.allowed_types", []string{"application/pdf"})

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.credential_ttl", "24h")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")

	v.SetDefault("cli.profile", "default")
	v.SetDefault("cli.store_path", "")
}

// LoadConfig reads config.yaml (if present), then the environment.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	config := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: v.GetDuration("server.write_timeout") * time.Second,
			BodyLimit:    v.GetInt("server.body_limit"),
		},
		StudyAPI: StudyAPIConfig{
			BaseURL: v.GetString("study_api.base_url"),
			Timeout: v.GetDuration("study_api.timeout") * time.Second,
			Paths: StudyAPIPaths{
				Upload:       v.GetString("study_api.paths.upload"),
				Quiz:         v.GetString("study_api.paths.quiz"),
				Answers:      v.GetString("study_api.paths.answers"),
				Explanations: v.GetString("study_api.paths.explanations"),
				CreateTopics: v.GetString("study_api.paths.create_topics"),
				Topics:       v.GetString("study_api.paths.topics"),
				Register:     v.GetString("study_api.paths.register"),
				Login:        v.GetString("study_api.paths.login"),
			},
		},
		Upload: UploadConfig{
			MaxBytes:     v.GetInt64("upload.max_bytes"),
			AllowedTypes: v.GetStringSlice("upload.allowed_types"),
		},
		Redis: RedisConfig{
			Address:       v.GetString("redis.address"),
			Password:      v.GetString("redis.password"),
			DB:            v.GetInt("redis.db"),
			CredentialTTL: v.GetDuration("redis.credential_ttl"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		CLI: CLIConfig{
			Profile:   v.GetString("cli.profile"),
			StorePath: v.GetString("cli.store_path"),
		},
	}

	// Override with environment variables if set
	if baseURL := os.Getenv("STUDY_API_BASE_URL"); baseURL != "" {
		config.StudyAPI.BaseURL = baseURL
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = v.GetInt("server.port")
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if env := os.Getenv("ENV"); env != "" {
		config.Logger.Env = env
	}

	if config.Upload.MaxBytes <= 0 {
		config.Upload.MaxBytes = DefaultMaxUploadBytes
	}
	return config
}
