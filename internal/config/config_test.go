package config

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "http://localhost:8080", cfg.StudyAPI.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.StudyAPI.Timeout)
	assert.Equal(t, DefaultPaths(), cfg.StudyAPI.Paths)
	assert.Equal(t, DefaultMaxUploadBytes, cfg.Upload.MaxBytes)
	assert.Equal(t, []string{"application/pdf"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, 24*time.Hour, cfg.Redis.CredentialTTL)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "default", cfg.CLI.Profile)
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("STUDY_API_BASE_URL", "https://study.example.test")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENV", "production")

	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, "https://study.example.test", cfg.StudyAPI.BaseURL)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "production", cfg.Logger.Env)
}

func TestFromViper_NonPositiveUploadCeilingFallsBack(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("upload.max_bytes", 0)

	cfg := fromViper(v)

	assert.Equal(t, DefaultMaxUploadBytes, cfg.Upload.MaxBytes)
}

func TestCLIConfig_StorePathOrDefault(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only steers os.UserConfigDir on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/quiz-config")

	assert.Equal(t, filepath.Join("/tmp/quiz-config", "study-quiz", "store.db"), CLIConfig{}.StorePathOrDefault())
	assert.Equal(t, "/var/lib/quiz.db", CLIConfig{StorePath: "/var/lib/quiz.db"}.StorePathOrDefault())
}
