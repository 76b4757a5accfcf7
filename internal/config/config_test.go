package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voicecart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.HealthPort)
	assert.True(t, cfg.Transports.HTTP.Enabled)
	assert.Equal(t, 50051, cfg.Transports.GRPC.Port)
	assert.Equal(t, "en-US", cfg.Voice.DefaultLanguage)
	assert.Equal(t, "none", cfg.Recognizer.Backend)
	assert.Equal(t, 30*time.Second, cfg.Recognizer.Whisper.Timeout)
	assert.Equal(t, "http://localhost:5000", cfg.Storefront.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Storefront.Timeout)
	assert.Equal(t, uint32(5), cfg.Storefront.Breaker.FailureThreshold)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
voice:
  default_language: ta-IN
recognizer:
  backend: whisper
  whisper:
    type: asr
    endpoint: http://whisper:9000/asr
    timeout: 5s
storefront:
  base_url: https://shop.example.com/api
  token: ${TEST_STOREFRONT_TOKEN}
cache:
  backend: redis
`)
	t.Setenv("TEST_STOREFRONT_TOKEN", "secret")
	t.Setenv("VOICECART_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ta-IN", cfg.Voice.DefaultLanguage)
	assert.Equal(t, "whisper", cfg.Recognizer.Backend)
	assert.Equal(t, "asr", cfg.Recognizer.Whisper.Type)
	assert.Equal(t, 5*time.Second, cfg.Recognizer.Whisper.Timeout)
	assert.Equal(t, "secret", cfg.Storefront.Token)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"language":   "voice:\n  default_language: fr-FR\n",
		"recognizer": "recognizer:\n  backend: openai\n",
		"cache":      "cache:\n  backend: memcached\n",
		"transports": "transports:\n  grpc:\n    enabled: false\n  http:\n    enabled: false\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("TEST_REF", "value")
	assert.Equal(t, "value", resolveEnvRef("${TEST_REF}"))
	assert.Equal(t, "${TEST_UNSET_REF}", resolveEnvRef("${TEST_UNSET_REF}"))
	assert.Equal(t, "plain", resolveEnvRef("plain"))
}
