package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, dataDir string) *viper.Viper {
	t.Helper()
	v := viper.New()
	Configure(v, dataDir)
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_URL", "")
	t.Setenv("OPENAI_API_KEY", "")

	s, err := Load(newViper(t, "/tmp/forge"))
	require.NoError(t, err)
	assert.Equal(t, "", s.APIURL)
	assert.Equal(t, "auto", s.Vendor)
	assert.Equal(t, "/tmp/forge", s.DataDir)
	assert.Equal(t, time.Duration(0), s.Timeout)
	assert.Empty(t, s.ExcludeNames)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CODEFORGE_API_URL", "http://localhost:11434/v1")
	t.Setenv("CODEFORGE_REASONING_MODEL", "qwen2.5-coder:32b")
	t.Setenv("CODEFORGE_EXCLUDE_NAMES", "vendor, build")
	t.Setenv("CODEFORGE_TIMEOUT", "90s")

	s, err := Load(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1", s.APIURL)
	assert.Equal(t, "qwen2.5-coder:32b", s.ReasoningModel)
	assert.Equal(t, []string{"vendor", "build"}, s.ExcludeNames)
	assert.Equal(t, 90*time.Second, s.Timeout)

	ep := s.Endpoint()
	assert.Equal(t, s.APIURL, ep.BaseURL)
	assert.Equal(t, 90*time.Second, ep.Timeout)

	assert.True(t, s.Policy().SkipName("vendor"))
	assert.True(t, s.Policy().SkipName("node_modules"), "defaults are kept")
}

func TestLoadOpenAIFallback(t *testing.T) {
	t.Setenv("OPENAI_URL", "https://api.openai.com/v1")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	s, err := Load(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", s.APIURL)
	assert.Equal(t, "sk-fallback", s.APIKey)

	// An explicit setting wins over the fallback
	t.Setenv("CODEFORGE_API_URL", "http://vllm.lab/v1")
	s, err = Load(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "http://vllm.lab/v1", s.APIURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://ollama.lab/v1
regular_model: llama3
exclude_extensions: [".lock", "pdf"]
extra:
  theme: dark
`), 0644))

	v := newViper(t, "")
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "llama3", s.RegularModel)
	assert.Equal(t, map[string]string{"theme": "dark"}, s.Extra)
	assert.True(t, s.Policy().SkipFile("Cargo.lock"))
	assert.True(t, s.Policy().SkipFile("manual.PDF"))
}

func TestSetValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SetValue(path, "api_url", "http://vllm.lab/v1"))
	require.NoError(t, SetValue(path, "REASONING_MODEL", "o3-mini"))
	require.NoError(t, SetValue(path, "exclude_names", "tmp, coverage"))
	require.NoError(t, SetValue(path, "extra.editor", "vim"))

	assert.ErrorIs(t, SetValue(path, "colour", "blue"), ErrUnknownKey)
	assert.Error(t, SetValue(path, "timeout", "soon"))

	v := newViper(t, "")
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	s, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://vllm.lab/v1", s.APIURL)
	assert.Equal(t, "o3-mini", s.ReasoningModel)
	assert.Equal(t, []string{"tmp", "coverage"}, s.ExcludeNames)
	assert.Equal(t, "vim", s.Extra["editor"])
}

func TestExtraIsBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	for i := 0; i < MaxExtra; i++ {
		require.NoError(t, SetValue(path, fmt.Sprintf("extra.k%d", i), "v"))
	}
	assert.ErrorIs(t, SetValue(path, "extra.overflow", "v"), ErrTooManyExtra)
	// Overwriting an existing key is still allowed
	assert.NoError(t, SetValue(path, "extra.k0", "changed"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("CODEFORGE_REGULAR_MODEL=from-dotenv\n"), 0644))
	t.Setenv("CODEFORGE_REGULAR_MODEL", "")
	os.Unsetenv("CODEFORGE_REGULAR_MODEL")

	require.NoError(t, LoadDotEnv(envPath))
	s, err := Load(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", s.RegularModel)
}

func TestRedacted(t *testing.T) {
	s := &Settings{APIKey: "sk-1234567890abcdef", TelegramAPIKey: "short"}
	r := s.Redacted()
	assert.Equal(t, "sk-1****cdef", r[KeyAPIKey])
	assert.Equal(t, "****", r[KeyTelegramAPIKey])
}
