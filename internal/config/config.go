// Package config loads codeforge settings through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	forgectx "github.com/tara-vision/codeforge/internal/context"
	"github.com/tara-vision/codeforge/internal/gateway"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. CODEFORGE_API_URL
	EnvPrefix = "CODEFORGE"

	// DirName is the per-user directory holding config.yaml and the JSON stores
	DirName = ".codeforge"

	// MaxExtra bounds the free-form Extra map
	MaxExtra = 32
)

// Setting keys
const (
	KeyAPIURL            = "api_url"
	KeyAPIKey            = "api_key"
	KeyVendor            = "vendor"
	KeyReasoningModel    = "reasoning_model"
	KeyRegularModel      = "regular_model"
	KeyTelegramAPIKey    = "telegram_api_key"
	KeyTelegramChatID    = "telegram_chat_id"
	KeyDataDir           = "data_dir"
	KeyExcludeNames      = "exclude_names"
	KeyExcludeExtensions = "exclude_extensions"
	KeyTimeout           = "timeout"
	KeyExtra             = "extra"
)

var (
	// ErrUnknownKey is returned when setting a key that is not part of Settings
	ErrUnknownKey = errors.New("unknown setting")

	// ErrTooManyExtra is returned when Extra would exceed MaxExtra entries
	ErrTooManyExtra = fmt.Errorf("extra settings are limited to %d keys", MaxExtra)
)

// Settings is the complete, fixed set of options
type Settings struct {
	APIURL            string            `mapstructure:"api_url"`
	APIKey            string            `mapstructure:"api_key"`
	Vendor            string            `mapstructure:"vendor"`
	ReasoningModel    string            `mapstructure:"reasoning_model"`
	RegularModel      string            `mapstructure:"regular_model"`
	TelegramAPIKey    string            `mapstructure:"telegram_api_key"`
	TelegramChatID    string            `mapstructure:"telegram_chat_id"`
	DataDir           string            `mapstructure:"data_dir"`
	ExcludeNames      []string          `mapstructure:"exclude_names"`
	ExcludeExtensions []string          `mapstructure:"exclude_extensions"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	Extra             map[string]string `mapstructure:"extra"`
}

// scalarKeys can be set from the command line
var scalarKeys = []string{
	KeyAPIURL, KeyAPIKey, KeyVendor, KeyReasoningModel, KeyRegularModel,
	KeyTelegramAPIKey, KeyTelegramChatID, KeyDataDir, KeyTimeout,
}

var listKeys = []string{KeyExcludeNames, KeyExcludeExtensions}

// Keys lists every settable key, extra.<name> aside
func Keys() []string {
	keys := append(append([]string{}, scalarKeys...), listKeys...)
	sort.Strings(keys)
	return keys
}

// DefaultDir returns $HOME/.codeforge
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Configure sets defaults and environment handling on v. Every key gets a default so
// AutomaticEnv overrides are visible to Unmarshal.
func Configure(v *viper.Viper, dataDir string) {
	for _, k := range scalarKeys {
		v.SetDefault(k, "")
	}
	for _, k := range listKeys {
		v.SetDefault(k, []string{})
	}
	v.SetDefault(KeyVendor, "auto")
	v.SetDefault(KeyDataDir, dataDir)
	v.SetDefault(KeyTimeout, "0s")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; existing variables are not overridden.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load decodes v into Settings and applies the OPENAI_URL / OPENAI_API_KEY fallbacks
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if s.APIURL == "" {
		s.APIURL = os.Getenv("OPENAI_URL")
	}
	if s.APIKey == "" {
		s.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	s.APIURL = strings.TrimSpace(s.APIURL)
	s.ExcludeNames = splitList(s.ExcludeNames)
	s.ExcludeExtensions = splitList(s.ExcludeExtensions)

	if len(s.Extra) > MaxExtra {
		return nil, fmt.Errorf("%w (found %d)", ErrTooManyExtra, len(s.Extra))
	}
	return &s, nil
}

// Endpoint returns the gateway configuration
func (s *Settings) Endpoint() gateway.Endpoint {
	return gateway.Endpoint{
		BaseURL: s.APIURL,
		APIKey:  s.APIKey,
		Vendor:  s.Vendor,
		Timeout: s.Timeout,
	}
}

// Policy returns the default exclusion policy extended with configured names and extensions
func (s *Settings) Policy() *forgectx.Policy {
	return forgectx.DefaultPolicy().Merge(s.ExcludeNames, s.ExcludeExtensions)
}

// Redacted returns the settings for display with secrets masked
func (s *Settings) Redacted() map[string]any {
	return map[string]any{
		KeyAPIURL:            s.APIURL,
		KeyAPIKey:            mask(s.APIKey),
		KeyVendor:            s.Vendor,
		KeyReasoningModel:    s.ReasoningModel,
		KeyRegularModel:      s.RegularModel,
		KeyTelegramAPIKey:    mask(s.TelegramAPIKey),
		KeyTelegramChatID:    s.TelegramChatID,
		KeyDataDir:           s.DataDir,
		KeyExcludeNames:      s.ExcludeNames,
		KeyExcludeExtensions: s.ExcludeExtensions,
		KeyTimeout:           s.Timeout.String(),
		KeyExtra:             s.Extra,
	}
}

// SetValue writes one key into the config file at path, creating the file if needed.
// Only the file's own contents are rewritten; environment overrides never leak into it.
func SetValue(path, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))

	fv := viper.New()
	fv.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := fv.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	switch {
	case slices.Contains(scalarKeys, key):
		if key == KeyTimeout && value != "" {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout %q: %w", value, err)
			}
		}
		fv.Set(key, value)
	case slices.Contains(listKeys, key):
		fv.Set(key, splitList([]string{value}))
	case strings.HasPrefix(key, KeyExtra+"."):
		name := strings.TrimPrefix(key, KeyExtra+".")
		if name == "" {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		extra := fv.GetStringMapString(KeyExtra)
		if _, exists := extra[name]; !exists && len(extra) >= MaxExtra {
			return ErrTooManyExtra
		}
		extra[name] = value
		fv.Set(KeyExtra, extra)
	default:
		return fmt.Errorf("%w: %s (valid keys: %s, extra.<name>)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := fv.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// splitList flattens comma-separated entries and drops blanks
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}
