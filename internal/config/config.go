package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL         = "http://127.0.0.1:7433"
	DefaultLogLevel       = "debug"
	DefaultDataDirName    = ".morphire"
	DefaultStorageBackend = "sqlite"

	DefaultWebhookQueueSize     = 64
	DefaultWebhookRatePerSecond = 1.0
	DefaultPinningTimeout       = "60s"

	DefaultDeliveryMaxUploadBytes  int64 = 50 * 1024 * 1024
	DefaultDeliveryMultipartMemory int64 = 8 * 1024 * 1024

	configFileName  = ".morphire.toml"
	configDirEnvKey = "MORPHIRE_CONFIG_DIR"
)

// StorageConfig selects the document backend.
type StorageConfig struct {
	Backend string `toml:"backend"`
}

// WebhookConfig configures outbound notifications.
type WebhookConfig struct {
	URL           string  `toml:"url"`
	QueueSize     int     `toml:"queue_size"`
	RatePerSecond float64 `toml:"rate_per_second"`
}

// PinningConfig holds delegated content addressing credentials. Both key and
// secret must be set for delegation to be used.
type PinningConfig struct {
	APIKey  string `toml:"api_key"`
	Secret  string `toml:"secret"`
	Timeout string `toml:"timeout"`
}

// DeliveryConfig bounds uploaded deliverables.
type DeliveryConfig struct {
	MaxUploadBytes     int64 `toml:"max_upload_bytes"`
	MultipartMaxMemory int64 `toml:"multipart_max_memory"`
}

// AccessConfig holds the optional passphrase gate.
type AccessConfig struct {
	PassphraseHash string `toml:"passphrase_hash"`
}

// Config defines runtime configuration for morphire.
type Config struct {
	APIURL     string         `toml:"api_url"`
	DataDir    string         `toml:"data_dir"`
	LogLevel   string         `toml:"log_level"`
	Storage    StorageConfig  `toml:"storage"`
	Webhook    WebhookConfig  `toml:"webhook"`
	Pinning    PinningConfig  `toml:"pinning"`
	Deliveries DeliveryConfig `toml:"deliveries"`
	Access     AccessConfig   `toml:"access"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		DataDir:  "",
		LogLevel: DefaultLogLevel,
		Storage:  StorageConfig{Backend: DefaultStorageBackend},
		Webhook: WebhookConfig{
			QueueSize:     DefaultWebhookQueueSize,
			RatePerSecond: DefaultWebhookRatePerSecond,
		},
		Pinning: PinningConfig{Timeout: DefaultPinningTimeout},
		Deliveries: DeliveryConfig{
			MaxUploadBytes:     DefaultDeliveryMaxUploadBytes,
			MultipartMaxMemory: DefaultDeliveryMultipartMemory,
		},
	}
}

// PinningTimeout parses pinning.timeout, falling back to the default.
func (c *Config) PinningTimeout() time.Duration {
	if d, err := parseDuration(c.Pinning.Timeout); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultPinningTimeout)
	return d
}

func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

var allowedKeys = []string{
	"api_url",
	"data_dir",
	"log_level",
	"storage.backend",
	"webhook.url",
	"webhook.queue_size",
	"webhook.rate_per_second",
	"pinning.api_key",
	"pinning.secret",
	"pinning.timeout",
	"deliveries.max_upload_bytes",
	"deliveries.multipart_max_memory",
	"access.passphrase_hash",
}

// secretKeys are masked by Get.
var secretKeys = map[string]bool{
	"pinning.secret":         true,
	"access.passphrase_hash": true,
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key. Secrets are reported only as set
// or unset.
func (c *Config) Get(key string) (string, error) {
	var value string
	switch key {
	case "api_url":
		value = c.APIURL
	case "data_dir":
		value = c.DataDir
	case "log_level":
		value = c.LogLevel
	case "storage.backend":
		value = c.Storage.Backend
	case "webhook.url":
		value = c.Webhook.URL
	case "webhook.queue_size":
		value = strconv.Itoa(c.Webhook.QueueSize)
	case "webhook.rate_per_second":
		value = strconv.FormatFloat(c.Webhook.RatePerSecond, 'f', -1, 64)
	case "pinning.api_key":
		value = c.Pinning.APIKey
	case "pinning.secret":
		value = c.Pinning.Secret
	case "pinning.timeout":
		value = c.Pinning.Timeout
	case "deliveries.max_upload_bytes":
		value = strconv.FormatInt(c.Deliveries.MaxUploadBytes, 10)
	case "deliveries.multipart_max_memory":
		value = strconv.FormatInt(c.Deliveries.MultipartMaxMemory, 10)
	case "access.passphrase_hash":
		value = c.Access.PassphraseHash
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
	if secretKeys[key] {
		if value == "" {
			return "(unset)", nil
		}
		return "(set)", nil
	}
	return value, nil
}

// GlobalPath returns the path to the config file.
func GlobalPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads the config file and applies env overrides. It is called once
// at process start.
func Load() (*Config, error) {
	cfg := Default()

	path, err := GlobalPath()
	if err == nil {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)
	cfg.normalize()
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"MORPHIRE_API_URL", &cfg.APIURL},
		{"MORPHIRE_DATA_DIR", &cfg.DataDir},
		{"MORPHIRE_STORAGE_BACKEND", &cfg.Storage.Backend},
		{"MORPHIRE_DISCORD_WEBHOOK", &cfg.Webhook.URL},
		{"PINATA_API_KEY", &cfg.Pinning.APIKey},
		{"PINATA_SECRET", &cfg.Pinning.Secret},
		{"MORPHIRE_ACCESS_HASH", &cfg.Access.PassphraseHash},
	}
	for _, o := range overrides {
		if value := strings.TrimSpace(os.Getenv(o.env)); value != "" {
			*o.target = value
		}
	}
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.Storage.Backend) == "" {
		c.Storage.Backend = DefaultStorageBackend
	}
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, DefaultDataDirName)
		}
	}
	if c.Webhook.QueueSize <= 0 {
		c.Webhook.QueueSize = DefaultWebhookQueueSize
	}
	if c.Webhook.RatePerSecond <= 0 {
		c.Webhook.RatePerSecond = DefaultWebhookRatePerSecond
	}
	if strings.TrimSpace(c.Pinning.Timeout) == "" {
		c.Pinning.Timeout = DefaultPinningTimeout
	}
	if c.Deliveries.MaxUploadBytes <= 0 {
		c.Deliveries.MaxUploadBytes = DefaultDeliveryMaxUploadBytes
	}
	if c.Deliveries.MultipartMaxMemory <= 0 {
		c.Deliveries.MultipartMaxMemory = DefaultDeliveryMultipartMemory
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "deliveries.max_upload_bytes", "deliveries.multipart_max_memory":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "webhook.queue_size":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "webhook.rate_per_second":
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive number", key)
		}
		return parsed, nil
	case "pinning.timeout":
		d, err := parseDuration(value)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration", key)
		}
		return d.String(), nil
	case "storage.backend":
		lower := strings.ToLower(value)
		if lower != "sqlite" && lower != "file" {
			return nil, fmt.Errorf("%s must be sqlite or file", key)
		}
		return lower, nil
	default:
		return value, nil
	}
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}
