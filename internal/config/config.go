package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
)

const (
	DefaultSizeCeiling          int64 = 2_000_000_000
	DefaultChunkSize                  = 512 * 1024
	DefaultMaxConcurrentFetches       = 3
	DefaultProbeTimeout               = 10 * time.Second
	DefaultResponseTimeout            = 30 * time.Second
	DefaultTransferTimeout            = 30 * time.Minute
	DefaultMetadataTimeout            = 60 * time.Second
	DefaultExtractorTimeout           = 30 * time.Minute
	DefaultUploadTimeout              = 10 * time.Minute
	DefaultSessionTTL                 = 15 * time.Minute
	DefaultRateLimitPerMinute         = 10

	BackendYTDLP   = "ytdlp"
	BackendYouTube = "youtube"
)

type Config struct {
	BotToken            string
	TelegramAPIEndpoint string
	Lang                string
	LogLevel            string
	Proxy               string
	ProxyDomains        string
	ExtraVideoHosts     []string
	HistoryDBPath       string
	RateLimitPerMinute  int

	FetchSettings     FetchConfig
	ExtractorSettings ExtractorConfig
	SessionSettings   SessionConfig
}

// FetchConfig bounds every transfer.
type FetchConfig struct {
	SizeCeiling          int64
	ChunkSize            int
	MaxConcurrentFetches int
	ProbeTimeout         time.Duration
	ResponseTimeout      time.Duration
	TransferTimeout      time.Duration
	UploadTimeout        time.Duration
	TempDir              string
}

type ExtractorConfig struct {
	Backend         string
	YTDLPPath       string
	MetadataTimeout time.Duration
	DownloadTimeout time.Duration
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
		logutils.Log.WithField("key", key).Warnf("Ignoring non-numeric value %q", value)
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
		logutils.Log.WithField("key", key).Warnf("Ignoring non-numeric value %q", value)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
		logutils.Log.WithField("key", key).Warnf("Ignoring invalid duration %q", value)
	}
	return defaultValue
}

func getEnvList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// NewConfig loads the configuration from the environment and validates it.
// BOT_TOKEN is only checked by ValidateForBot so the CLI tools run without it.
func NewConfig() (*Config, error) {
	ttl := getEnvDuration("SESSION_TTL", DefaultSessionTTL)

	config := &Config{
		BotToken:            getEnv("BOT_TOKEN", ""),
		TelegramAPIEndpoint: getEnv("TELEGRAM_API_ENDPOINT", ""),
		Lang:                getEnv("LANG", "en"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Proxy:               getEnv("PROXY", ""),
		ProxyDomains:        getEnv("PROXY_DOMAINS", ""),
		ExtraVideoHosts:     getEnvList("EXTRA_VIDEO_HOSTS"),
		HistoryDBPath:       getEnv("HISTORY_DB_PATH", ""),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", DefaultRateLimitPerMinute),

		FetchSettings: FetchConfig{
			SizeCeiling:          getEnvInt64("MAX_FILE_SIZE", DefaultSizeCeiling),
			ChunkSize:            getEnvInt("CHUNK_SIZE", DefaultChunkSize),
			MaxConcurrentFetches: getEnvInt("MAX_CONCURRENT_FETCHES", DefaultMaxConcurrentFetches),
			ProbeTimeout:         getEnvDuration("PROBE_TIMEOUT", DefaultProbeTimeout),
			ResponseTimeout:      getEnvDuration("RESPONSE_TIMEOUT", DefaultResponseTimeout),
			TransferTimeout:      getEnvDuration("TRANSFER_TIMEOUT", DefaultTransferTimeout),
			UploadTimeout:        getEnvDuration("UPLOAD_TIMEOUT", DefaultUploadTimeout),
			TempDir:              getEnv("TEMP_DIR", os.TempDir()),
		},

		ExtractorSettings: ExtractorConfig{
			Backend:         strings.ToLower(getEnv("EXTRACTOR_BACKEND", BackendYTDLP)),
			YTDLPPath:       getEnv("YTDLP_PATH", "yt-dlp"),
			MetadataTimeout: getEnvDuration("METADATA_TIMEOUT", DefaultMetadataTimeout),
			DownloadTimeout: getEnvDuration("EXTRACTOR_TIMEOUT", DefaultExtractorTimeout),
		},

		SessionSettings: SessionConfig{
			TTL:             ttl,
			CleanupInterval: cleanupIntervalFor(ttl),
		},
	}

	if err := config.validate(); err != nil {
		logutils.Log.WithError(err).Error("Configuration validation failed")
		return nil, tmserrors.WrapDomainError(err, tmserrors.ErrorTypeConfig, "invalid", "configuration validation failed")
	}

	logutils.Log.WithFields(map[string]any{
		"size_ceiling": config.FetchSettings.SizeCeiling,
		"chunk_size":   config.FetchSettings.ChunkSize,
		"workers":      config.FetchSettings.MaxConcurrentFetches,
		"backend":      config.ExtractorSettings.Backend,
		"history":      config.HistoryDBPath != "",
	}).Info("Configuration loaded successfully")
	return config, nil
}

func cleanupIntervalFor(ttl time.Duration) time.Duration {
	const minInterval = time.Second
	interval := ttl / 2
	if interval < minInterval {
		return minInterval
	}
	return interval
}

func (c *Config) GetFetchSettings() FetchConfig {
	return c.FetchSettings
}

func (c *Config) GetExtractorSettings() ExtractorConfig {
	return c.ExtractorSettings
}

func (c *Config) GetSessionSettings() SessionConfig {
	return c.SessionSettings
}

// ShouldUseProxy reports whether requests to rawURL go through PROXY.
// An empty PROXY_DOMAINS routes every host through the proxy.
func (c *Config) ShouldUseProxy(rawURL string) bool {
	if c.Proxy == "" {
		return false
	}
	if c.ProxyDomains == "" {
		return true
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	hostname := strings.ToLower(parsedURL.Hostname())
	for _, domain := range strings.Split(c.ProxyDomains, ",") {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" && (hostname == domain || strings.HasSuffix(hostname, "."+domain)) {
			return true
		}
	}
	return false
}
