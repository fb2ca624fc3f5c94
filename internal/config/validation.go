package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
)

const minChunkSize = 4 * 1024

func (c *Config) validate() error {
	if err := c.validateFetchSettings(); err != nil {
		return err
	}
	if err := c.validateExtractorSettings(); err != nil {
		return err
	}
	if err := c.validateSessionSettings(); err != nil {
		return err
	}
	if err := c.validateProxy(); err != nil {
		return err
	}
	if c.RateLimitPerMinute < 0 {
		return invalidField("RATE_LIMIT_PER_MINUTE", "must not be negative")
	}
	return nil
}

// ValidateForBot checks the fields only the chat front end needs.
func (c *Config) ValidateForBot() error {
	var missingFields []string
	if strings.TrimSpace(c.BotToken) == "" {
		missingFields = append(missingFields, "BOT_TOKEN")
	}
	if len(missingFields) > 0 {
		return tmserrors.NewDomainError(tmserrors.ErrorTypeConfig, "missing_fields",
			"missing required environment variables").WithDetails(map[string]any{
			"missing_fields": missingFields,
		})
	}
	if c.TelegramAPIEndpoint != "" && !strings.Contains(c.TelegramAPIEndpoint, "%s") {
		return invalidField("TELEGRAM_API_ENDPOINT", "must contain two %s placeholders (token and method)")
	}
	return nil
}

func (c *Config) validateFetchSettings() error {
	fs := c.FetchSettings
	if fs.SizeCeiling <= 0 {
		return invalidField("MAX_FILE_SIZE", "must be positive")
	}
	if fs.ChunkSize < minChunkSize {
		return invalidField("CHUNK_SIZE", fmt.Sprintf("must be at least %d bytes", minChunkSize))
	}
	if int64(fs.ChunkSize) > fs.SizeCeiling {
		return invalidField("CHUNK_SIZE", "must not exceed MAX_FILE_SIZE")
	}
	if fs.MaxConcurrentFetches <= 0 {
		return invalidField("MAX_CONCURRENT_FETCHES", "must be positive")
	}
	if fs.ProbeTimeout <= 0 || fs.ResponseTimeout <= 0 || fs.TransferTimeout <= 0 || fs.UploadTimeout <= 0 {
		return invalidField("PROBE_TIMEOUT/RESPONSE_TIMEOUT/TRANSFER_TIMEOUT/UPLOAD_TIMEOUT", "must be positive")
	}
	info, err := os.Stat(fs.TempDir)
	if err != nil || !info.IsDir() {
		return invalidField("TEMP_DIR", "must be an existing directory")
	}
	return nil
}

func (c *Config) validateExtractorSettings() error {
	es := c.ExtractorSettings
	switch es.Backend {
	case BackendYTDLP:
		if strings.TrimSpace(es.YTDLPPath) == "" {
			return invalidField("YTDLP_PATH", "must not be empty")
		}
	case BackendYouTube:
	default:
		return invalidField("EXTRACTOR_BACKEND", "must be one of ytdlp, youtube")
	}
	if es.MetadataTimeout <= 0 || es.DownloadTimeout <= 0 {
		return invalidField("METADATA_TIMEOUT/EXTRACTOR_TIMEOUT", "must be positive")
	}
	return nil
}

func (c *Config) validateSessionSettings() error {
	if c.SessionSettings.TTL <= 0 {
		return invalidField("SESSION_TTL", "must be positive")
	}
	return nil
}

func (c *Config) validateProxy() error {
	if c.Proxy == "" {
		if c.ProxyDomains != "" {
			return invalidField("PROXY_DOMAINS", "requires PROXY")
		}
		return nil
	}
	parsed, err := url.Parse(c.Proxy)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return invalidField("PROXY", "must be a URL such as socks5://host:1080")
	}
	return nil
}

func invalidField(field, reason string) error {
	return tmserrors.NewDomainError(tmserrors.ErrorTypeConfig, "invalid_field", field+" "+reason).
		WithDetails(map[string]any{"field": field})
}
