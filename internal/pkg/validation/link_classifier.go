package validation

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
)

// DefaultVideoHosts are served through the extraction collaborator.
// Subdomains of each entry match as well.
var DefaultVideoHosts = []string{
	"youtube.com", "youtu.be", "youtube-nocookie.com",
	"vk.com", "vkvideo.ru",
	"rutube.ru",
	"vimeo.com",
	"dailymotion.com",
	"twitch.tv",
	"ok.ru",
}

// LinkClassifier validates submitted text and tags it extractor-backed or direct.
type LinkClassifier struct {
	videoHosts []string
}

// NewLinkClassifier extends DefaultVideoHosts with extraHosts.
func NewLinkClassifier(extraHosts ...string) *LinkClassifier {
	hosts := make([]string, 0, len(DefaultVideoHosts)+len(extraHosts))
	hosts = append(hosts, DefaultVideoHosts...)
	for _, h := range extraHosts {
		h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "www.")
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return &LinkClassifier{videoHosts: hosts}
}

// Classify returns the Link for raw or an InvalidLink error.
func (c *LinkClassifier) Classify(raw string) (domain.Link, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Link{}, invalidLink("empty", "empty link")
	}
	if strings.IndexFunc(trimmed, unicode.IsSpace) >= 0 {
		return domain.Link{}, invalidLink("ambiguous", "link contains whitespace")
	}

	parsedURL, err := url.Parse(trimmed)
	if err != nil {
		return domain.Link{}, tmserrors.WrapDomainError(err, tmserrors.ErrorTypeInvalidLink, "malformed", "cannot parse link").
			WithUserMessage("error.link.invalid")
	}
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return domain.Link{}, invalidLink("unsupported_scheme", "only http and https links are supported")
	}
	host := strings.ToLower(parsedURL.Hostname())
	if host == "" || parsedURL.User != nil {
		return domain.Link{}, invalidLink("malformed", "link has no usable host")
	}

	kind := domain.LinkDirect
	if c.IsVideoHost(host) {
		kind = domain.LinkExtractor
	}
	return domain.Link{URL: trimmed, Kind: kind}, nil
}

// IsVideoHost reports whether host matches a known video host or a subdomain of one.
func (c *LinkClassifier) IsVideoHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, validHost := range c.videoHosts {
		if host == validHost || strings.HasSuffix(host, "."+validHost) {
			return true
		}
	}
	return false
}

func invalidLink(code, message string) error {
	return tmserrors.NewDomainError(tmserrors.ErrorTypeInvalidLink, code, message).
		WithUserMessage("error.link.invalid")
}
