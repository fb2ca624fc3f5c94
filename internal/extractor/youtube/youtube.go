package youtube

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/kkdai/youtube/v2"
)

var heightLimit = regexp.MustCompile(`\[height<=(\d+)\]`)

// Extractor talks to YouTube directly, without an external binary. It can
// only deliver progressive (muxed) encodings or single audio streams.
type Extractor struct {
	client *youtube.Client
}

var _ domain.Extractor = (*Extractor)(nil)

// New builds the extractor; proxyFor may be nil.
func New(proxyFor func(*http.Request) (*url.URL, error)) *Extractor {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyFor != nil {
		transport.Proxy = proxyFor
	}
	return &Extractor{client: &youtube.Client{HTTPClient: &http.Client{Transport: transport}}}
}

func (e *Extractor) GetMetadata(ctx context.Context, rawURL string) (*domain.MediaMetadata, error) {
	video, err := e.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, classify(ctx, err, "cannot load video info")
	}

	meta := &domain.MediaMetadata{
		Title:           strings.TrimSpace(video.Title),
		DurationSeconds: video.Duration.Seconds(),
		Encodings:       make([]domain.RawEncoding, 0, len(video.Formats)),
	}
	for i := range video.Formats {
		meta.Encodings = append(meta.Encodings, toEncoding(&video.Formats[i]))
	}
	logutils.Log.WithFields(map[string]any{
		"video":   video.ID,
		"formats": len(meta.Encodings),
	}).Debug("YouTube metadata received")
	return meta, nil
}

func (e *Extractor) FetchToDirectory(ctx context.Context, rawURL, formatSelector, destDir string) (string, error) {
	video, err := e.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return "", classify(ctx, err, "cannot load video info")
	}

	format := selectFormat(video.Formats, formatSelector)
	if format == nil {
		return "", tmserrors.NewDomainError(tmserrors.ErrorTypeSourceUnavailable, "format_unavailable",
			"requested format is not available").
			WithDetails(map[string]any{"selector": formatSelector}).
			WithUserMessage("error.fetch.unavailable")
	}

	stream, _, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", classify(ctx, err, "cannot open stream")
	}
	defer stream.Close()

	path := filepath.Join(destDir, video.ID+"."+extension(format.MimeType))
	// .part until complete so an interrupted copy is never mistaken for output
	partial := path + ".part"
	file, err := os.Create(partial)
	if err != nil {
		return "", tmserrors.WrapDomainError(err, tmserrors.ErrorTypeUnexpected, "local_io", "cannot create output file")
	}
	if _, err := io.Copy(file, stream); err != nil {
		file.Close()
		return "", classify(ctx, err, "stream interrupted")
	}
	if err := file.Close(); err != nil {
		return "", tmserrors.WrapDomainError(err, tmserrors.ErrorTypeUnexpected, "local_io", "cannot finish output file")
	}
	if err := os.Rename(partial, path); err != nil {
		return "", tmserrors.WrapDomainError(err, tmserrors.ErrorTypeUnexpected, "local_io", "cannot finish output file")
	}
	return path, nil
}

func toEncoding(f *youtube.Format) domain.RawEncoding {
	mime := strings.ToLower(f.MimeType)
	isVideo := strings.HasPrefix(mime, "video/")
	return domain.RawEncoding{
		ID:            strconv.Itoa(f.ItagNo),
		Height:        f.Height,
		HasVideo:      isVideo,
		HasAudio:      f.AudioChannels > 0 || strings.HasPrefix(mime, "audio/"),
		DeclaredBytes: f.ContentLength,
		AudioBitrate:  float64(f.Bitrate) / 1000,
		Ext:           extension(f.MimeType),
	}
}

// selectFormat understands the subset of yt-dlp selector syntax the resolver
// emits: alternatives separated by "/", itag ids, best, bestaudio and
// [height<=N] limits. Video+audio merges fall back to progressive encodings.
func selectFormat(formats youtube.FormatList, selector string) *youtube.Format {
	for _, alt := range strings.Split(selector, "/") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if itag, err := strconv.Atoi(alt); err == nil {
			if f := formats.FindByItag(itag); f != nil {
				return f
			}
			continue
		}
		if alt == "bestaudio" {
			if f := bestAudio(formats); f != nil {
				return f
			}
			continue
		}
		if !strings.HasPrefix(alt, "best") {
			continue
		}
		limit := 0
		if m := heightLimit.FindStringSubmatch(alt); m != nil {
			limit, _ = strconv.Atoi(m[1])
		}
		if f := bestMuxed(formats, limit); f != nil {
			return f
		}
	}
	return nil
}

func bestMuxed(formats youtube.FormatList, maxHeight int) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		enc := toEncoding(f)
		if !enc.Playable() || (maxHeight > 0 && f.Height > maxHeight) {
			continue
		}
		if best == nil || f.Height > best.Height || (f.Height == best.Height && f.Bitrate > best.Bitrate) {
			best = f
		}
	}
	return best
}

func bestAudio(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !toEncoding(f).AudioOnly() {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return best
}

func extension(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch base {
	case "video/mp4":
		return "mp4"
	case "audio/mp4":
		return "m4a"
	case "video/webm", "audio/webm":
		return "webm"
	case "video/3gpp":
		return "3gp"
	}
	return "bin"
}

func classify(ctx context.Context, err error, message string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return tmserrors.FromTransport(ctx.Err(), message)
	}
	var playability *youtube.ErrPlayabiltyStatus
	if errors.Is(err, youtube.ErrVideoPrivate) || errors.Is(err, youtube.ErrLoginRequired) || errors.As(err, &playability) {
		return tmserrors.WrapDomainError(err, tmserrors.ErrorTypeSourceUnavailable, "content_unavailable", message).
			WithUserMessage("error.fetch.unavailable")
	}
	return tmserrors.FromTransport(err, message)
}
