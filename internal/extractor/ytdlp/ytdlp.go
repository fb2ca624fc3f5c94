package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/process"
)

const (
	outputTemplate = "%(id)s.%(ext)s"
	diagnosticMax  = 200
)

// unavailableMarkers are yt-dlp error fragments meaning the content cannot be served.
var unavailableMarkers = []string{
	"video unavailable",
	"private video",
	"has been removed",
	"is not available",
	"unsupported url",
	"requested format is not available",
	"http error 403",
	"http error 404",
	"http error 410",
	"sign in to confirm",
	"members-only",
}

type Options struct {
	Binary string
	Proxy  string
	// ShouldUseProxy limits Proxy to some URLs; nil means every URL.
	ShouldUseProxy func(rawURL string) bool
	Runner         process.Runner
}

// Extractor drives the yt-dlp command-line tool.
type Extractor struct {
	binary   string
	proxy    string
	useProxy func(string) bool
	run      process.Runner
}

var _ domain.Extractor = (*Extractor)(nil)

func New(opts Options) *Extractor {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	run := opts.Runner
	if run == nil {
		run = process.Run
	}
	return &Extractor{binary: binary, proxy: opts.Proxy, useProxy: opts.ShouldUseProxy, run: run}
}

type ytdlpFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	ABR            float64 `json:"abr"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
}

type ytdlpInfo struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Duration float64       `json:"duration"`
	Formats  []ytdlpFormat `json:"formats"`
}

// GetMetadata runs yt-dlp -J and maps its formats to raw encodings.
func (e *Extractor) GetMetadata(ctx context.Context, url string) (*domain.MediaMetadata, error) {
	args := []string{"-J", "--no-playlist", "--no-warnings"}
	args = append(e.proxyArgs(url, args), url)

	stdout, stderr, err := e.run(ctx, e.binary, args...)
	if err != nil {
		return nil, e.classify(ctx, err, stderr, "metadata request failed")
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return nil, tmserrors.WrapDomainError(err, tmserrors.ErrorTypeMetadataUnavailable, "bad_json",
			"cannot parse yt-dlp metadata")
	}

	meta := &domain.MediaMetadata{
		Title:           strings.TrimSpace(info.Title),
		DurationSeconds: info.Duration,
		Encodings:       make([]domain.RawEncoding, 0, len(info.Formats)),
	}
	for _, f := range info.Formats {
		meta.Encodings = append(meta.Encodings, toEncoding(f))
	}

	logutils.Log.WithFields(map[string]any{
		"url":     url,
		"title":   meta.Title,
		"formats": len(meta.Encodings),
	}).Debug("yt-dlp metadata received")
	return meta, nil
}

// FetchToDirectory downloads formatSelector into destDir and returns the path
// yt-dlp reports after post-processing.
func (e *Extractor) FetchToDirectory(ctx context.Context, url, formatSelector, destDir string) (string, error) {
	args := []string{
		"-f", formatSelector,
		"--no-playlist",
		"--no-warnings",
		"--no-progress",
		"--restrict-filenames",
		"-o", filepath.Join(destDir, outputTemplate),
		"--print", "after_move:filepath",
		"--no-simulate",
	}
	args = append(e.proxyArgs(url, args), url)

	stdout, stderr, err := e.run(ctx, e.binary, args...)
	if err != nil {
		return "", e.classify(ctx, err, stderr, "download failed")
	}

	return lastLine(stdout), nil
}

func (e *Extractor) proxyArgs(url string, args []string) []string {
	if e.proxy == "" {
		return args
	}
	if e.useProxy != nil && !e.useProxy(url) {
		return args
	}
	return append(args, "--proxy", e.proxy)
}

func (*Extractor) classify(ctx context.Context, err error, stderr []byte, message string) error {
	diagnostic := tmserrors.Diagnostic(errors.New(lastLine(stderr)), diagnosticMax)
	entry := logutils.Log.WithError(err).WithField("stderr", diagnostic)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		entry.Warn("yt-dlp timed out")
		return tmserrors.FromTransport(ctx.Err(), message)
	}
	if errors.Is(err, exec.ErrNotFound) {
		entry.Error("yt-dlp binary not found")
		return tmserrors.WrapDomainError(err, tmserrors.ErrorTypeUnexpected, "extractor_missing",
			"yt-dlp is not installed").WithUserMessage("error.fetch.unexpected")
	}

	lower := strings.ToLower(string(stderr))
	for _, marker := range unavailableMarkers {
		if strings.Contains(lower, marker) {
			entry.Info("yt-dlp reports content unavailable")
			return tmserrors.WrapDomainError(err, tmserrors.ErrorTypeSourceUnavailable, "content_unavailable", message).
				WithDetails(map[string]any{"stderr": diagnostic}).
				WithUserMessage("error.fetch.unavailable")
		}
	}
	if strings.Contains(lower, "timed out") {
		entry.Warn("yt-dlp network timeout")
		return tmserrors.WrapDomainError(err, tmserrors.ErrorTypeTimeout, "remote_timeout", message).
			WithDetails(map[string]any{"stderr": diagnostic}).
			WithUserMessage("error.fetch.timeout")
	}

	entry.Warn("yt-dlp failed")
	return tmserrors.WrapDomainError(err, tmserrors.ErrorTypeNetworkFailure, "extractor_failed", message).
		WithDetails(map[string]any{"stderr": diagnostic}).
		WithUserMessage("error.fetch.network")
}

func toEncoding(f ytdlpFormat) domain.RawEncoding {
	declared := f.Filesize
	if declared <= 0 {
		declared = f.FilesizeApprox
	}
	// missing codec fields mean "unknown", only "none" rules a stream out
	hasVideo := f.VCodec != "none" && (f.VCodec != "" || f.Height > 0)
	hasAudio := f.ACodec != "none" && (f.ACodec != "" || f.ABR > 0 || f.VCodec == "")
	return domain.RawEncoding{
		ID:            f.FormatID,
		Height:        f.Height,
		HasVideo:      hasVideo,
		HasAudio:      hasAudio,
		DeclaredBytes: declared,
		AudioBitrate:  f.ABR,
		Ext:           f.Ext,
	}
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
