package app

import (
	"net/http"
	"net/url"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/config"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/extractor/youtube"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/extractor/ytdlp"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/fetcher"
	tmshttp "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/infrastructure/http"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/media"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/pkg/validation"
)

// FetchStack is the part of the pipeline that works without a chat front end.
type FetchStack struct {
	Classifier *validation.LinkClassifier
	Extractor  domain.Extractor
	Resolver   *media.VariantResolver
	Fetcher    *fetcher.Fetcher
}

// NewFetchStack builds the classifier, extractor, resolver and fetcher from cfg.
func NewFetchStack(cfg *config.Config) *FetchStack {
	proxyFor := tmshttp.ProxyFromConfig(cfg.Proxy, cfg.ShouldUseProxy)
	es := cfg.GetExtractorSettings()
	fs := cfg.GetFetchSettings()

	extractor := newExtractor(cfg, es, proxyFor)
	source := tmshttp.NewClient(tmshttp.Options{
		ProbeTimeout:    fs.ProbeTimeout,
		ResponseTimeout: fs.ResponseTimeout,
		ProxyFor:        proxyFor,
	})

	return &FetchStack{
		Classifier: validation.NewLinkClassifier(cfg.ExtraVideoHosts...),
		Extractor:  extractor,
		Resolver:   media.NewVariantResolver(extractor, nil, es.MetadataTimeout),
		Fetcher: fetcher.New(extractor, source, fetcher.Options{
			SizeCeiling:      fs.SizeCeiling,
			ChunkSize:        fs.ChunkSize,
			TempDir:          fs.TempDir,
			TransferTimeout:  fs.TransferTimeout,
			ExtractorTimeout: es.DownloadTimeout,
		}),
	}
}

func newExtractor(cfg *config.Config, es config.ExtractorConfig, proxyFor func(*http.Request) (*url.URL, error)) domain.Extractor {
	if es.Backend == config.BackendYouTube {
		logutils.Log.Info("Using the built-in YouTube extractor")
		return youtube.New(proxyFor)
	}
	logutils.Log.WithField("binary", es.YTDLPPath).Info("Using the yt-dlp extractor")
	return ytdlp.New(ytdlp.Options{
		Binary:         es.YTDLPPath,
		Proxy:          cfg.Proxy,
		ShouldUseProxy: cfg.ShouldUseProxy,
	})
}
