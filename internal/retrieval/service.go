package retrieval

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/fetcher"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/lang"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/media"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/pkg/validation"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/pool"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/session"
	"github.com/dustin/go-humanize"
)

const (
	directCaptionPrefix = "Downloaded"
	captionURLRunes     = 50
	defaultUploadWait   = 10 * time.Minute
)

// Dependencies are the collaborators of Service. History and Metrics may be nil.
type Dependencies struct {
	Classifier    *validation.LinkClassifier
	Resolver      *media.VariantResolver
	Sessions      *session.Store
	Fetcher       *fetcher.Fetcher
	Pool          *pool.Pool
	Messenger     domain.Messenger
	History       domain.TransferHistory
	Metrics       domain.MetricsInterface
	UploadTimeout time.Duration
}

// Service drives one actor from a submitted link to a delivered file.
type Service struct {
	classifier    *validation.LinkClassifier
	resolver      *media.VariantResolver
	sessions      *session.Store
	fetcher       *fetcher.Fetcher
	pool          *pool.Pool
	messenger     domain.Messenger
	history       domain.TransferHistory
	metrics       domain.MetricsInterface
	uploadTimeout time.Duration
}

func NewService(deps Dependencies) *Service {
	if deps.Classifier == nil {
		deps.Classifier = validation.NewLinkClassifier()
	}
	if deps.UploadTimeout <= 0 {
		deps.UploadTimeout = defaultUploadWait
	}
	return &Service{
		classifier:    deps.Classifier,
		resolver:      deps.Resolver,
		sessions:      deps.Sessions,
		fetcher:       deps.Fetcher,
		pool:          deps.Pool,
		messenger:     deps.Messenger,
		history:       deps.History,
		metrics:       deps.Metrics,
		uploadTimeout: deps.UploadTimeout,
	}
}

// SubmitLink classifies text. Direct links are fetched and delivered at once;
// extractor-backed links are resolved and parked until SelectVariant.
// A new submission replaces any pending one of the same actor.
func (s *Service) SubmitLink(ctx context.Context, actorID int64, text string) *Outcome {
	link, err := s.classifier.Classify(text)
	if err != nil {
		return s.finish(ctx, actorID, failed(domain.Link{URL: strings.TrimSpace(text)}, "", err), time.Now())
	}

	if link.Kind == domain.LinkDirect {
		s.sessions.Discard(actorID)
		return s.deliver(ctx, actorID, fetcher.Request{Link: link}, "")
	}

	resolved, err := s.resolver.Resolve(ctx, link)
	if err != nil {
		return s.finish(ctx, actorID, failed(link, "", err), time.Now())
	}

	s.sessions.Put(actorID, link, resolved)
	logutils.Log.WithFields(map[string]any{
		"actor":    actorID,
		"state":    StateAwaitingVariant,
		"title":    resolved.Title,
		"variants": len(resolved.Variants),
	}).Info("Waiting for variant choice")
	return &Outcome{State: StateAwaitingVariant, Link: link, Media: resolved}
}

// SelectVariant consumes the actor's pending session and fetches tier. The
// session is gone afterwards whatever the outcome, so a repeated choice
// yields SessionExpired.
func (s *Service) SelectVariant(ctx context.Context, actorID int64, tier domain.TierKey) *Outcome {
	if !media.IsValidTier(tier) {
		return s.finish(ctx, actorID, failed(domain.Link{}, tier, unknownVariant(tier)), time.Now())
	}

	sess, err := s.sessions.Take(actorID)
	if err != nil {
		return s.finish(ctx, actorID, failed(domain.Link{}, tier, err), time.Now())
	}

	variant, ok := sess.Media.Variant(tier)
	if !ok {
		return s.finish(ctx, actorID, failed(sess.Link, tier, unknownVariant(tier)), time.Now())
	}

	return s.deliver(ctx, actorID, fetcher.Request{Link: sess.Link, Variant: &variant, Title: sess.Media.Title}, tier)
}

// deliver runs fetch and upload on the worker pool and waits for them.
func (s *Service) deliver(ctx context.Context, actorID int64, req fetcher.Request, tier domain.TierKey) *Outcome {
	start := time.Now()
	logutils.Log.WithFields(map[string]any{
		"actor": actorID,
		"state": StateFetching,
		"tier":  tier,
		"url":   req.Link.URL,
	}).Info("Fetching")

	future := pool.Submit(ctx, s.pool, func(ctx context.Context) (*Delivery, error) {
		result, err := s.fetcher.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		defer result.Close()

		d := &Delivery{
			Filename: result.Filename,
			Bytes:    result.SizeInBytes,
			Caption:  caption(req, result.DisplayTitle, tier),
		}
		if err := s.upload(ctx, actorID, result, d.Caption); err != nil {
			return nil, err
		}
		return d, nil
	})

	delivery, err := future.Await(ctx)
	if err != nil {
		return s.finish(ctx, actorID, failed(req.Link, tier, err), start)
	}
	return s.finish(ctx, actorID, &Outcome{State: StateDelivered, Link: req.Link, Tier: tier, Delivery: delivery}, start)
}

// upload hands the open file to the messenger, bounded by the upload timeout.
func (s *Service) upload(ctx context.Context, actorID int64, result *domain.TransferResult, caption string) error {
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	if err := s.messenger.SendText(actorID, lang.GetMessage(lang.StatusUploading, humanize.Bytes(uint64(result.SizeInBytes)))); err != nil {
		logutils.Log.WithError(err).WithField("actor", actorID).Warn("Failed to send upload notice")
	}

	done := make(chan error, 1)
	go func() {
		done <- s.messenger.SendFile(actorID, result.Content, result.SizeInBytes, result.Filename, caption)
	}()

	select {
	case err := <-done:
		if err != nil {
			return tmserrors.FromTransport(err, "upload failed")
		}
		return nil
	case <-ctx.Done():
		// unblocks the sender reading from the handle
		result.Close()
		return tmserrors.FromTransport(ctx.Err(), "upload did not finish in time")
	}
}

// finish records a terminal outcome. AwaitingVariant never reaches here.
func (s *Service) finish(ctx context.Context, actorID int64, out *Outcome, start time.Time) *Outcome {
	outcome := string(out.State)
	bytes := int64(0)
	if out.Delivery != nil {
		bytes = out.Delivery.Bytes
	}
	if out.State == StateFailed {
		outcome = string(out.ErrorType())
	}

	entry := logutils.Log.WithFields(map[string]any{
		"actor":      actorID,
		"state":      out.State,
		"tier":       out.Tier,
		"bytes":      bytes,
		"error_type": out.ErrorType(),
		"duration":   time.Since(start).Round(time.Millisecond),
	})
	if out.Err != nil {
		entry.WithError(out.Err).Warn("Retrieval failed")
	} else {
		entry.Info("Retrieval delivered")
	}

	if s.metrics != nil {
		s.metrics.IncrementCounter("fetch_outcomes", map[string]string{"outcome": outcome})
		if out.Link.Kind != "" {
			s.metrics.RecordDuration("fetch_duration", time.Since(start), map[string]string{"path": string(out.Link.Kind)})
		}
	}

	if s.history != nil {
		rec := domain.TransferRecord{
			ActorID:   actorID,
			Host:      hostOf(out.Link.URL),
			Tier:      string(out.Tier),
			Bytes:     bytes,
			Outcome:   outcome,
			CreatedAt: time.Now(),
		}
		if err := s.history.Record(context.WithoutCancel(ctx), rec); err != nil {
			logutils.Log.WithError(err).Warn("Failed to record transfer history")
		}
	}
	return out
}

// Stats returns the actor's history totals; zero when history is disabled.
func (s *Service) Stats(ctx context.Context, actorID int64) (domain.TransferStats, error) {
	if s.history == nil {
		return domain.TransferStats{}, nil
	}
	return s.history.Stats(ctx, actorID)
}

// SizeCeiling is the largest file the service will deliver.
func (s *Service) SizeCeiling() int64 {
	return s.fetcher.SizeCeiling()
}

// Pending reports whether the actor has a link awaiting a variant choice.
func (s *Service) Pending(actorID int64) bool {
	_, ok := s.sessions.Peek(actorID)
	return ok
}

func caption(req fetcher.Request, title string, tier domain.TierKey) string {
	if req.Link.Kind == domain.LinkDirect {
		runes := []rune(req.Link.URL)
		if len(runes) > captionURLRunes {
			runes = runes[:captionURLRunes]
		}
		return directCaptionPrefix + "\n" + string(runes)
	}
	label := media.TierLabel(tier)
	if title == "" {
		return label
	}
	return title + " - " + label
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func unknownVariant(tier domain.TierKey) error {
	return tmserrors.NewDomainError(tmserrors.ErrorTypeInvalidLink, "unknown_variant", "no such variant").
		WithDetails(map[string]any{"tier": tier}).
		WithUserMessage("error.variant.unknown")
}
