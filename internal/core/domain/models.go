package domain

import (
	"io"
	"time"
)

// LinkKind tells whether a link needs the extraction collaborator.
type LinkKind string

const (
	LinkExtractor LinkKind = "extractor-backed"
	LinkDirect    LinkKind = "direct"
)

// Link is a validated, classified URL submitted by an actor.
type Link struct {
	URL  string
	Kind LinkKind
}

// TierKey identifies one rung of the quality ladder.
type TierKey string

const (
	Tier144   TierKey = "144"
	Tier240   TierKey = "240"
	Tier360   TierKey = "360"
	Tier480   TierKey = "480"
	Tier720   TierKey = "720"
	Tier1080  TierKey = "1080"
	Tier1440  TierKey = "1440"
	Tier2160  TierKey = "2160"
	TierBest  TierKey = "best"
	TierAudio TierKey = "audio"
)

// SizeConfidence tells where Variant.EstimatedBytes came from.
type SizeConfidence string

const (
	SizeDeclared  SizeConfidence = "declared"
	SizeEstimated SizeConfidence = "estimated"
)

// Variant is one selectable encoding of an extractor-backed link.
type Variant struct {
	Tier           TierKey
	FormatSelector string
	EstimatedBytes int64
	Confidence     SizeConfidence
}

// ResolvedMedia is the ladder offered to the actor for one link.
type ResolvedMedia struct {
	Title           string
	DurationSeconds float64
	Variants        []Variant
}

// Variant returns the variant for tier, if the ladder contains it.
func (m *ResolvedMedia) Variant(tier TierKey) (Variant, bool) {
	if m == nil {
		return Variant{}, false
	}
	for _, v := range m.Variants {
		if v.Tier == tier {
			return v, true
		}
	}
	return Variant{}, false
}

// RawEncoding is a single encoding as reported by the extraction collaborator.
// Zero values mean "not reported".
type RawEncoding struct {
	ID            string
	Height        int
	HasVideo      bool
	HasAudio      bool
	DeclaredBytes int64
	AudioBitrate  float64
	Ext           string
}

// Playable reports whether the encoding carries both picture and sound.
func (e RawEncoding) Playable() bool {
	return e.HasVideo && e.HasAudio
}

// AudioOnly reports whether the encoding carries sound without picture.
func (e RawEncoding) AudioOnly() bool {
	return e.HasAudio && !e.HasVideo
}

// MediaMetadata is the extractor's description of a link.
type MediaMetadata struct {
	Title           string
	DurationSeconds float64
	Encodings       []RawEncoding
}

// TransferResult is a finished fetch. Content is a read handle whose backing
// file has no remaining directory entry; Close releases it.
type TransferResult struct {
	Content      io.ReadCloser
	SizeInBytes  int64
	Filename     string
	DisplayTitle string
}

func (r *TransferResult) Close() error {
	if r == nil || r.Content == nil {
		return nil
	}
	return r.Content.Close()
}

// ProbeResult is the outcome of a metadata-only request.
type ProbeResult struct {
	Status       int
	DeclaredSize int64 // -1 when unknown
}

// StreamResponse is an open streaming GET. The caller closes Body.
type StreamResponse struct {
	Status        int
	Header        map[string][]string
	ContentLength int64 // -1 when unknown
	Body          io.ReadCloser
}

// HeaderValue returns the first value of a canonical header key.
func (r *StreamResponse) HeaderValue(key string) string {
	if r == nil || r.Header == nil {
		return ""
	}
	if values := r.Header[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// TransferRecord is one terminal outcome kept by the history store.
type TransferRecord struct {
	ActorID   int64
	Host      string
	Tier      string
	Bytes     int64
	Outcome   string
	CreatedAt time.Time
}

// TransferStats aggregates history for one actor.
type TransferStats struct {
	Delivered  int64
	Failed     int64
	TotalBytes int64
}
