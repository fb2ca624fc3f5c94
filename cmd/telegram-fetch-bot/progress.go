package main

import (
	"sync"

	"github.com/cheggaaa/pb/v3"
)

const progressTemplate = `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }}`

// progress renders fetcher progress callbacks on a pb bar. The bar is started
// lazily because the total is only known once the response arrives.
type progress struct {
	mu    sync.Mutex
	bar   *pb.ProgressBar
	quiet bool
}

func newProgress(quiet bool) *progress {
	return &progress{quiet: quiet}
}

func (p *progress) Update(written, total int64) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = pb.ProgressBarTemplate(progressTemplate).Start64(max(total, 0))
		p.bar.Set(pb.Bytes, true)
		p.bar.Set(pb.SIBytesPrefix, true)
		p.bar.Set("prefix", "Downloading: ")
	}
	p.bar.SetCurrent(written)
}

func (p *progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
	}
}
