package asset

import (
	"context"
	"net/http"

	"github.com/olivier-w/barviz/internal/decode"
	"github.com/olivier-w/barviz/internal/media"
	"go.uber.org/zap"
)

// Loaded is a fetched and decoded asset.
type Loaded struct {
	Source   string
	Buffer   *decode.Buffer
	Metadata media.Metadata
}

// Loader fetches and decodes one asset per call.
type Loader struct {
	Client *http.Client
	Logger *zap.Logger
	// Progress, when set, is called from the loading goroutine.
	Progress func(Progress)
}

// Load phases reported through Progress. PhaseDone is always the last
// update of a Load, whether it succeeded or not.
const (
	PhaseFetching = "fetching"
	PhaseDecoding = "decoding"
	PhaseDone     = "done"
)

// Progress is a loading status update. Percent is -1 while unknown.
type Progress struct {
	Phase   string
	Percent float64
}

// Load fetches src and decodes it. Errors are *NetworkError or
// *decode.DecodeError, or ctx.Err() when cancelled.
func (l *Loader) Load(ctx context.Context, src string) (*Loaded, error) {
	log := l.logger().With(zap.String("source", src))
	defer l.report(Progress{Phase: PhaseDone, Percent: 1})

	l.report(Progress{Phase: PhaseFetching, Percent: -1})
	data, err := FetchWithProgress(ctx, l.Client, src, l.fetchProgress)
	if err != nil {
		log.Error("fetch failed", zap.Error(err))
		return nil, err
	}
	log.Debug("fetched asset", zap.Int("bytes", len(data)))

	l.report(Progress{Phase: PhaseDecoding, Percent: -1})
	res := <-decode.DecodeAsync(ctx, data, src)
	if res.Err != nil {
		log.Error("decode failed", zap.Error(res.Err))
		return nil, res.Err
	}

	meta := media.ReadMetadata(data, src)
	log.Info("asset loaded",
		zap.String("format", res.Buffer.Format),
		zap.Duration("duration", res.Buffer.Duration()),
		zap.String("title", meta.Title),
	)
	return &Loaded{Source: src, Buffer: res.Buffer, Metadata: meta}, nil
}

// Result is the outcome of LoadAsync.
type Result struct {
	Asset *Loaded
	Err   error
}

// LoadAsync runs Load on its own goroutine. The channel receives exactly one
// Result and is then closed.
func (l *Loader) LoadAsync(ctx context.Context, src string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		a, err := l.Load(ctx, src)
		out <- Result{Asset: a, Err: err}
	}()
	return out
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func (l *Loader) report(p Progress) {
	if l.Progress != nil {
		l.Progress(p)
	}
}

func (l *Loader) fetchProgress(read, total int64) {
	if l.Progress == nil {
		return
	}
	pct := -1.0
	if total > 0 {
		pct = min(float64(read)/float64(total), 1)
	}
	l.Progress(Progress{Phase: PhaseFetching, Percent: pct})
}
