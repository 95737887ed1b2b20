package transcode

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"

	"github.com/ondrejsika/audioserve-go/pkg/config"
)

// ErrBusy is returned when no transcoding permit became available within
// the bounded admission wait (§7 "Busy").
var ErrBusy = errors.New("transcoding: busy")

// Pipeline wires admission control, the reencoder child process, and the
// optional disk cache into the single entrypoint described in §4.B's
// contract `stream_transcoded(source_path, profile, seek) -> (mime, stream)`.
type Pipeline struct {
	sem   *Semaphore
	cache *Cache // nil disables caching
	log   logger.Logger
}

// NewPipeline returns a Pipeline admitting at most maxParallel concurrent
// reencoders. cache may be nil to disable the transcoding cache (§4.B
// "disable-able at runtime").
func NewPipeline(maxParallel int, cache *Cache, log logger.Logger) *Pipeline {
	return &Pipeline{sem: NewSemaphore(maxParallel), cache: cache, log: log}
}

// StreamTranscoded implements the §4.B contract. It writes the transcoded
// (or cached) bytes to w and returns the response mime type. Seeked streams
// (seekSecs != 0) bypass the cache entirely, per §4.B "Seeked streams are
// never cached".
func (p *Pipeline) StreamTranscoded(ctx context.Context, sourcePath string, sourceMTime int64, profile config.Profile, seekSecs float64, w io.Writer) (string, error) {
	mime := ContentType(profile)

	if p.cache != nil && seekSecs == 0 {
		key := Key(sourcePath, sourceMTime, profile.Name)
		if path, ok := p.cache.Get(key); ok {
			f, err := os.Open(path)
			if err != nil {
				return mime, errors.WithStack(err)
			}
			defer f.Close()
			if _, err := io.Copy(w, f); err != nil {
				return mime, errors.Wrap(err, "stream cached transcoding")
			}
			return mime, nil
		}
	}

	release, ok := p.sem.Acquire(ctx)
	if !ok {
		return mime, ErrBusy
	}
	defer release()

	if p.cache == nil || seekSecs != 0 {
		if err := Stream(ctx, profile, sourcePath, seekSecs, w, p.log); err != nil {
			return mime, err
		}
		return mime, nil
	}

	key := Key(sourcePath, sourceMTime, profile.Name)
	tmp, commit, abort, err := p.cache.Put(key)
	if err != nil {
		return mime, err
	}

	mw := io.MultiWriter(w, tmp)
	if err := Stream(ctx, profile, sourcePath, seekSecs, mw, p.log); err != nil {
		abort()
		return mime, err
	}

	if err := commit(); err != nil {
		p.log.Warn("failed to commit transcoding cache entry", logger.Data{"error": err.Error(), "source": sourcePath})
	}

	return mime, nil
}
