package transcode

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrejsika/audioserve-go/pkg/config"
)

func TestPipeline_CachesUnseekedStream(t *testing.T) {
	bin := writeFakeReencoder(t, "printf 'bytes-1'")
	old := ReencoderBinary
	ReencoderBinary = bin
	defer func() { ReencoderBinary = old }()

	cache, err := OpenCache(t.TempDir(), 0, 0)
	require.NoError(t, err)
	defer cache.Close()

	p := NewPipeline(2, cache, logger.New())
	profile := config.Profile{Name: "m", Codec: "opus", Container: "ogg"}

	var first bytes.Buffer
	mime, err := p.StreamTranscoded(context.Background(), "/src.mp3", 100, profile, 0, &first)
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", mime)
	assert.Equal(t, "bytes-1", first.String())

	// Second call should hit the cache even though the fake reencoder now
	// produces different output; the cached bytes from the first run win.
	ReencoderBinary = writeFakeReencoder(t, "printf 'bytes-2'")

	var second bytes.Buffer
	_, err = p.StreamTranscoded(context.Background(), "/src.mp3", 100, profile, 0, &second)
	require.NoError(t, err)
	assert.Equal(t, "bytes-1", second.String())
}

func TestPipeline_SeekedStreamsBypassCache(t *testing.T) {
	bin := writeFakeReencoder(t, "printf 'seeked'")
	old := ReencoderBinary
	ReencoderBinary = bin
	defer func() { ReencoderBinary = old }()

	cacheDir := t.TempDir()
	cache, err := OpenCache(cacheDir, 0, 0)
	require.NoError(t, err)
	defer cache.Close()

	p := NewPipeline(2, cache, logger.New())
	profile := config.Profile{Name: "m", Codec: "opus", Container: "ogg"}

	var buf bytes.Buffer
	_, err = p.StreamTranscoded(context.Background(), "/src.mp3", 100, profile, 30, &buf)
	require.NoError(t, err)
	assert.Equal(t, "seeked", buf.String())

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, "cache.db", e.Name(), "seeked stream must not be cached")
	}
}

func TestPipeline_ReturnsBusyWhenAdmissionExhausted(t *testing.T) {
	bin := writeFakeReencoder(t, "sleep 5")
	old := ReencoderBinary
	ReencoderBinary = bin
	defer func() { ReencoderBinary = old }()

	p := NewPipeline(1, nil, logger.New())
	profile := config.Profile{Name: "m", Codec: "opus", Container: "ogg"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		var buf bytes.Buffer
		p.StreamTranscoded(ctx, "/src.mp3", 100, profile, 0, &buf)
		close(done)
	}()

	// give the first call time to acquire the single permit
	time.Sleep(100 * time.Millisecond)

	var second bytes.Buffer
	_, err := p.StreamTranscoded(context.Background(), "/src.mp3", 100, profile, 0, &second)
	assert.ErrorIs(t, err, ErrBusy)

	cancel()
	<-done
}
