package transcode

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrejsika/audioserve-go/pkg/config"
)

// writeFakeReencoder writes an executable shell script standing in for
// ffmpeg, ignoring its argument vector, used so Stream's plumbing can be
// exercised without a real reencoder binary (§1 "Out of scope").
func writeFakeReencoder(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-reencoder.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestStream_CopiesStdoutToWriter(t *testing.T) {
	bin := writeFakeReencoder(t, "printf 'hello-audio'")
	old := ReencoderBinary
	ReencoderBinary = bin
	defer func() { ReencoderBinary = old }()

	var buf bytes.Buffer
	err := Stream(context.Background(), config.Profile{Codec: "opus", Container: "ogg"}, "/x.mp3", 0, &buf, logger.New())

	require.NoError(t, err)
	assert.Equal(t, "hello-audio", buf.String())
}

func TestStream_NonZeroExitReturnsError(t *testing.T) {
	bin := writeFakeReencoder(t, "echo boom 1>&2\nexit 1")
	old := ReencoderBinary
	ReencoderBinary = bin
	defer func() { ReencoderBinary = old }()

	var buf bytes.Buffer
	err := Stream(context.Background(), config.Profile{Codec: "opus", Container: "ogg"}, "/x.mp3", 0, &buf, logger.New())

	assert.Error(t, err)
}

func TestStream_CancelledContextIsNotReportedAsFailure(t *testing.T) {
	bin := writeFakeReencoder(t, "sleep 5")
	old := ReencoderBinary
	ReencoderBinary = bin
	defer func() { ReencoderBinary = old }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := Stream(ctx, config.Profile{Codec: "opus", Container: "ogg"}, "/x.mp3", 0, &buf, logger.New())

	assert.NoError(t, err)
}

func TestTailWriter_KeepsOnlyLastNBytes(t *testing.T) {
	tw := newTailWriter(4)
	_, err := tw.Write([]byte("abcdefgh"))
	require.NoError(t, err)
	assert.Equal(t, "efgh", tw.String())
}
