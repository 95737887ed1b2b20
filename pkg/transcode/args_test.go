package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ondrejsika/audioserve-go/pkg/config"
)

func TestContentType(t *testing.T) {
	cases := []struct {
		container string
		want      string
	}{
		{"ogg", "audio/ogg"},
		{"webm", "audio/webm"},
		{"mp3", "audio/mpeg"},
		{"adts", "audio/aac"},
		{"weird", "application/octet-stream"},
	}
	for _, c := range cases {
		got := ContentType(config.Profile{Container: c.container})
		assert.Equal(t, c.want, got)
	}
}

func TestBuildArgs_SeekPrecedesInput(t *testing.T) {
	p := config.Profile{Codec: "opus", Container: "ogg", BitrateKbps: 32}
	args := BuildArgs(p, "/media/book.mp3", 12.5)

	require := assert.New(t)
	require.Equal("-ss", args[0])
	require.Equal("12.500", args[1])
	require.Equal("-i", args[2])
	require.Equal("/media/book.mp3", args[3])
}

func TestBuildArgs_NoSeekOmitsSSFlag(t *testing.T) {
	p := config.Profile{Codec: "opus", Container: "ogg", BitrateKbps: 32}
	args := BuildArgs(p, "/media/book.mp3", 0)

	assert.Equal(t, "-i", args[0])
	assert.Equal(t, "/media/book.mp3", args[1])
}

func TestBuildArgs_OpusProfileFlags(t *testing.T) {
	p := config.Profile{
		Codec: "opus", Container: "ogg", BitrateKbps: 32,
		CompressionLevel: 10, CutoffHz: 12000, Mono: true, ABR: true,
	}
	args := BuildArgs(p, "/x.mp3", 0)

	assert.Contains(t, args, "-c:a")
	assert.Contains(t, args, "libopus")
	assert.Contains(t, args, "32k")
	assert.Contains(t, args, "-compression_level")
	assert.Contains(t, args, "-cutoff")
	assert.Contains(t, args, "-ac")
	assert.Contains(t, args, "-vbr")
	assert.Equal(t, "-f", args[len(args)-3])
	assert.Equal(t, "ogg", args[len(args)-2])
	assert.Equal(t, "-", args[len(args)-1])
}

func TestBuildArgs_Mp3ProfileFlags(t *testing.T) {
	p := config.Profile{Codec: "mp3", Container: "mp3", BitrateKbps: 96}
	args := BuildArgs(p, "/x.mp3", 0)

	assert.Contains(t, args, "libmp3lame")
	assert.Contains(t, args, "96k")
	assert.NotContains(t, args, "-ac")
}

func TestBuildArgs_AacProfileFlags(t *testing.T) {
	p := config.Profile{Codec: "aac", Container: "adts", BitrateKbps: 96, Mono: true}
	args := BuildArgs(p, "/x.mp3", 0)

	assert.Contains(t, args, "aac")
	assert.Contains(t, args, "96k")
	assert.Contains(t, args, "-ac")
}
