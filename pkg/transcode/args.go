// Package transcode is the bounded-concurrency on-the-fly reencoding
// pipeline described in §4.B: admission control, child-process supervision,
// and an optional content-addressed disk cache with LRU eviction.
package transcode

import (
	"strconv"

	"github.com/ondrejsika/audioserve-go/pkg/config"
)

// ContentType returns the response Content-Type for a profile's container.
func ContentType(p config.Profile) string {
	switch p.Container {
	case "ogg":
		return "audio/ogg"
	case "webm":
		return "audio/webm"
	case "mp3":
		return "audio/mpeg"
	case "adts":
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}

// BuildArgs constructs the reencoder argument vector for profile applied to
// sourcePath, optionally seeking seekSecs into the source before encoding.
// The seek flag precedes -i (seeking the demuxer, not the decoded stream);
// codec/bitrate/cutoff flags follow, mirroring the original implementation's
// ffmpeg invocation shape (SUPPLEMENTED DETAIL).
func BuildArgs(p config.Profile, sourcePath string, seekSecs float64) []string {
	var args []string

	if seekSecs > 0 {
		args = append(args, "-ss", strconv.FormatFloat(seekSecs, 'f', 3, 64))
	}

	args = append(args, "-i", sourcePath)

	switch p.Codec {
	case "opus":
		args = append(args, "-c:a", "libopus")
		args = append(args, "-b:a", strconv.Itoa(p.BitrateKbps)+"k")
		if p.CompressionLevel > 0 {
			args = append(args, "-compression_level", strconv.Itoa(p.CompressionLevel))
		}
		if p.CutoffHz > 0 {
			args = append(args, "-cutoff", strconv.Itoa(p.CutoffHz))
		}
		if p.Mono {
			args = append(args, "-ac", "1")
		}
		if p.ABR {
			args = append(args, "-vbr", "constrained")
		}
	case "mp3":
		args = append(args, "-c:a", "libmp3lame")
		args = append(args, "-b:a", strconv.Itoa(p.BitrateKbps)+"k")
		if p.Mono {
			args = append(args, "-ac", "1")
		}
	case "aac":
		args = append(args, "-c:a", "aac")
		args = append(args, "-b:a", strconv.Itoa(p.BitrateKbps)+"k")
		if p.Mono {
			args = append(args, "-ac", "1")
		}
	}

	args = append(args, "-f", containerFormat(p.Container))
	args = append(args, "-")

	return args
}

func containerFormat(container string) string {
	switch container {
	case "ogg":
		return "ogg"
	case "webm":
		return "webm"
	case "mp3":
		return "mp3"
	case "adts":
		return "adts"
	default:
		return container
	}
}
