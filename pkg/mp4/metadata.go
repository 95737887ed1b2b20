package mp4

import (
	"time"
)

// Metadata represents extracted MP4/M4B/M4A container metadata relevant to
// audio streaming: duration, bitrate, chapter table, and cover art.
type Metadata struct {
	Title         string
	Album         string
	Genre         string
	Description   string
	CoverData     []byte // cover artwork
	CoverMimeType string // "image/jpeg" or "image/png"
	Duration      time.Duration
	Codec         string
	BitrateKbps   uint32
	Chapters      []Chapter
	MediaType     int               // from stik
	Freeform      map[string]string // freeform (----) atoms
}

// Chapter is a single chapter entry as recovered from either the QuickTime
// chapter-track convention or the Nero "chpl" atom.
type Chapter struct {
	Title string
	Start time.Duration
	End   time.Duration
}

// convertRawMetadata converts rawMetadata to the public Metadata struct.
func convertRawMetadata(raw *rawMetadata) *Metadata {
	meta := &Metadata{
		Title:         raw.title,
		Album:         raw.album,
		Genre:         raw.genre,
		Description:   raw.description,
		CoverData:     raw.coverData,
		CoverMimeType: raw.coverMime,
		MediaType:     int(raw.mediaType),
		Codec:         raw.codec,
		BitrateKbps:   raw.avgBitrate / 1000,
	}

	if raw.timescale > 0 && raw.duration > 0 {
		durationSec := float64(raw.duration) / float64(raw.timescale)
		meta.Duration = time.Duration(durationSec * float64(time.Second))
	}

	if len(raw.freeform) > 0 {
		meta.Freeform = make(map[string]string, len(raw.freeform))
		for k, v := range raw.freeform {
			meta.Freeform[k] = v
		}
	}

	meta.Chapters = raw.chapters

	return meta
}
