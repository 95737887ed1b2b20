// Package mp4 walks MP4/M4B/M4A atom structures to recover the duration,
// bitrate, codec, cover art, and chapter table of audiobook-style container
// files, without decoding any audio.
package mp4

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Parse reads container-level metadata from the file at path.
func Parse(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	return ParseReader(f)
}

// ParseReader reads container-level metadata from an open, seekable MP4
// stream.
func ParseReader(r io.ReadSeeker) (*Metadata, error) {
	raw, err := readMetadataFromReader(r)
	if err != nil {
		return nil, err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.WithStack(err)
	}
	chapters, err := readChapters(r)
	if err != nil {
		// A chapter-parse failure does not invalidate the rest of the probe;
		// the file is indexed with an empty chapter table.
		chapters = nil
	}
	raw.chapters = chapters

	return convertRawMetadata(raw), nil
}
