package chapters

import (
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/robinjoseph08/golib/logger"
)

// ContainerChapter is the shape the metadata binding (pkg/mediaprobe)
// hands back for a single container-embedded chapter, named distinctly from
// Entry to keep the acquisition priority chain's inputs explicit.
type ContainerChapter struct {
	Title   string
	StartMS uint64
	EndMS   uint64
}

// Options configures chapter acquisition/synthesis thresholds, mirroring
// --chapters-from-duration / --chapters-duration / --ignore-chapters-meta.
type Options struct {
	IgnoreContainerMeta bool
	SynthesizeFromMS    uint64 // 0 disables synthesis
	SynthesizeChunkMS   uint64
}

// Acquire resolves a file's chapter table in priority order (§4.C):
// (1) sibling "<name>.chapters" CSV, (2) container metadata, (3) duration
// synthesis when durationMS exceeds opts.SynthesizeFromMS. It returns nil
// chapters (not an error) when no table can be acquired by any method.
// log may be nil; CSV row warnings are dropped silently in that case.
func Acquire(log logger.Logger, filePath string, durationMS uint64, containerChapters []ContainerChapter, opts Options) ([]Entry, error) {
	if entries, ok, err := acquireFromCSV(log, filePath); err != nil {
		return nil, err
	} else if ok {
		return entries, nil
	}

	if !opts.IgnoreContainerMeta && len(containerChapters) > 0 {
		entries := make([]Entry, 0, len(containerChapters))
		for _, c := range containerChapters {
			entries = append(entries, clampEntry(Entry{Title: c.Title, StartMS: c.StartMS, EndMS: c.EndMS}, durationMS))
		}
		return entries, nil
	}

	if opts.SynthesizeFromMS > 0 && durationMS > opts.SynthesizeFromMS {
		return Synthesize(durationMS, opts.SynthesizeChunkMS), nil
	}

	return nil, nil
}

func acquireFromCSV(log logger.Logger, filePath string) ([]Entry, bool, error) {
	csvPath := SiblingCSVPath(filePath)
	f, err := os.Open(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.WithStack(err)
	}
	defer f.Close()

	entries, warnings, err := ParseCSV(f)
	if err != nil {
		return nil, false, errors.Wrapf(err, "parse %s", csvPath)
	}
	if log != nil {
		for _, w := range warnings {
			log.Warn("dropped malformed chapter row", logger.Data{"file": csvPath, "warning": w})
		}
	}
	return entries, true, nil
}

// clampEntry enforces §3 invariant I3 / §9 open question (a): a chapter
// range never exceeds the source file's measured duration.
func clampEntry(e Entry, durationMS uint64) Entry {
	if durationMS == 0 {
		return e
	}
	if e.StartMS > durationMS {
		e.StartMS = durationMS
	}
	if e.EndMS > durationMS {
		e.EndMS = durationMS
	}
	return e
}

// Synthesize builds equal-size chapters covering [0, durationMS) in chunks
// of chunkMS, the §4.C fallback when no CSV or container table exists.
func Synthesize(durationMS, chunkMS uint64) []Entry {
	if chunkMS == 0 || durationMS == 0 {
		return nil
	}

	var entries []Entry
	n := 1
	for start := uint64(0); start < durationMS; start += chunkMS {
		end := start + chunkMS
		if end > durationMS {
			end = durationMS
		}
		entries = append(entries, Entry{
			Title:   "Chapter " + strconv.Itoa(n),
			StartMS: start,
			EndMS:   end,
		})
		n++
	}
	return entries
}

// SiblingCSVPath returns the chapters CSV path associated with filePath,
// e.g. "book.m4b" -> "book.m4b.chapters".
func SiblingCSVPath(filePath string) string {
	return filePath + ".chapters"
}
