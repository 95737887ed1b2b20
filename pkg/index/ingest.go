package index

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"

	"github.com/ondrejsika/audioserve-go/pkg/chapters"
	"github.com/ondrejsika/audioserve-go/pkg/collection"
	"github.com/ondrejsika/audioserve-go/pkg/mediaprobe"
)

// IngestOptions mirrors the process-wide config knobs that shape ingestion
// (§4.A, §6).
type IngestOptions struct {
	AllowSymlinks     bool
	CollapseCDFolders bool
	CDFolderRegexp    *regexp.Regexp
	NoDirCollaps      bool
	ExtractTags       bool
	CustomTags        []string
	Chapters          chapters.Options
}

// Ingest reads one directory (not recursively) and produces its
// FolderRecord, probing audio files, classifying cover/description,
// applying CD-collapse and single-file chapter-collapse, and promoting
// folder-uniform tags (§4.A "Per-folder ingestion").
func Ingest(col *collection.Collection, relPath string, opts IngestOptions, log logger.Logger) (*FolderRecord, error) {
	absPath := col.AbsPath(relPath)

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	c := classifyEntries(entries)

	var probed []ProbedFile
	for _, e := range c.audio {
		pf, err := probeOne(col, relPath, e.Name(), opts, log)
		if err != nil {
			log.Warn("failed to probe audio file, degrading to zero metadata", logger.Data{"path": pf.Path, "error": err.Error()})
		}
		probed = append(probed, pf)
	}

	var subfolders []Subfolder
	for _, d := range c.subdirs {
		if opts.CollapseCDFolders && matchesCDFolder(d.Name(), opts.CDFolderRegexp) {
			cdFiles, err := ingestCDFolder(col, relPath, d.Name(), opts, log)
			if err != nil {
				log.Warn("failed to collapse CD folder", logger.Data{"folder": d.Name(), "error": err.Error()})
				continue
			}
			probed = append(probed, cdFiles...)
			continue
		}
		subfolders = append(subfolders, Subfolder{
			Name: d.Name(),
			Path: joinRel(relPath, d.Name()),
		})
	}

	var files []FileEntry
	var folderTags map[string]string
	if !opts.NoDirCollaps && len(subfolders) == 0 && len(probed) == 1 && len(probed[0].Chapters) > 0 {
		subfolders = chaptersToSubfolders(relPath, probed[0])
	} else {
		for _, pf := range probed {
			files = append(files, FileEntry{
				Name: pf.Name,
				Path: pf.Path,
				Mime: pf.Mime,
				Meta: pf.Meta,
				Tags: pf.Tags,
			})
		}
		folderTags = promoteTags(files)
	}

	record := &FolderRecord{
		MTime:       info.ModTime().Unix(),
		Subfolders:  subfolders,
		Files:       files,
		Tags:          folderTags,
		Cover:         joinRel(relPath, c.cover),
		Description:   joinRel(relPath, c.desc),
		TotalTimeSecs: sumProbedDuration(probed),
	}
	record.CoverAndDescriptionMimes = coverDescMimes(c.cover, c.desc)

	return record, nil
}

func sumProbedDuration(probed []ProbedFile) uint32 {
	var total uint32
	for _, pf := range probed {
		total += pf.Meta.DurationSecs
	}
	return total
}

func coverDescMimes(cover, desc string) map[string]string {
	m := map[string]string{}
	if cover != "" {
		m["cover"] = mimeForExt(filepath.Ext(cover))
	}
	if desc != "" {
		m["description"] = mimeForExt(filepath.Ext(desc))
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".txt":
		return "text/plain"
	case ".html":
		return "text/html"
	case ".md":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}

func joinRel(dir, name string) string {
	if name == "" {
		return ""
	}
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

func probeOne(col *collection.Collection, relDir, name string, opts IngestOptions, log logger.Logger) (ProbedFile, error) {
	rel := joinRel(relDir, name)
	abs := col.AbsPath(rel)

	pf := ProbedFile{
		Name: name,
		Path: rel,
		Mime: mimeForAudioExt(filepath.Ext(name)),
	}

	result, err := mediaprobe.Probe(abs)
	if err != nil {
		return pf, err
	}

	pf.Meta = FileMeta{DurationSecs: result.DurationSecs, BitrateKbps: result.BitrateKbps}
	if opts.ExtractTags {
		pf.Tags = filterTags(result.Tags, opts.CustomTags)
	}

	containerChapters := make([]chapters.ContainerChapter, 0, len(result.Chapters))
	for _, ch := range result.Chapters {
		containerChapters = append(containerChapters, chapters.ContainerChapter{
			Title: ch.Title, StartMS: ch.StartMS, EndMS: ch.EndMS,
		})
	}
	durationMS := uint64(result.DurationSecs) * 1000
	entries, err := chapters.Acquire(log, abs, durationMS, containerChapters, opts.Chapters)
	if err == nil {
		pf.Chapters = entries
	}

	return pf, nil
}

func mimeForAudioExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".m4b":
		return "audio/mp4"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

var knownTagKeys = []string{"album", "artist", "genre", "year"}

func filterTags(tags map[string]string, custom []string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	keys := append(append([]string{}, knownTagKeys...), custom...)
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := tags[k]; ok && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// promoteTags implements §4.A step 5: lift a tag key to folder level (the
// caller assembles the map separately) when every file shares its value,
// then strips it from the per-file maps.
func promoteTags(files []FileEntry) map[string]string {
	if len(files) == 0 {
		return nil
	}

	counts := map[string]map[string]int{}
	for _, f := range files {
		for k, v := range f.Tags {
			if counts[k] == nil {
				counts[k] = map[string]int{}
			}
			counts[k][v]++
		}
	}

	promoted := map[string]string{}
	for k, values := range counts {
		if len(values) != 1 {
			continue
		}
		for v, n := range values {
			if n == len(files) {
				promoted[k] = v
			}
		}
	}

	for k := range promoted {
		for i := range files {
			delete(files[i].Tags, k)
			if len(files[i].Tags) == 0 {
				files[i].Tags = nil
			}
		}
	}

	if len(promoted) == 0 {
		return nil
	}
	return promoted
}

func chaptersToSubfolders(relDir string, pf ProbedFile) []Subfolder {
	base := pf.Path
	subs := make([]Subfolder, 0, len(pf.Chapters))
	ext := strings.TrimPrefix(filepath.Ext(pf.Name), ".")
	for _, ch := range pf.Chapters {
		vp := chapters.VirtualPath{
			Base: base, Collapsed: true, Name: ch.Title,
			StartMS: ch.StartMS, EndMS: ch.EndMS, Ext: ext,
		}
		vpath := chapters.Render(vp)
		subs = append(subs, Subfolder{
			Name:         ch.Title,
			Path:         vpath,
			IsFilePseudo: true,
		})
	}
	return subs
}

func ingestCDFolder(col *collection.Collection, relDir, cdName string, opts IngestOptions, log logger.Logger) ([]ProbedFile, error) {
	absCD := col.AbsPath(joinRel(relDir, cdName))
	entries, err := os.ReadDir(absCD)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	c := classifyEntries(entries)

	var out []ProbedFile
	for _, e := range c.audio {
		pf, err := probeOne(col, joinRel(relDir, cdName), e.Name(), opts, log)
		if err != nil {
			log.Warn("failed to probe audio file in CD folder", logger.Data{"path": pf.Path, "error": err.Error()})
		}
		pf.Name = cdName + " - " + pf.Name
		out = append(out, pf)
	}
	return out, nil
}
