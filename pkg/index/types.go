// Package index builds and maintains the on-disk indexed cache of a
// collection's directory tree: folder records enriched with audio
// metadata, a search index, and a recent-folders ring, kept coherent with
// the live file system (§4.A).
package index

import "github.com/ondrejsika/audioserve-go/pkg/chapters"

// FolderRecord is the indexed, JSON-serializable summary of one directory
// (§3 "FolderRecord").
type FolderRecord struct {
	MTime                    int64             `json:"mtime"`
	Subfolders               []Subfolder       `json:"subfolders"`
	Files                    []FileEntry       `json:"files"`
	Cover                    string            `json:"cover,omitempty"`
	Description              string            `json:"description,omitempty"`
	Tags                     map[string]string `json:"tags,omitempty"`
	TotalTimeSecs            uint32            `json:"total_time"`
	CoverAndDescriptionMimes map[string]string `json:"cover_and_description_mimes,omitempty"`
}

// Subfolder is one entry of a FolderRecord's subfolders list.
type Subfolder struct {
	Name            string `json:"name"`
	Path            string `json:"path"`
	IsFilePseudo    bool   `json:"is_file_pseudo_folder,omitempty"`
}

// FileMeta carries the duration/bitrate pair, zeroed if probing failed
// (§7 "Upstream" degrade-not-fail policy).
type FileMeta struct {
	DurationSecs uint32 `json:"duration_secs"`
	BitrateKbps  uint32 `json:"bitrate_kbps"`
}

// Section marks a FileEntry as a chapter slice of a backing file.
type Section struct {
	StartMS    uint64 `json:"start_ms"`
	DurationMS uint64 `json:"duration_ms"`
}

// FileEntry is one file (real or virtual-chapter) inside a FolderRecord.
type FileEntry struct {
	Name    string            `json:"name"`
	Path    string            `json:"path"`
	Mime    string            `json:"mime"`
	Meta    FileMeta          `json:"meta"`
	Section *Section          `json:"section,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// ProbedFile is the per-file result of classification + metadata probing,
// the intermediate shape ingest.go builds before assembling a FolderRecord.
type ProbedFile struct {
	Name     string
	Path     string // relative to collection root
	Mime     string
	Meta     FileMeta
	Tags     map[string]string
	Chapters []chapters.Entry // non-empty only for the lone-audio-child collapse case
}
