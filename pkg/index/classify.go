package index

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ondrejsika/audioserve-go/pkg/chapters"
	"github.com/ondrejsika/audioserve-go/pkg/mediaprobe"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
var textExtensions = map[string]bool{".txt": true, ".html": true, ".md": true}

// DefaultCDFolderRegexp is the built-in CD-collapse pattern (§4.A step 4).
var DefaultCDFolderRegexp = regexp.MustCompile(`(?i)^CD[ \-_]?\s*\d+\s*$`)

type classified struct {
	subdirs []os.DirEntry // eligible child directories, after CD-collapse expansion
	audio   []os.DirEntry
	cover   string // first image in deterministic (name-sorted) order
	desc    string // first text file in deterministic order
}

// classifyEntries applies §4.A steps 1-2: reject reserved/hidden names,
// bucket the rest by kind. entries must already be sorted by Name.
func classifyEntries(entries []os.DirEntry) classified {
	var c classified
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || chapters.IsVirtual(name) {
			continue
		}

		if e.IsDir() {
			c.subdirs = append(c.subdirs, e)
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case mediaprobe.Supported(ext):
			c.audio = append(c.audio, e)
		case imageExtensions[ext]:
			if c.cover == "" {
				c.cover = name
			}
		case textExtensions[ext]:
			if c.desc == "" {
				c.desc = name
			}
		}
	}
	return c
}

// matchesCDFolder reports whether name matches the CD-collapse pattern.
func matchesCDFolder(name string, custom *regexp.Regexp) bool {
	re := DefaultCDFolderRegexp
	if custom != nil {
		re = custom
	}
	return re.MatchString(name)
}
