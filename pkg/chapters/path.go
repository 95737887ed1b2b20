package chapters

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Sigil is the reserved marker delimiting a virtual chapter's encoded path
// segments (§3 "the sigil $$ is reserved in all paths").
const Sigil = "$$"

// VirtualPath is the decoded form of a chapter path, per the §4.C grammar
// BASE[/|$$]CHAPTER_NAME$$START_MS-END_MS$$.EXT.
type VirtualPath struct {
	Base       string // the backing file's path, without the chapter suffix
	Collapsed  bool   // true: BASE$$NAME..., false: BASE/NAME... (pseudo-folder form)
	Name       string
	StartMS    uint64
	EndMS      uint64
	Ext        string // without leading dot
}

// ErrNotVirtual is returned by Parse when path carries no Sigil.
var ErrNotVirtual = errors.New("chapters: not a virtual chapter path")

// ErrMalformedVirtualPath is returned by Parse when path contains the sigil
// but does not match the grammar.
var ErrMalformedVirtualPath = errors.New("chapters: malformed virtual chapter path")

// IsVirtual reports whether path contains the reserved sigil, the ingress
// check required by §3 invariant I2 and §4.A step 1 ("reject names
// containing $$").
func IsVirtual(path string) bool {
	return strings.Contains(path, Sigil)
}

// Parse decodes a virtual chapter path. It returns ErrNotVirtual if path
// contains no sigil, ErrMalformedVirtualPath if it does but doesn't match
// the grammar.
func Parse(path string) (VirtualPath, error) {
	if !IsVirtual(path) {
		return VirtualPath{}, ErrNotVirtual
	}

	parts := strings.Split(path, Sigil)

	var base, name, rangeStr, extPart string
	var collapsed bool

	switch len(parts) {
	case 4:
		// BASE $$ NAME $$ RANGE $$ .EXT
		collapsed = true
		base, name, rangeStr, extPart = parts[0], parts[1], parts[2], parts[3]
	case 3:
		// BASE/NAME $$ RANGE $$ .EXT
		collapsed = false
		head := parts[0]
		slash := strings.LastIndexByte(head, '/')
		if slash < 0 {
			return VirtualPath{}, ErrMalformedVirtualPath
		}
		base, name, rangeStr, extPart = head[:slash], head[slash+1:], parts[1], parts[2]
	default:
		return VirtualPath{}, ErrMalformedVirtualPath
	}

	if base == "" || name == "" {
		return VirtualPath{}, ErrMalformedVirtualPath
	}

	startStr, endStr, ok := strings.Cut(rangeStr, "-")
	if !ok {
		return VirtualPath{}, ErrMalformedVirtualPath
	}
	start, err := strconv.ParseUint(startStr, 10, 64)
	if err != nil {
		return VirtualPath{}, ErrMalformedVirtualPath
	}
	end, err := strconv.ParseUint(endStr, 10, 64)
	if err != nil {
		return VirtualPath{}, ErrMalformedVirtualPath
	}

	if !strings.HasPrefix(extPart, ".") || len(extPart) < 2 {
		return VirtualPath{}, ErrMalformedVirtualPath
	}

	return VirtualPath{
		Base:      base,
		Collapsed: collapsed,
		Name:      name,
		StartMS:   start,
		EndMS:     end,
		Ext:       extPart[1:],
	}, nil
}

// Render encodes v back into its path string. Parse is its left inverse:
// Parse(Render(v)) == v for every well-formed v (§8 round-trip
// property).
func Render(v VirtualPath) string {
	var sb strings.Builder
	sb.WriteString(v.Base)
	if v.Collapsed {
		sb.WriteString(Sigil)
	} else {
		sb.WriteByte('/')
	}
	sb.WriteString(v.Name)
	sb.WriteString(Sigil)
	sb.WriteString(strconv.FormatUint(v.StartMS, 10))
	sb.WriteByte('-')
	sb.WriteString(strconv.FormatUint(v.EndMS, 10))
	sb.WriteString(Sigil)
	sb.WriteByte('.')
	sb.WriteString(v.Ext)
	return sb.String()
}
