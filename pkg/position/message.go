// Package position implements the full-duplex position-synchronisation
// protocol (§4.E): a small text grammar carried over a
// github.com/gorilla/websocket connection, backed by a per-group,
// per-collection LRU of the most recently reported playback positions.
package position

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind enumerates the five message forms of §4.E's grammar.
type Kind int

const (
	KindUpdateLong Kind = iota
	KindUpdateLongTS
	KindUpdateShort
	KindQuery
	KindGenericQuery
)

// Message is one parsed position-protocol frame.
type Message struct {
	Kind Kind

	PositionSecs float64
	Group        string
	CollectionID int
	RelPath      string // update forms carry a file path; query carries a folder path
	UnixSeconds  int64  // only set for KindUpdateLongTS
}

// ErrMalformed is returned for any frame that doesn't match one of the
// five grammar forms (§4.E "Lifecycle": a protocol violation closes the
// connection).
var ErrMalformed = errors.New("position: malformed message")

// Parse decodes one text frame per §4.E's message grammar:
//
//	Update (long):        <secs>|<group>/<col>/<rel_path>
//	Update (long, ts):    <secs>|<group>/<col>/<rel_path>|<unix_seconds>
//	Update (short):       <secs>|
//	Query:                <group>/<col>/<folder_path>
//	Generic query:        ? or empty
func Parse(raw string) (Message, error) {
	parts := strings.Split(raw, "|")

	switch len(parts) {
	case 1:
		body := parts[0]
		if body == "" || body == "?" {
			return Message{Kind: KindGenericQuery}, nil
		}
		group, col, folder, err := splitGroupColPath(body)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindQuery, Group: group, CollectionID: col, RelPath: folder}, nil

	case 2:
		secs, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return Message{}, ErrMalformed
		}
		if parts[1] == "" {
			return Message{Kind: KindUpdateShort, PositionSecs: secs}, nil
		}
		group, col, relPath, err := splitGroupColPath(parts[1])
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindUpdateLong, PositionSecs: secs, Group: group, CollectionID: col, RelPath: relPath}, nil

	case 3:
		secs, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return Message{}, ErrMalformed
		}
		group, col, relPath, err := splitGroupColPath(parts[1])
		if err != nil {
			return Message{}, err
		}
		ts, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Message{}, ErrMalformed
		}
		return Message{Kind: KindUpdateLongTS, PositionSecs: secs, Group: group, CollectionID: col, RelPath: relPath, UnixSeconds: ts}, nil

	default:
		return Message{}, ErrMalformed
	}
}

// splitGroupColPath decodes "<group>/<col>/<path>", where path may be empty
// (root folder) or itself contain slashes.
func splitGroupColPath(s string) (group string, col int, path string, err error) {
	group, rest, ok := strings.Cut(s, "/")
	if !ok || group == "" {
		return "", 0, "", ErrMalformed
	}

	var colStr string
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		colStr, path = rest[:idx], rest[idx+1:]
	} else {
		colStr, path = rest, ""
	}

	col, convErr := strconv.Atoi(colStr)
	if convErr != nil {
		return "", 0, "", ErrMalformed
	}
	return group, col, path, nil
}
