package config

// DefaultProfiles returns the built-in l/m/h transcoding profiles described
// in §4.B: low bitrate Opus-in-Ogg, medium Opus-in-WebM, high AAC-in-ADTS,
// with an Mp3 fallback profile available to alternative sets.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"l": {
			Name:             "l",
			Container:        "ogg",
			Codec:            "opus",
			BitrateKbps:      32,
			CompressionLevel: 10,
			CutoffHz:         12000,
			Mono:             true,
			ABR:              true,
		},
		"m": {
			Name:             "m",
			Container:        "webm",
			Codec:            "opus",
			BitrateKbps:      48,
			CompressionLevel: 10,
			CutoffHz:         18000,
			ABR:              true,
		},
		"h": {
			Name:        "h",
			Container:   "adts",
			Codec:       "aac",
			BitrateKbps: 96,
		},
	}
}

// Mp3Profiles is the alternative profile set offered to user agents that
// cannot decode Opus or AAC (§4.B).
func Mp3Profiles() map[string]Profile {
	return map[string]Profile{
		"l": {Name: "l", Container: "mp3", Codec: "mp3", BitrateKbps: 32},
		"m": {Name: "m", Container: "mp3", Codec: "mp3", BitrateKbps: 64},
		"h": {Name: "h", Container: "mp3", Codec: "mp3", BitrateKbps: 128},
	}
}
