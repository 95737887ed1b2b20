// Package config resolves the single immutable configuration record the
// rest of the process is built around (§9 "no singletons" — everything here
// is constructed once at startup and passed by handle). CLI flags and their
// paired AUDIOSERVE_<FLAG> environment variables are parsed together with
// github.com/jessevdk/go-flags, which resolves a flag's env tag whenever the
// flag itself is absent.
package config

import (
	"os"
	"regexp"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// Options is the raw CLI/env-parsed option set, the input to Resolve.
type Options struct {
	SharedSecret      string `long:"shared-secret" env:"AUDIOSERVE_SHARED_SECRET" description:"shared secret clients authenticate with"`
	NoAuthentication  bool   `long:"no-authentication" env:"AUDIOSERVE_NO_AUTHENTICATION" description:"disable authentication entirely"`
	DataDir           string `long:"data-dir" env:"AUDIOSERVE_DATA_DIR" default:"./data" description:"directory for the server secret, per-collection stores, and caches"`
	SecretFile        string `long:"secret-file" env:"AUDIOSERVE_SECRET_FILE" description:"path to a file containing the server secret (overrides the auto-generated one)"`
	Listen            string `long:"listen" env:"AUDIOSERVE_LISTEN" default:"0.0.0.0:3000" description:"address:port to listen on"`
	SSLKey            string `long:"ssl-key" env:"AUDIOSERVE_SSL_KEY" description:"TLS private key path"`
	SSLCert           string `long:"ssl-cert" env:"AUDIOSERVE_SSL_CERT" description:"TLS certificate path"`
	URLPathPrefix     string `long:"url-path-prefix" env:"AUDIOSERVE_URL_PATH_PREFIX" description:"prefix stripped from incoming request paths"`
	BehindProxy       bool   `long:"behind-proxy" env:"AUDIOSERVE_BEHIND_PROXY" description:"trust X-Forwarded-* headers from a reverse proxy"`
	CORS              bool   `long:"cors" env:"AUDIOSERVE_CORS" description:"attach permissive CORS headers"`
	CORSRegex         string `long:"cors-regex" env:"AUDIOSERVE_CORS_REGEX" description:"only attach CORS headers to Origins matching this regex"`
	LimitRate         int    `long:"limit-rate" env:"AUDIOSERVE_LIMIT_RATE" description:"requests/sec token-bucket limit, 0 disables"`
	MaxTranscodings   int    `long:"transcoding-max-parallel-processes" env:"AUDIOSERVE_TRANSCODING_MAX_PARALLEL_PROCESSES" description:"max concurrent transcoder children, default 2x CPU count"`
	TCacheDir         string `long:"t-cache-dir" env:"AUDIOSERVE_T_CACHE_DIR" description:"transcoding cache directory, default <data-dir>/audioserve-cache"`
	TCacheSizeMB      int64  `long:"t-cache-size" env:"AUDIOSERVE_T_CACHE_SIZE" default:"1024" description:"max transcoding cache size in MB"`
	TCacheMaxFiles    int    `long:"t-cache-max-files" env:"AUDIOSERVE_T_CACHE_MAX_FILES" default:"5000" description:"max transcoding cache entry count"`
	TCacheDisable     bool   `long:"t-cache-disable" env:"AUDIOSERVE_T_CACHE_DISABLE" description:"disable the transcoding cache at runtime"`
	AllowSymlinks     bool   `long:"allow-symlinks" env:"AUDIOSERVE_ALLOW_SYMLINKS" description:"follow symbolic links while scanning"`
	IgnoreChaptersMeta bool  `long:"ignore-chapters-meta" env:"AUDIOSERVE_IGNORE_CHAPTERS_META" description:"ignore container chapter metadata, use CSV/synthesis only"`
	ChaptersFromDuration float64 `long:"chapters-from-duration" env:"AUDIOSERVE_CHAPTERS_FROM_DURATION" description:"synthesize chapters for files longer than this many seconds"`
	ChaptersDuration  float64 `long:"chapters-duration" env:"AUDIOSERVE_CHAPTERS_DURATION" default:"1800" description:"target chapter size in seconds for synthesis"`
	NoDirCollaps      bool   `long:"no-dir-collaps" env:"AUDIOSERVE_NO_DIR_COLLAPS" description:"disable single-file chapter-collapse into the parent folder"`
	CollapseCDFolders bool   `long:"collapse-cd-folders" env:"AUDIOSERVE_COLLAPSE_CD_FOLDERS" description:"merge CD1/CD2/... child folders into their parent"`
	CDFolderRegexp    string `long:"cd-folder-regexp" env:"AUDIOSERVE_CD_FOLDER_REGEXP" default:"(?i)^CD[ \\-_]?\\s*\\d+\\s*$" description:"override the CD-folder matching regex"`
	Tags              bool   `long:"tags" env:"AUDIOSERVE_TAGS" description:"enable tag extraction"`
	TagsCustom        string `long:"tags-custom" env:"AUDIOSERVE_TAGS_CUSTOM" description:"comma separated extra tag keys to extract"`
	TagsEncoding      string `long:"tags-encoding" env:"AUDIOSERVE_TAGS_ENCODING" description:"fallback text encoding for legacy ID3 tags; parsed but not used by tag decoding"`
	PositionsBackupFile     string `long:"positions-backup-file" env:"AUDIOSERVE_POSITIONS_BACKUP_FILE" description:"path for the positions JSON backup dump"`
	PositionsBackupSchedule string `long:"positions-backup-schedule" env:"AUDIOSERVE_POSITIONS_BACKUP_SCHEDULE" description:"cron-like 5-field schedule for the positions backup"`
	ForceCacheUpdate        bool   `long:"force-cache-update" env:"AUDIOSERVE_FORCE_CACHE_UPDATE" description:"force a full rescan of every collection on startup"`
	DisableFolderDownload   bool   `long:"disable-folder-download" env:"AUDIOSERVE_DISABLE_FOLDER_DOWNLOAD" description:"disable the /download endpoint"`
	Collate           string `long:"collate" env:"AUDIOSERVE_COLLATE" description:"locale used for alphabetic folder ordering"`

	Config      flags.Filename `long:"config" description:"config file path; accepted as an option, the file is not read"`
	PrintConfig bool           `long:"print-config" description:"accepted as an option; the configuration is not printed"`

	Positional struct {
		Collections []string `positional-arg-name:"collection" description:"media root, optionally suffixed :option,option"`
	} `positional-args:"yes" required:"1"`
}

// Profile is a named transcoding profile (§4.B).
type Profile struct {
	Name              string
	Container         string // "ogg" | "webm" | "mp3" | "adts"
	Codec             string // "opus" | "mp3" | "aac"
	BitrateKbps       int
	CompressionLevel  int
	CutoffHz          int
	Mono              bool
	ABR               bool
}

// AltProfileSet is one entry of the ordered (user-agent-regex, profile-set)
// alternative-profile list described in §4.B.
type AltProfileSet struct {
	UserAgentRegex *regexp.Regexp
	Profiles       map[string]Profile // "l" | "m" | "h" -> Profile
}

// Config is the resolved, immutable configuration record built once at
// startup. No package outside of config mutates it.
type Config struct {
	SharedSecret     string
	NoAuthentication bool
	ServerSecret     []byte // loaded/generated 128+ bit secret, independent of SharedSecret
	TokenValidFor    time.Duration

	DataDir string
	Listen  string
	SSLKey  string
	SSLCert string

	URLPathPrefix string
	BehindProxy   bool
	CORS          bool
	CORSRegex     *regexp.Regexp

	LimitRatePerSec int

	MaxTranscodings int
	DefaultProfiles map[string]Profile
	AltProfileSets  []AltProfileSet

	TranscodeCacheDir      string
	TranscodeCacheMaxBytes int64
	TranscodeCacheMaxFiles int
	TranscodeCacheDisable  bool

	AllowSymlinks        bool
	IgnoreChaptersMeta   bool
	ChaptersFromDuration time.Duration
	ChaptersDuration     time.Duration
	CollapseCDFolders    bool
	CDFolderRegexp       *regexp.Regexp
	NoDirCollaps         bool

	ExtractTags  bool
	CustomTags   []string
	TagsEncoding string

	PositionsBackupFile     string
	PositionsBackupSchedule string

	ForceCacheUpdate      bool
	DisableFolderDownload bool
	Collate               string

	Collections []CollectionOption
}

// CollectionOption is one positional collection-root argument, parsed into
// its path and trailing :option,option suffix.
type CollectionOption struct {
	Root    string
	NoCache bool
}

// Load parses CLI flags + environment variables and resolves them into a
// Config. args should be os.Args[1:].
func Load(args []string) (*Config, *Options, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, errors.WithStack(err)
	}

	cfg, err := Resolve(&opts)
	if err != nil {
		return nil, &opts, err
	}
	return cfg, &opts, nil
}

// Resolve builds a Config from parsed Options, applying defaults that
// depend on other fields (e.g. the transcoding cache directory defaulting
// under DataDir).
func Resolve(opts *Options) (*Config, error) {
	cfg := &Config{
		SharedSecret:     opts.SharedSecret,
		NoAuthentication: opts.NoAuthentication,
		TokenValidFor:    10 * 24 * time.Hour,

		DataDir: opts.DataDir,
		Listen:  opts.Listen,
		SSLKey:  opts.SSLKey,
		SSLCert: opts.SSLCert,

		URLPathPrefix: opts.URLPathPrefix,
		BehindProxy:   opts.BehindProxy,
		CORS:          opts.CORS,

		LimitRatePerSec: opts.LimitRate,

		MaxTranscodings: opts.MaxTranscodings,
		DefaultProfiles: DefaultProfiles(),

		TranscodeCacheMaxBytes: opts.TCacheSizeMB * 1024 * 1024,
		TranscodeCacheMaxFiles: opts.TCacheMaxFiles,
		TranscodeCacheDisable:  opts.TCacheDisable,

		AllowSymlinks:        opts.AllowSymlinks,
		IgnoreChaptersMeta:   opts.IgnoreChaptersMeta,
		ChaptersFromDuration: time.Duration(opts.ChaptersFromDuration * float64(time.Second)),
		ChaptersDuration:     time.Duration(opts.ChaptersDuration * float64(time.Second)),
		CollapseCDFolders:    opts.CollapseCDFolders,
		NoDirCollaps:         opts.NoDirCollaps,

		ExtractTags:  opts.Tags,
		TagsEncoding: opts.TagsEncoding,

		PositionsBackupFile:     opts.PositionsBackupFile,
		PositionsBackupSchedule: opts.PositionsBackupSchedule,

		ForceCacheUpdate:      opts.ForceCacheUpdate,
		DisableFolderDownload: opts.DisableFolderDownload,
		Collate:               opts.Collate,
	}

	if opts.TagsCustom != "" {
		cfg.CustomTags = splitAndTrim(opts.TagsCustom)
	}

	if opts.CORSRegex != "" {
		re, err := regexp.Compile(opts.CORSRegex)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --cors-regex")
		}
		cfg.CORSRegex = re
	}

	cdRe, err := regexp.Compile(opts.CDFolderRegexp)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --cd-folder-regexp")
	}
	cfg.CDFolderRegexp = cdRe

	if cfg.MaxTranscodings <= 0 {
		cfg.MaxTranscodings = 2 * numCPU()
	}

	cfg.TranscodeCacheDir = opts.TCacheDir
	if cfg.TranscodeCacheDir == "" {
		cfg.TranscodeCacheDir = cfg.DataDir + "/audioserve-cache"
	}

	for _, raw := range opts.Positional.Collections {
		cfg.Collections = append(cfg.Collections, parseCollectionOption(raw))
	}
	if len(cfg.Collections) == 0 {
		return nil, errors.New("at least one collection root is required")
	}

	secret, err := loadOrCreateServerSecret(opts.SecretFile, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.ServerSecret = secret

	return cfg, nil
}

func splitAndTrim(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if tok := trimSpace(s[start:i]); tok != "" {
				out = append(out, tok)
			}
			start = i + 1
		}
	}
	return out
}

func trimSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

// parseCollectionOption splits "path:opt1,opt2" into its root and options.
func parseCollectionOption(raw string) CollectionOption {
	path := raw
	var optionsPart string
	for i := 0; i < len(raw); i++ {
		if raw[i] == ':' {
			path = raw[:i]
			optionsPart = raw[i+1:]
			break
		}
	}

	opt := CollectionOption{Root: path}
	for _, o := range splitAndTrim(optionsPart) {
		if o == "no-cache" {
			opt.NoCache = true
		}
	}
	return opt
}
