package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCollectionOption_PlainPath(t *testing.T) {
	opt := parseCollectionOption("/media/books")
	assert.Equal(t, "/media/books", opt.Root)
	assert.False(t, opt.NoCache)
}

func TestParseCollectionOption_WithNoCache(t *testing.T) {
	opt := parseCollectionOption("/media/books:no-cache")
	assert.Equal(t, "/media/books", opt.Root)
	assert.True(t, opt.NoCache)
}

func TestParseCollectionOption_UnknownOptionIgnored(t *testing.T) {
	opt := parseCollectionOption("/media/books:bogus")
	assert.Equal(t, "/media/books", opt.Root)
	assert.False(t, opt.NoCache)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitAndTrim("a, b ,c"))
	assert.Nil(t, splitAndTrim(""))
}

func TestResolve_RequiresAtLeastOneCollection(t *testing.T) {
	opts := &Options{CDFolderRegexp: `^CD\d+$`}
	_, err := Resolve(opts)
	assert.Error(t, err)
}

func TestResolve_DefaultsTranscodingCacheUnderDataDir(t *testing.T) {
	opts := &Options{
		DataDir:        "/tmp/audioserve-data",
		CDFolderRegexp: `^CD\d+$`,
		SecretFile:     "/tmp/audioserve-data/secret-test-only",
	}
	opts.Positional.Collections = []string{"/media/books"}

	cfg, err := Resolve(opts)
	if assert.NoError(t, err) {
		assert.Equal(t, "/tmp/audioserve-data/audioserve-cache", cfg.TranscodeCacheDir)
		assert.Len(t, cfg.Collections, 1)
		assert.Equal(t, "/media/books", cfg.Collections[0].Root)
		assert.NotZero(t, cfg.MaxTranscodings)
	}
}
