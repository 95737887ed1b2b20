package chapters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_DecimalSeconds(t *testing.T) {
	csv := "title,start,end\nIntro,0,120.5\nChapter 1,120.5,600\n"
	entries, warnings, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Title: "Intro", StartMS: 0, EndMS: 120500}, entries[0])
	assert.Equal(t, Entry{Title: "Chapter 1", StartMS: 120500, EndMS: 600000}, entries[1])
}

func TestParseCSV_ClockTime(t *testing.T) {
	csv := "title,start,end\nIntro,00:00:00.000,00:02:00.500\n"
	entries, _, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(120500), entries[0].EndMS)
}

func TestParseCSV_NonMonotonicRowDropped(t *testing.T) {
	csv := "title,start,end\nBad,100,50\nGood,0,10\n"
	entries, warnings, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Good", entries[0].Title)
	assert.Len(t, warnings, 1)
}

func TestParseCSV_NegativeTimeDropped(t *testing.T) {
	csv := "title,start,end\nBad,-5,10\n"
	entries, warnings, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Len(t, warnings, 1)
}

func TestParseCSV_MissingHeader(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.Error(t, err)
}
