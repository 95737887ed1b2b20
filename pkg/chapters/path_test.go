package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_CollapsedForm(t *testing.T) {
	v, err := Parse("dir/book.m4b$$Chapter One$$1000-2000$$.m4b")
	require.NoError(t, err)
	assert.Equal(t, VirtualPath{
		Base: "dir/book.m4b", Collapsed: true, Name: "Chapter One",
		StartMS: 1000, EndMS: 2000, Ext: "m4b",
	}, v)
}

func TestParse_PseudoFolderForm(t *testing.T) {
	v, err := Parse("dir/book.m4b/Chapter One$$1000-2000$$.m4b")
	require.NoError(t, err)
	assert.Equal(t, VirtualPath{
		Base: "dir/book.m4b", Collapsed: false, Name: "Chapter One",
		StartMS: 1000, EndMS: 2000, Ext: "m4b",
	}, v)
}

func TestParse_NotVirtual(t *testing.T) {
	_, err := Parse("dir/book.m4b")
	assert.ErrorIs(t, err, ErrNotVirtual)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse("dir$$book$$garbage")
	assert.ErrorIs(t, err, ErrMalformedVirtualPath)
}

func TestRenderParse_RoundTrip(t *testing.T) {
	cases := []VirtualPath{
		{Base: "Author/Book/book.m4b", Collapsed: true, Name: "Intro", StartMS: 0, EndMS: 120000, Ext: "m4b"},
		{Base: "Author/Book/book.m4b", Collapsed: false, Name: "Ch. 2", StartMS: 120000, EndMS: 300000, Ext: "m4b"},
	}
	for _, v := range cases {
		got, err := Parse(Render(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestIsVirtual(t *testing.T) {
	assert.True(t, IsVirtual("a$$b$$1-2$$.mp3"))
	assert.False(t, IsVirtual("a/b.mp3"))
}
