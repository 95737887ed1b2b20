package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchIndex_ConjunctiveMatch(t *testing.T) {
	s := NewSearchIndex()
	s.Update("Author One/Book Title", 100)
	s.Update("Author Two/Other Book", 200)

	results := s.Search("author book", OrderAlpha)
	assert.ElementsMatch(t, []string{"Author One/Book Title", "Author Two/Other Book"}, results)

	results = s.Search("one", OrderAlpha)
	assert.Equal(t, []string{"Author One/Book Title"}, results)
}

func TestSearchIndex_ExcludesDescendantsOfMatches(t *testing.T) {
	s := NewSearchIndex()
	s.Update("Author", 100)
	s.Update("Author/Book", 200)

	results := s.Search("author", OrderAlpha)
	assert.Equal(t, []string{"Author"}, results)
}

func TestSearchIndex_OrderMTimeDescending(t *testing.T) {
	s := NewSearchIndex()
	s.Update("Author/Old", 100)
	s.Update("Author/New", 200)

	results := s.Search("author", OrderMTime)
	assert.Equal(t, []string{"Author/New", "Author/Old"}, results)
}

func TestSearchIndex_RemoveDropsFromPostings(t *testing.T) {
	s := NewSearchIndex()
	s.Update("Author/Book", 100)
	s.Remove("Author/Book")

	assert.Empty(t, s.Search("author", OrderAlpha))
}

func TestSearchIndex_NoMatchReturnsNil(t *testing.T) {
	s := NewSearchIndex()
	s.Update("Author/Book", 100)
	assert.Empty(t, s.Search("nonexistent", OrderAlpha))
}

func TestTokenize_LowercasesAndDedupes(t *testing.T) {
	assert.Equal(t, []string{"author", "book"}, tokenize("Author/book Author"))
}
