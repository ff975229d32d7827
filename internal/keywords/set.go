// Package keywords turns issue text and labels into normalized keyword sets.
package keywords

import (
	"sort"
	"strings"
)

// KeywordSet is a deduplicated set of lowercase tokens. Order is irrelevant;
// use Sorted for deterministic output.
type KeywordSet map[string]struct{}

// NewKeywordSet builds a set from already-normalized words.
func NewKeywordSet(words ...string) KeywordSet {
	s := make(KeywordSet, len(words))
	for _, w := range words {
		s.Add(w)
	}
	return s
}

// Add inserts a word, lowercased and trimmed. Empty words are ignored.
func (s KeywordSet) Add(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	s[word] = struct{}{}
}

// Contains reports whether word is in the set.
func (s KeywordSet) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Len returns the number of keywords.
func (s KeywordSet) Len() int {
	return len(s)
}

// Merge adds every word of other to s.
func (s KeywordSet) Merge(other KeywordSet) {
	for w := range other {
		s[w] = struct{}{}
	}
}

// Union returns a new set holding the words of all sets.
func Union(sets ...KeywordSet) KeywordSet {
	out := make(KeywordSet)
	for _, set := range sets {
		out.Merge(set)
	}
	return out
}

// Intersect returns the words present in both s and other.
func (s KeywordSet) Intersect(other KeywordSet) KeywordSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(KeywordSet)
	for w := range small {
		if _, ok := large[w]; ok {
			out[w] = struct{}{}
		}
	}
	return out
}

// Sorted returns the keywords in lexical order.
func (s KeywordSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// String joins the sorted keywords with single spaces.
func (s KeywordSet) String() string {
	return strings.Join(s.Sorted(), " ")
}
