// Package overlap scores the similarity of token sequences by comparing
// their n-gram fingerprint sets.
package overlap

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NGramSizes are the window lengths fingerprinted for every session.
var NGramSizes = []int{3, 4, 5}

// Set is a deduplicated set of fingerprints.
type Set map[uint64]struct{}

// Fingerprints returns the digests of every contiguous 3-, 4- and 5-token
// window. Tokens are joined and re-split on whitespace first, so a token
// carrying inner spaces counts as several words.
func Fingerprints(tokens []string) Set {
	words := strings.Fields(strings.Join(tokens, " "))
	set := make(Set)
	for _, n := range NGramSizes {
		for i := 0; i+n <= len(words); i++ {
			set[xxhash.Sum64String(strings.Join(words[i:i+n], " "))] = struct{}{}
		}
	}
	return set
}

// Vocabulary returns the digests of the distinct words of tokens.
func Vocabulary(tokens []string) Set {
	set := make(Set)
	for _, w := range strings.Fields(strings.Join(tokens, " ")) {
		set[xxhash.Sum64String(w)] = struct{}{}
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when either set is empty.
func Jaccard(a, b Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for h := range small {
		if _, ok := large[h]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Score is the pattern overlap of two sessions, a value in [0,1].
// Sessions with fewer than three words score 0.
func Score(a, b []string) float64 {
	return Jaccard(Fingerprints(a), Fingerprints(b))
}

// VocabularyScore is the Jaccard index of the two sessions' word sets.
func VocabularyScore(a, b []string) float64 {
	return Jaccard(Vocabulary(a), Vocabulary(b))
}
