// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// StopwordSet is an immutable set of lowercase words dropped by aggressive
// normalization. The zero value is an empty set.
type StopwordSet struct {
	words map[string]struct{}
}

// NewStopwordSet builds a set from words. Entries are lowercased and trimmed.
func NewStopwordSet(words ...string) StopwordSet {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m[w] = struct{}{}
		}
	}
	return StopwordSet{words: m}
}

// ReadStopwords reads one word per line. Blank lines and lines starting
// with '#' are ignored.
func ReadStopwords(r io.Reader) (StopwordSet, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return StopwordSet{}, eris.Wrap(err, "textnorm: read stopwords")
	}
	return NewStopwordSet(words...), nil
}

// Contains reports whether w is a stopword.
func (s StopwordSet) Contains(w string) bool {
	_, ok := s.words[w]
	return ok
}

// Len returns the number of words in the set.
func (s StopwordSet) Len() int { return len(s.words) }

var (
	englishOnce sync.Once
	english     StopwordSet
)

// EnglishStopwords returns the built-in English stopword list.
func EnglishStopwords() StopwordSet {
	englishOnce.Do(func() {
		english = NewStopwordSet(englishWords...)
	})
	return english
}

// englishWords is the NLTK English stopword corpus.
var englishWords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're",
	"you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves", "he",
	"him", "his", "himself", "she", "she's", "her", "hers", "herself", "it", "it's",
	"its", "itself", "they", "them", "their", "theirs", "themselves", "what", "which",
	"who", "whom", "this", "that", "that'll", "these", "those", "am", "is", "are",
	"was", "were", "be", "been", "being", "have", "has", "had", "having", "do",
	"does", "did", "doing", "a", "an", "the", "and", "but", "if", "or", "because",
	"as", "until", "while", "of", "at", "by", "for", "with", "about", "against",
	"between", "into", "through", "during", "before", "after", "above", "below",
	"to", "from", "up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why", "how", "all",
	"any", "both", "each", "few", "more", "most", "other", "some", "such", "no",
	"nor", "not", "only", "own", "same", "so", "than", "too", "very", "s", "t",
	"can", "will", "just", "don", "don't", "should", "should've", "now", "d", "ll",
	"m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn", "couldn't",
	"didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn", "hasn't",
	"haven", "haven't", "isn", "isn't", "ma", "mightn", "mightn't", "mustn",
	"mustn't", "needn", "needn't", "shan", "shan't", "shouldn", "shouldn't",
	"wasn", "wasn't", "weren", "weren't", "won", "won't", "wouldn", "wouldn't",
}
