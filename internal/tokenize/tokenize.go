// Package tokenize splits mixed-script text into lowercase terms. Latin-like
// words come out whole; Han and kana runs come out as unigrams plus bigrams so
// that Chinese and Japanese text yields useful overlap without a dictionary.
package tokenize

import (
	"regexp"
	"strings"
	"unicode"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Tokenizer produces terms with stopwords removed.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// New returns a Tokenizer using the built-in English stopword list.
func New() *Tokenizer {
	return &Tokenizer{stopwords: defaultStopwords()}
}

// Tokens returns the terms of text in order of appearance.
func (t *Tokenizer) Tokens(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, word := range raw {
		for _, seg := range splitScripts(word) {
			if !seg.cjk {
				if !t.IsStopword(seg.text) {
					out = append(out, seg.text)
				}
				continue
			}
			runes := []rune(seg.text)
			for i, r := range runes {
				out = append(out, string(r))
				if i+1 < len(runes) {
					out = append(out, string(runes[i:i+2]))
				}
			}
		}
	}
	return out
}

// IsStopword reports whether tok is filtered out.
func (t *Tokenizer) IsStopword(tok string) bool {
	_, ok := t.stopwords[tok]
	return ok
}

// IsCJK reports whether r belongs to a script written without spaces.
func IsCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || r == 'ー'
}

type segment struct {
	text string
	cjk  bool
}

func splitScripts(word string) []segment {
	var segs []segment
	start := 0
	prev := false
	for i, r := range word {
		c := IsCJK(r)
		if i > 0 && c != prev {
			segs = append(segs, segment{word[start:i], prev})
			start = i
		}
		prev = c
	}
	return append(segs, segment{word[start:], prev})
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
