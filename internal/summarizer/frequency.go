package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/Ayutada/bluesky-analyzer/internal/tokenize"
)

// sentencePattern ends a sentence at Latin or CJK terminators, or at a line break.
var sentencePattern = regexp.MustCompile(`[^.!?。！？\n]+[.!?。！？]*`)

// FrequencySummarizer ranks sentences by term frequency (stopwords filtered).
type FrequencySummarizer struct {
	tokenizer *tokenize.Tokenizer
}

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{tokenizer: tokenize.New()}
}

// Summarize returns the maxSentences highest-scoring sentences in their
// original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	var sentences []string
	for _, m := range sentencePattern.FindAllString(text, -1) {
		m = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(m), "#>*- "))
		if m != "" {
			sentences = append(sentences, m)
		}
	}
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	tokens := make([][]string, len(sentences))
	freq := map[string]float64{}
	for i, sent := range sentences {
		tokens[i] = s.tokenizer.Tokens(sent)
		for _, tok := range tokens[i] {
			freq[tok]++
		}
	}
	// Normalize frequencies
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i := range sentences {
		sscore := 0.0
		for _, tok := range tokens[i] {
			sscore += freq[tok]
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(tokens[i])); l > 0 {
			sscore /= math.Sqrt(l)
		}
		scores[i] = pair{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	maxSentences = min(maxSentences, len(scores))

	// Keep original order among selected
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, maxSentences)
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return strings.Join(out, " ")
}
