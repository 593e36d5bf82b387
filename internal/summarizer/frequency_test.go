package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := NewFrequencySummarizer()

	t.Run("Keeps the most representative sentences in order", func(t *testing.T) {
		text := "ENFJ types are warm leaders. Weather was fine today. ENFJ leaders inspire warm teams. Bananas are yellow."
		out := s.Summarize(text, 2)
		assert.Equal(t, "ENFJ types are warm leaders. ENFJ leaders inspire warm teams.", out)
	})

	t.Run("Chinese sentences split on full stops", func(t *testing.T) {
		text := "主人公型的人是天生的领导者。今天下雨。主人公型的人充满激情。"
		out := s.Summarize(text, 2)
		assert.Equal(t, "主人公型的人是天生的领导者。 主人公型的人充满激情。", out)
	})

	t.Run("Markdown headings are cleaned", func(t *testing.T) {
		out := s.Summarize("# Source: x\n## INTJ\nINTJ plans.", 5)
		assert.False(t, strings.HasPrefix(out, "#"))
	})

	t.Run("Fewer sentences than requested", func(t *testing.T) {
		assert.Equal(t, "Only one.", s.Summarize("Only one.", 4))
	})

	t.Run("Empty text", func(t *testing.T) {
		assert.Equal(t, "", s.Summarize("   ", 3))
	})
}
