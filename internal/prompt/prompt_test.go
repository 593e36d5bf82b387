package prompt

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

func TestCompose(t *testing.T) {
	ctx := context.Background()
	sets := Builtin()

	t.Run("QA prompt carries context and question", func(t *testing.T) {
		msgs, err := Compose(ctx, sets["en"].QA, []string{"ENFJ is warm.", "ENFJ leads."}, "What is ENFJ like?")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, schema.System, msgs[0].Role)
		assert.Contains(t, msgs[0].Content, "do not know")
		assert.Equal(t, schema.User, msgs[1].Role)
		assert.Contains(t, msgs[1].Content, "ENFJ is warm.\n\nENFJ leads.")
		assert.Contains(t, msgs[1].Content, "What is ENFJ like?")
	})

	t.Run("Chinese QA prompt keeps the honesty instruction", func(t *testing.T) {
		msgs, err := Compose(ctx, sets["cn"].QA, []string{"主人公型"}, "ENFJ的优缺点是什么?")
		require.NoError(t, err)
		assert.Contains(t, msgs[0].Content, "请诚实地说不知道，不要编造")
		assert.Contains(t, msgs[1].Content, "【背景信息】：\n主人公型")
	})

	t.Run("Extraction prompt embeds schema and language rules", func(t *testing.T) {
		msgs, err := Compose(ctx, sets["jp"].Extraction, nil, "今日もコーヒーがおいしい")
		require.NoError(t, err)
		user := msgs[len(msgs)-1].Content
		assert.Contains(t, user, "今日もコーヒーがおいしい")
		assert.Contains(t, user, `{"mbti": "...", "animal": "...", "description": "..."}`)
		assert.Contains(t, user, "MUST BE IN JAPANESE")
		assert.NotContains(t, user, "{lang_instruction}")
	})

	t.Run("Braces in user input are kept verbatim", func(t *testing.T) {
		msgs, err := Compose(ctx, sets["en"].Extraction, nil, `my bio: {"likes": "cats"}`)
		require.NoError(t, err)
		assert.Contains(t, msgs[1].Content, `my bio: {"likes": "cats"}`)
	})

	t.Run("Blank input fails", func(t *testing.T) {
		_, err := Compose(ctx, sets["en"].QA, nil, "   ")
		assert.ErrorIs(t, err, domain.ErrEmptyInput)
	})

	t.Run("Unknown placeholder fails", func(t *testing.T) {
		tpl := Template{Language: "en", Purpose: PurposeQA, User: "{missing} {input}"}
		_, err := Compose(ctx, tpl, nil, "hi")
		assert.Error(t, err)
	})
}

func TestBuiltin(t *testing.T) {
	sets := Builtin()
	for _, lang := range []domain.Language{"cn", "en", "jp"} {
		set, ok := sets[lang]
		require.True(t, ok, lang)
		assert.Equal(t, lang, set.QA.Language)
		assert.Equal(t, PurposeQA, set.QA.Purpose)
		assert.Equal(t, lang, set.Extraction.Language)
		assert.Equal(t, PurposeExtraction, set.Extraction.Purpose)
		assert.NotEmpty(t, set.FallbackMessage)
		assert.NotEmpty(t, set.CannotAnswer)
	}
	assert.Equal(t, "An error occurred during verification, please try again later.", sets["en"].FallbackMessage)
}

func TestRenderContext(t *testing.T) {
	assert.Equal(t, "", RenderContext(nil))
	assert.Equal(t, "a\n\nb", RenderContext([]string{"a", "b"}))
}
