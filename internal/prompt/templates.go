package prompt

import "github.com/Ayutada/bluesky-analyzer/internal/domain"

const qaCN = `你是一个精通 MBTI 人格理论的专家助手。
请基于下面的【背景信息】回答用户的【问题】。
如果背景信息里没有答案，请诚实地说不知道，不要编造。`

const qaUserCN = `【背景信息】：
{context}

【用户问题】：
{input}`

const qaEN = `You are an expert assistant well versed in MBTI personality theory.
Answer the user's [Question] based only on the [Background] below.
If the background does not contain the answer, honestly say that you do not know. Do not make anything up.`

const qaUserEN = `[Background]:
{context}

[Question]:
{input}`

const qaJP = `あなたはMBTI性格理論に精通した専門アシスタントです。
以下の【背景情報】だけに基づいて、ユーザーの【質問】に答えてください。
背景情報に答えがない場合は、正直に「わかりません」と答え、作り話をしないでください。`

const qaUserJP = `【背景情報】：
{context}

【質問】：
{input}`

const extractionSystem = `You are a psychoanalytic expert proficient in MBTI personality theory and animal divination.`

const extractionUser = `Please carefully read the following social media content of the user (including profile and posts), deeply analyze their behavior style, values, and thinking patterns.

[User Content]:
{input}

Please infer:
1. The user's MBTI type (16 personalities).
2. The user's corresponding animal figure in "Animal Fortune".
3. Generate a personality portrait (200-300 words).

{lang_instruction}

Please ensure output in JSON format, do not include Markdown format tags.

{format_instructions}`

// FormatInstructions describes the three-field profile schema to the model.
const FormatInstructions = `The output must be a single JSON object with exactly these three string fields and nothing else:
{"mbti": "...", "animal": "...", "description": "..."}
- "mbti": the inferred MBTI type as one of the 16 four-letter codes (for example INTJ), or "Unknown".
- "animal": the inferred spirit animal figure (for example Black Panther).
- "description": a brief personality portrait, about 200-300 words.
Do not wrap the JSON in markdown code fences.`

const langInstructionCN = `IMPORTANT: The content of your analysis (animal, description) MUST BE IN CHINESE (Simplified). For the 'animal' field, output ONLY the Chinese name (e.g. '海狸'), DO NOT include Pinyin, English, or parentheses. The 'mbti' field is always the four-letter code.`

const langInstructionJP = `IMPORTANT: The content of your analysis (animal, description) MUST BE IN JAPANESE. For the 'animal' field, output ONLY the Japanese name (Kanji/Kana), DO NOT include Romaji, English, or parentheses. The 'mbti' field is always the four-letter code.`

const langInstructionEN = `IMPORTANT: The content of your analysis (mbti, animal, description) MUST BE IN ENGLISH. For the 'animal' field, output ONLY the English name, without parentheses or translations.`

// Localized user-facing messages.
const (
	FallbackEN = "An error occurred during verification, please try again later."
	FallbackCN = "分析过程中发生错误，请稍后重试。"
	FallbackJP = "分析中にエラーが発生しました。しばらくしてからもう一度お試しください。"

	CannotAnswerEN = "Sorry, I cannot answer right now. Please try again later."
	CannotAnswerCN = "抱歉，暂时无法回答，请稍后再试。"
	CannotAnswerJP = "申し訳ありません、現在お答えできません。しばらくしてからもう一度お試しください。"
)

func extraction(lang domain.Language, instruction string) Template {
	return Template{
		Language: lang,
		Purpose:  PurposeExtraction,
		System:   extractionSystem,
		User:     extractionUser,
		Vars: map[string]string{
			VarLangInstruction:    instruction,
			VarFormatInstructions: FormatInstructions,
		},
	}
}

// Builtin returns the shipped prompt sets keyed by language.
func Builtin() map[domain.Language]Set {
	return map[domain.Language]Set{
		"cn": {
			QA:              Template{Language: "cn", Purpose: PurposeQA, System: qaCN, User: qaUserCN},
			Extraction:      extraction("cn", langInstructionCN),
			FallbackMessage: FallbackCN,
			CannotAnswer:    CannotAnswerCN,
		},
		"en": {
			QA:              Template{Language: "en", Purpose: PurposeQA, System: qaEN, User: qaUserEN},
			Extraction:      extraction("en", langInstructionEN),
			FallbackMessage: FallbackEN,
			CannotAnswer:    CannotAnswerEN,
		},
		"jp": {
			QA:              Template{Language: "jp", Purpose: PurposeQA, System: qaJP, User: qaUserJP},
			Extraction:      extraction("jp", langInstructionJP),
			FallbackMessage: FallbackJP,
			CannotAnswer:    CannotAnswerJP,
		},
	}
}
