package extractor

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

// Schema fields, in the order they are checked.
const (
	FieldMBTI        = "mbti"
	FieldAnimal      = "animal"
	FieldDescription = "description"
)

var schemaFields = []string{FieldMBTI, FieldAnimal, FieldDescription}

const fence = "```"

// StripFences extracts the JSON body from model output. The first fenced
// block wins wherever it appears; without a fence the outermost {...} span is
// used, so prose before or after the object is dropped.
func StripFences(s string) string {
	if open := strings.Index(s, fence); open >= 0 {
		rest := skipFenceTag(s[open+len(fence):])
		if end := strings.Index(rest, fence); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	s = strings.TrimSpace(s)
	first, last := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if first >= 0 && last > first {
		return s[first : last+1]
	}
	return s
}

// skipFenceTag drops an info string such as "json" after an opening fence.
func skipFenceTag(s string) string {
	i := 0
	for i < len(s) && (s[i] >= 'a' && s[i] <= 'z' || s[i] >= 'A' && s[i] <= 'Z') {
		i++
	}
	if i == 0 {
		return s
	}
	if i == len(s) || s[i] == '\n' || s[i] == '\r' || s[i] == ' ' || s[i] == '\t' || strings.HasPrefix(s[i:], fence) {
		return s[i:]
	}
	return s
}

// ParseProfile decodes generated text into raw schema fields. Text that is not
// a single JSON object is a *domain.ParseFailure.
func ParseProfile(raw string) (map[string]json.RawMessage, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, &domain.ParseFailure{Raw: raw, Err: errors.New("empty output")}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, &domain.ParseFailure{Raw: raw, Err: err}
	}
	if fields == nil {
		return nil, &domain.ParseFailure{Raw: raw, Err: errors.New("output is null")}
	}
	return fields, nil
}

// ValidateProfile checks that every schema field is a non-empty string and
// normalizes the result. The first offending field is reported as a
// *domain.ValidationFailure.
func ValidateProfile(fields map[string]json.RawMessage, lang domain.Language, rules domain.ValidationRules) (domain.PersonalityProfile, error) {
	values := make(map[string]string, len(schemaFields))
	for _, name := range schemaFields {
		raw, ok := fields[name]
		if !ok {
			return domain.PersonalityProfile{}, &domain.ValidationFailure{Field: name, Reason: "is missing"}
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.PersonalityProfile{}, &domain.ValidationFailure{Field: name, Reason: "is not a string"}
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return domain.PersonalityProfile{}, &domain.ValidationFailure{Field: name, Reason: "is empty"}
		}
		values[name] = s
	}

	mbti, ok := NormalizeMBTI(values[FieldMBTI])
	if !ok {
		return domain.PersonalityProfile{}, &domain.ValidationFailure{Field: FieldMBTI, Reason: "is not one of the 16 type codes"}
	}

	limit := rules.DescriptionMaxRunes
	if limit <= 0 {
		limit = domain.DefaultDescriptionMaxRunes
	}
	return domain.PersonalityProfile{
		MBTI:        mbti,
		Animal:      values[FieldAnimal],
		Description: truncateRunes(values[FieldDescription], limit),
		Language:    lang,
	}, nil
}

// NormalizeMBTI upper-cases a type code and maps any casing of "unknown" to
// domain.Unknown. ok is false for anything else outside the 16 codes.
func NormalizeMBTI(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, domain.Unknown) {
		return domain.Unknown, true
	}
	s = strings.ToUpper(s)
	return s, domain.IsMBTICode(s)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
