package domain

// Unknown is the placeholder used for fields the extractor could not determine.
const Unknown = "Unknown"

// MBTICodes lists the 16 canonical type codes.
var MBTICodes = []string{
	"INTJ", "INTP", "ENTJ", "ENTP",
	"INFJ", "INFP", "ENFJ", "ENFP",
	"ISTJ", "ISFJ", "ESTJ", "ESFJ",
	"ISTP", "ISFP", "ESTP", "ESFP",
}

var mbtiSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(MBTICodes))
	for _, c := range MBTICodes {
		m[c] = struct{}{}
	}
	return m
}()

// IsMBTICode reports whether code is exactly one of the 16 canonical codes.
func IsMBTICode(code string) bool {
	_, ok := mbtiSet[code]
	return ok
}

// PersonalityProfile is the structured result of a profile extraction.
type PersonalityProfile struct {
	MBTI        string   `json:"mbti"`
	Animal      string   `json:"animal"`
	Description string   `json:"description"`
	Language    Language `json:"language"`
}

// IsUnknown reports whether the profile carries no inferred type.
func (p PersonalityProfile) IsUnknown() bool {
	return p.MBTI == Unknown && p.Animal == Unknown
}

// DefaultDescriptionMaxRunes bounds profile descriptions when no rule is configured.
const DefaultDescriptionMaxRunes = 2000

// ValidationRules constrain an extracted profile for one language.
type ValidationRules struct {
	DescriptionMaxRunes int
}
