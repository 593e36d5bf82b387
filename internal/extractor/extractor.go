// Package extractor turns free-form social text into a PersonalityProfile.
// It never fails outward: any problem along the way yields a fallback profile.
package extractor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/prompt"
	"github.com/Ayutada/bluesky-analyzer/internal/zlog"
)

// State is a step of an extraction run.
type State int

const (
	Composing State = iota
	Generating
	Parsing
	Validating
	Succeeded
	Fallback
)

func (s State) String() string {
	switch s {
	case Composing:
		return "composing"
	case Generating:
		return "generating"
	case Parsing:
		return "parsing"
	case Validating:
		return "validating"
	case Succeeded:
		return "succeeded"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Temperature is fixed for extraction.
const Temperature float32 = 0

// Request carries one extraction.
type Request struct {
	Text     string
	Language domain.Language
	Prompts  prompt.Set
	Rules    domain.ValidationRules
}

// Outcome is the terminal result of a run.
type Outcome struct {
	Profile domain.PersonalityProfile
	State   State
	// FailedIn is the state that failed; meaningful only when State is Fallback.
	FailedIn State
	// Err is the typed failure that caused the fallback.
	Err error
}

// Extractor runs the extraction state machine against a Generator.
// It holds no per-request state and is safe for concurrent use.
type Extractor struct {
	generator domain.Generator
}

// New creates an extractor.
func New(generator domain.Generator) *Extractor {
	return &Extractor{generator: generator}
}

// Analyze returns the extracted profile or the localized fallback.
func (e *Extractor) Analyze(ctx context.Context, req Request) domain.PersonalityProfile {
	return e.Run(ctx, req).Profile
}

// Run walks Composing → Generating → Parsing → Validating and stops in
// Succeeded or Fallback.
func (e *Extractor) Run(ctx context.Context, req Request) Outcome {
	start := time.Now()
	var (
		state   = Composing
		msgs    []*schema.Message
		raw     string
		fields  map[string]json.RawMessage
		profile domain.PersonalityProfile
		err     error
		failed  State
	)

	for state != Succeeded && state != Fallback {
		current := state
		switch state {
		case Composing:
			msgs, err = prompt.Compose(ctx, req.Prompts.Extraction, nil, req.Text)
			state = next(Generating, err)
		case Generating:
			raw, err = e.generator.Generate(ctx, msgs, Temperature)
			state = next(Parsing, err)
		case Parsing:
			fields, err = ParseProfile(raw)
			state = next(Validating, err)
		case Validating:
			profile, err = ValidateProfile(fields, req.Language, req.Rules)
			state = next(Succeeded, err)
		}
		if state == Fallback {
			failed = current
		}
	}

	if state == Fallback {
		zlog.Warn("profile extraction fell back",
			zap.String("language", string(req.Language)),
			zap.Stringer("failed_in", failed),
			zap.Error(err),
			zap.Int64("ms", time.Since(start).Milliseconds()))
		return Outcome{Profile: FallbackProfile(req.Language, req.Prompts.FallbackMessage), State: Fallback, FailedIn: failed, Err: err}
	}

	zlog.Info("profile extraction done",
		zap.String("language", string(req.Language)),
		zap.String("mbti", profile.MBTI),
		zap.Int64("ms", time.Since(start).Milliseconds()))
	return Outcome{Profile: profile, State: Succeeded}
}

func next(ok State, err error) State {
	if err != nil {
		return Fallback
	}
	return ok
}

// FallbackProfile is the degraded result: Unknown type and animal plus a
// localized error message.
func FallbackProfile(lang domain.Language, message string) domain.PersonalityProfile {
	if message == "" {
		message = prompt.FallbackEN
	}
	return domain.PersonalityProfile{
		MBTI:        domain.Unknown,
		Animal:      domain.Unknown,
		Description: message,
		Language:    lang,
	}
}
