// Package guardrails validates inbound chat messages before they reach a
// model. A rejected message produces a Validation fault and nothing else: no
// LLM call, no checkpoint write, no usage observation.
package guardrails

import (
	"regexp"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/pkg/fault"
)

// DefaultMaxMessageLength is the inclusive message length ceiling in runes.
const DefaultMaxMessageLength = 2000

// forbiddenPatterns reject raw prompt-steering markers regardless of intent.
var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`(?i)<script>`),
}

// injectionPatterns are heuristics for common prompt-injection phrasings.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?|directions?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|above|your)\s+(instructions?|prompts?|rules?|context)`),
	regexp.MustCompile(`(?i)new\s+instructions?:\s*`),
	regexp.MustCompile(`(?i)\bdo\s+anything\s+now\b`),
	regexp.MustCompile(`(?i)\bjailbreak\b`),
	regexp.MustCompile(`(?i)pretend\s+you\s+(are|have)\s+no\s+(restrictions?|rules?|guidelines?)`),
	regexp.MustCompile(`(?i)act\s+as\s+if\s+you\s+have\s+no\s+(restrictions?|rules?|filters?)`),
}

// Validator applies the input-stage rules.
type Validator struct {
	maxLen int
}

// NewValidator creates a validator. maxLen <= 0 falls back to the default.
func NewValidator(maxLen int) *Validator {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}
	return &Validator{maxLen: maxLen}
}

// CheckMessage validates one user message. A nil return means the message
// may proceed to the agent.
func (v *Validator) CheckMessage(message string) error {
	if message == "" {
		return fault.New(fault.Validation, "message is empty")
	}
	if n := utf8.RuneCountInString(message); n > v.maxLen {
		return fault.Newf(fault.Validation, "message length %d exceeds limit %d", n, v.maxLen)
	}

	for _, re := range forbiddenPatterns {
		if re.MatchString(message) {
			log.Warn().Str("pattern", re.String()).Msg("Message rejected by content filter")
			return fault.New(fault.Validation, "message contains forbidden content")
		}
	}
	for _, re := range injectionPatterns {
		if re.MatchString(message) {
			log.Warn().Str("pattern", re.String()).Msg("Message rejected as prompt injection")
			return fault.New(fault.Validation, "message contains forbidden content")
		}
	}
	return nil
}
