// Package interpreter maps final speech transcripts to shopping intents.
//
// Interpretation is rule based. Each supported language has a ruleset (see
// rules.go) selected by the locale code: English uses an anchored trigger
// pattern, Tamil and Sinhala use looser keyword and digit heuristics. The
// interpreter is total: any text in any locale yields a VoiceCommand, with
// "search for the whole utterance" as the fallback intent.
package interpreter

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nadzzz/voicecart/internal/language"
	"github.com/nadzzz/voicecart/internal/message"
)

// Interpreter turns a final transcript into a structured command.
type Interpreter interface {
	Interpret(transcript, lang string) message.VoiceCommand
}

// Rules is the rule-based Interpreter. The zero value is ready to use and
// safe for concurrent use.
type Rules struct{}

// Interpret implements Interpreter.
func (Rules) Interpret(transcript, lang string) message.VoiceCommand {
	return Interpret(transcript, lang)
}

var punctuation = regexp.MustCompile("[.,/#!$%^&*;:{}=\\-_`~()]")

// Clean strips the punctuation recognizers tend to insert and trims the result.
func Clean(text string) string {
	return strings.TrimSpace(punctuation.ReplaceAllString(text, ""))
}

// Interpret classifies transcript using the ruleset for lang. Unsupported
// locales use the English ruleset.
func Interpret(transcript, lang string) message.VoiceCommand {
	profile := language.Resolve(lang)
	rs := rulesetFor(profile)

	selector := strings.TrimSpace(lang)
	if selector == "" {
		selector = profile.Code
	}

	cleaned := Clean(transcript)
	lower := cases.Lower(profile.Tag()).String(cleaned)

	cmd := message.VoiceCommand{
		Action:       message.ActionSearch,
		ProductName:  cleaned,
		Quantity:     1,
		Unit:         message.DefaultUnit,
		OriginalText: transcript,
		Language:     selector,
	}
	rs.apply(&cmd, cleaned, lower)

	if cmd.Quantity < 1 {
		cmd.Quantity = 1
	}
	if cmd.ProductName == "" {
		cmd.ProductName = cleaned
	}
	// A transcript made only of punctuation still names something.
	if cmd.ProductName == "" {
		cmd.ProductName = strings.TrimSpace(transcript)
	}
	return cmd
}
