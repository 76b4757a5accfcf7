package interpreter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nadzzz/voicecart/internal/language"
	"github.com/nadzzz/voicecart/internal/message"
)

type strategy int

const (
	// strategyPattern requires a leading trigger word ("add 2 kg rice").
	strategyPattern strategy = iota

	// strategyHeuristic looks for digits and keywords anywhere in the text.
	strategyHeuristic
)

// unitKeyword maps a substring found in the transcript to a raw unit token.
type unitKeyword struct {
	keyword string
	unit    string
}

// ruleset is the parsing configuration for one language. Rulesets are
// built once at init and never modified.
type ruleset struct {
	strategy strategy

	// Pattern strategy.
	add    *regexp.Regexp // groups: quantity, unit, product
	search *regexp.Regexp

	// Heuristic strategy. Units are checked in order; the first hit wins.
	units    []unitKeyword
	triggers []string
	strip    *regexp.Regexp
}

var digitRun = regexp.MustCompile(`[0-9]+`)

var english = &ruleset{
	strategy: strategyPattern,
	add: regexp.MustCompile(`^(?:add|buy|get|want)\s+(?:(\d+)\s*` +
		`(kgs?|kilos?|grams?|gms?|gm|g|pcs|pc|pieces?|packets?|packs?|pkts?|box(?:es)?|lit(?:er|re)s?|ltrs?|ml|l)?` +
		`\s+(?:of\s+)?)?(.+)`),
	search: regexp.MustCompile(`^search(?:\s+for)?(?:\s+|$)`),
}

// Tamil speech is commonly transcribed either in Tamil script or as
// transliterated Tanglish ("thakkali 2 kilo serkavum").
var tamil = &ruleset{
	strategy: strategyHeuristic,
	units: []unitKeyword{
		{"kg", "kg"}, {"kilo", "kg"}, {"கிலோ", "kg"},
		{"gram", "g"}, {"கிராம்", "g"}, {"g", "g"},
		{"packet", "pack"}, {"pkt", "pack"},
	},
	triggers: []string{"add", "serka", "சேர்"},
	strip: regexp.MustCompile(`(?i)(add|kilo|kg|gram|gm|packet|pkt|serkavum|vendum|` +
		`சேர்க்கவும்|சேர்|வேண்டும்|கிலோ|கிராம்)`),
}

var sinhala = &ruleset{
	strategy: strategyHeuristic,
	units: []unitKeyword{
		{"kilo", "kg"}, {"kg", "kg"}, {"කිලෝ", "kg"},
		{"gram", "g"}, {"g", "g"},
		{"packet", "pack"},
	},
	triggers: []string{"add", "danna", "දාන්න"},
	strip:    regexp.MustCompile(`(?i)(add|kilo|kg|gram|gm|packet|oni|danna|දාන්න|ඕනි|කිලෝ)`),
}

var rulesets = map[string]*ruleset{
	"en": english,
	"ta": tamil,
	"si": sinhala,
}

func rulesetFor(p language.Profile) *ruleset {
	if rs, ok := rulesets[p.Base()]; ok {
		return rs
	}
	return english
}

func (rs *ruleset) apply(cmd *message.VoiceCommand, cleaned, lower string) {
	switch rs.strategy {
	case strategyHeuristic:
		rs.applyHeuristic(cmd, cleaned, lower)
	default:
		rs.applyPattern(cmd, lower)
	}
}

// applyPattern checks the add pattern first; the search prefix is only
// considered when it does not match. Product names come from the lower-cased
// text and lose their original casing.
func (rs *ruleset) applyPattern(cmd *message.VoiceCommand, lower string) {
	if m := rs.add.FindStringSubmatch(lower); m != nil {
		cmd.Action = message.ActionAdd
		if m[1] != "" {
			cmd.Quantity = parseQuantity(m[1])
		}
		if m[2] != "" {
			cmd.Unit = NormalizeUnit(m[2])
		}
		cmd.ProductName = strings.TrimSpace(m[3])
		return
	}
	if loc := rs.search.FindStringIndex(lower); loc != nil {
		cmd.Action = message.ActionSearch
		cmd.ProductName = strings.TrimSpace(lower[loc[1]:])
	}
}

// applyHeuristic treats any number as an add with that quantity. Keywords
// match as substrings anywhere, so product names containing a keyword are
// stripped too.
func (rs *ruleset) applyHeuristic(cmd *message.VoiceCommand, cleaned, lower string) {
	if d := digitRun.FindString(cleaned); d != "" {
		cmd.Action = message.ActionAdd
		cmd.Quantity = parseQuantity(d)
	}

	for _, u := range rs.units {
		if strings.Contains(lower, u.keyword) {
			cmd.Unit = NormalizeUnit(u.unit)
			break
		}
	}

	for _, t := range rs.triggers {
		if strings.Contains(lower, t) {
			cmd.Action = message.ActionAdd
			break
		}
	}

	name := digitRun.ReplaceAllString(cleaned, "")
	name = rs.strip.ReplaceAllString(name, "")
	cmd.ProductName = strings.Join(strings.Fields(name), " ")
}

// parseQuantity returns 1 for zero or out-of-range digit runs.
func parseQuantity(digits string) int {
	q, err := strconv.Atoi(digits)
	if err != nil || q < 1 {
		return 1
	}
	return q
}
