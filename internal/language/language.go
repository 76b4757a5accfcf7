// Package language holds the fixed table of languages the voice assistant
// understands. Each profile pairs a transcription locale with a display label
// and selects the parsing ruleset used by the interpreter.
package language

import (
	"strings"

	"golang.org/x/text/language"
)

// Supported locale codes.
const (
	English = "en-US"
	Tamil   = "ta-IN"
	Sinhala = "si-LK"
)

// Default is the profile code used when nothing else matches.
const Default = English

// Profile describes one supported language.
type Profile struct {
	// Code is the BCP 47 locale handed to the transcription source.
	Code string `json:"code"`

	// Name is the English display name (e.g., "Tamil (India)").
	Name string `json:"name"`

	// Label is the name written in the language itself.
	Label string `json:"label"`

	tag language.Tag
}

// Tag returns the parsed BCP 47 tag of the profile.
func (p Profile) Tag() language.Tag { return p.tag }

// Base returns the ISO-639-1 part of the code (e.g., "ta").
func (p Profile) Base() string {
	base, _ := p.tag.Base()
	return base.String()
}

var profiles = []Profile{
	{Code: English, Name: "English (US)", Label: "English", tag: language.MustParse(English)},
	{Code: Tamil, Name: "Tamil (India)", Label: "தமிழ்", tag: language.MustParse(Tamil)},
	{Code: Sinhala, Name: "Sinhala (Sri Lanka)", Label: "සිංහල", tag: language.MustParse(Sinhala)},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(profiles))
	for i, p := range profiles {
		tags[i] = p.tag
	}
	return language.NewMatcher(tags)
}()

// Profiles returns the supported languages in display order.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// Lookup returns the profile whose code equals code, ignoring case.
func Lookup(code string) (Profile, bool) {
	for _, p := range profiles {
		if strings.EqualFold(p.Code, strings.TrimSpace(code)) {
			return p, true
		}
	}
	return Profile{}, false
}

// Resolve maps any locale code to a supported profile. Regional variants
// resolve to the profile with the same base language ("ta-LK" → Tamil).
// Unsupported or malformed codes resolve to English.
func Resolve(code string) Profile {
	if p, ok := Lookup(code); ok {
		return p
	}
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return profiles[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return profiles[0]
	}
	return profiles[idx]
}
