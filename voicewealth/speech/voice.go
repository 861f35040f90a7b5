package speech

import (
	"strings"

	"github.com/samber/lo"
)

var (
	maleMarkers   = []string{"male", "guy", "man"}
	femaleMarkers = []string{"female", "woman", "girl"}
)

// SelectVoice picks a voice for language and gender. It prefers a voice of the
// requested gender, then any voice sharing the primary language subtag. It
// returns false when nothing matches and the engine default should be used.
func SelectVoice(voices []Voice, language string, gender Gender) (Voice, bool) {
	candidates := VoicesForLanguage(voices, language)
	if len(candidates) == 0 {
		return Voice{}, false
	}

	if v, ok := lo.Find(candidates, func(v Voice) bool {
		return MatchesGender(v, gender)
	}); ok {
		return v, true
	}

	return candidates[0], true
}

// VoicesForLanguage keeps the voices whose language tag has the same primary subtag as language.
func VoicesForLanguage(voices []Voice, language string) []Voice {
	want := primarySubtag(language)
	if want == "" {
		return nil
	}
	return lo.Filter(voices, func(v Voice, _ int) bool {
		return primarySubtag(v.LanguageTag) == want
	})
}

// MatchesGender applies the name heuristic. Explicit metadata wins over the name.
func MatchesGender(v Voice, gender Gender) bool {
	if v.Gender != "" {
		return v.Gender == gender
	}

	name := strings.ToLower(v.Name)
	switch gender {
	case GenderMale:
		// "female" contains "male"
		return !strings.Contains(name, "female") && containsAny(name, maleMarkers)
	case GenderFemale:
		return containsAny(name, femaleMarkers)
	default:
		return false
	}
}

func containsAny(s string, substrings []string) bool {
	return lo.SomeBy(substrings, func(sub string) bool {
		return strings.Contains(s, sub)
	})
}

func primarySubtag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if idx := strings.IndexAny(tag, "-_"); idx > 0 {
		return tag[:idx]
	}
	return tag
}
