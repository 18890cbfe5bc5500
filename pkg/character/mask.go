package character

import (
	"fmt"
	"strings"
)

// Placeholder templates by message length. %s is the language.
var (
	shortMasks = []string{
		"<< mutters a few words in %s >>",
		"<< something brief in %s >>",
		"<< speaks a short %s phrase >>",
	}
	mediumMasks = []string{
		"<< speaks a sentence in %s >>",
		"<< a %s phrase >>",
		"<< conveys a short message in %s >>",
	}
	longMasks = []string{
		"<< gives a lengthy explanation in %s >>",
		"<< engages in an extended %s dialogue >>",
		"<< speaks at length in %s >>",
	}
)

// MaskTemplates returns the placeholder templates used for a message of
// the given word count.
func MaskTemplates(words int) []string {
	switch {
	case words <= 3:
		return shortMasks
	case words <= 10:
		return mediumMasks
	default:
		return longMasks
	}
}

// MaskLanguage replaces msg with a placeholder naming language, chosen at
// random from the templates for its length and annotated with its tone.
func (c *Character) MaskLanguage(msg, language string) string {
	opts := MaskTemplates(len(strings.Fields(msg)))
	masked := fmt.Sprintf(opts[c.deps.Rand.IntN(len(opts))], language)
	if tone := DetectTone(msg); tone != ToneNone {
		masked = strings.TrimSuffix(masked, " >>") + ", " + string(tone) + " >>"
	}
	return masked
}
