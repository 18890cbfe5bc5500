package character

import "strings"

// Tone is an adverbial annotation inferred from a message.
type Tone string

const (
	ToneNone        Tone = ""
	ToneExcited     Tone = "excitedly"
	ToneQuestioning Tone = "questioningly"
	ToneGreeting    Tone = "in greeting"
	ToneFarewell    Tone = "in farewell"
	TonePolite      Tone = "politely"
	ToneApology     Tone = "apologetically"
)

// Keyword sets are checked in order. Matching is by substring of the
// lowercased message.
var toneKeywords = []struct {
	tone  Tone
	words []string
}{
	{ToneGreeting, []string{"hello", "hi", "hey", "greetings"}},
	{ToneFarewell, []string{"goodbye", "bye", "farewell"}},
	{TonePolite, []string{"please", "thank", "thanks"}},
	{ToneApology, []string{"sorry", "apologize"}},
}

// DetectTone classifies msg. Trailing punctuation wins over keywords.
func DetectTone(msg string) Tone {
	switch {
	case strings.HasSuffix(msg, "!"):
		return ToneExcited
	case strings.HasSuffix(msg, "?"):
		return ToneQuestioning
	}
	lower := strings.ToLower(msg)
	for _, set := range toneKeywords {
		for _, w := range set.words {
			if strings.Contains(lower, w) {
				return set.tone
			}
		}
	}
	return ToneNone
}
