package character

import (
	"regexp"
	"strings"
)

// LanguageMarker at the start of speech asks for it to be spoken in the
// character's current language.
const LanguageMarker = "~"

var quotedSpan = regexp.MustCompile(`"([^"]*)"`)

// Delivery holds the text of one utterance as each kind of listener sees it.
// Language is empty when every listener sees Understand.
type Delivery struct {
	Self          string
	Understand    string
	NotUnderstand string
	Language      string
}

// For picks the text for a listener.
func (d Delivery) For(self, understands bool) string {
	switch {
	case self:
		return d.Self
	case d.Language == "" || understands:
		return d.Understand
	default:
		return d.NotUnderstand
	}
}

func languageTag(lang string) string {
	return " |w<< in " + lang + " >>|n"
}

// PrepareSay builds the say messages for msg. A leading "~" speaks in the
// current language: listeners who know it see the text tagged with the
// language, others see a placeholder. With languageOnly the quoting is
// dropped and only the (tagged or masked) text is produced.
func (c *Character) PrepareSay(msg string, languageOnly bool) Delivery {
	trimmed := strings.TrimLeft(msg, " \t")
	useLanguage := strings.HasPrefix(trimmed, LanguageMarker)
	if useLanguage {
		msg = strings.TrimLeft(strings.TrimPrefix(trimmed, LanguageMarker), " \t")
	}
	name := c.Name()
	lang, hasLang := c.SpeakingLanguage()

	if languageOnly {
		if !hasLang {
			return Delivery{Self: msg, Understand: msg, NotUnderstand: msg}
		}
		tagged := msg + languageTag(lang)
		return Delivery{
			Self:          tagged,
			Understand:    tagged,
			NotUnderstand: c.MaskLanguage(msg, lang),
			Language:      lang,
		}
	}

	if useLanguage && hasLang {
		tagged := `"` + msg + languageTag(lang) + `"`
		return Delivery{
			Self:          "You say, " + tagged,
			Understand:    name + " says, " + tagged,
			NotUnderstand: name + ` says, "` + c.MaskLanguage(msg, lang) + `"`,
			Language:      lang,
		}
	}
	plain := name + ` says, "` + msg + `"`
	return Delivery{
		Self:          `You say, "` + msg + `"`,
		Understand:    plain,
		NotUnderstand: plain,
	}
}

// Pose builds the pose messages. Quoted spans starting with "~" are masked
// for listeners who do not know the current language.
func (c *Character) Pose(msg string) Delivery {
	name := c.Name()
	lang, hasLang := c.SpeakingLanguage()

	marked := false
	understood := quotedSpan.ReplaceAllStringFunc(msg, func(span string) string {
		inner := span[1 : len(span)-1]
		if !strings.HasPrefix(inner, LanguageMarker) {
			return span
		}
		marked = true
		return `"` + strings.TrimPrefix(inner, LanguageMarker) + `"`
	})
	d := Delivery{
		Self:          name + " " + understood,
		Understand:    name + " " + understood,
		NotUnderstand: name + " " + understood,
	}
	if !marked || !hasLang {
		return d
	}
	masked := quotedSpan.ReplaceAllStringFunc(msg, func(span string) string {
		inner := span[1 : len(span)-1]
		if !strings.HasPrefix(inner, LanguageMarker) {
			return span
		}
		return `"` + c.MaskLanguage(strings.TrimPrefix(inner, LanguageMarker), lang) + `"`
	})
	d.NotUnderstand = name + " " + masked
	d.Language = lang
	return d
}

// Emote builds the emote messages. With a current language every quoted
// span is masked for listeners who do not know it.
func (c *Character) Emote(msg string) Delivery {
	name := c.Name()
	d := Delivery{
		Self:          "You emote: " + msg,
		Understand:    name + " " + msg,
		NotUnderstand: name + " " + msg,
	}
	lang, ok := c.SpeakingLanguage()
	if !ok || !quotedSpan.MatchString(msg) {
		return d
	}
	masked := quotedSpan.ReplaceAllStringFunc(msg, func(span string) string {
		return `"` + c.MaskLanguage(span[1:len(span)-1], lang) + `"`
	})
	d.NotUnderstand = name + " " + masked
	d.Language = lang
	return d
}

// SpeechHooks produce the per-listener text for speech commands. The host
// calls them and routes each listener the variant Delivery.For selects.
type SpeechHooks interface {
	AtSay(speaker *Character, msg string) Delivery
	AtPose(speaker *Character, msg string) Delivery
	AtEmote(speaker *Character, msg string) Delivery
}

// DefaultHooks implements SpeechHooks with the character's own formatting.
type DefaultHooks struct{}

func (DefaultHooks) AtSay(speaker *Character, msg string) Delivery   { return speaker.PrepareSay(msg, false) }
func (DefaultHooks) AtPose(speaker *Character, msg string) Delivery  { return speaker.Pose(msg) }
func (DefaultHooks) AtEmote(speaker *Character, msg string) Delivery { return speaker.Emote(msg) }
