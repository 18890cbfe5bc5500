package character

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

// Languages are merits of this category and type named "Language(<name>)".
const (
	languageCategory = "merits"
	languageType     = "social"
	languagePrefix   = "Language"
)

// ErrUnknownLanguage is returned when a character tries to speak a language
// it does not know.
var ErrUnknownLanguage = errors.New("unknown language")

type unknownLanguageError struct {
	name string
}

func (e *unknownLanguageError) Error() string {
	return "You don't know the language: " + e.name
}

func (e *unknownLanguageError) Unwrap() error { return ErrUnknownLanguage }

// Capitalize upper-cases the first letter of s and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(textlang.Und).String(s[:size]) + cases.Lower(textlang.Und).String(s[size:])
}

func sameLanguage(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

// Languages returns the languages the character knows, in name order.
func (c *Character) Languages() []string {
	var langs []string
	for _, s := range c.obj.Stats.Section(languageCategory, languageType) {
		name := s.Key.Name
		if !strings.HasPrefix(name, languagePrefix) {
			continue
		}
		open := strings.IndexByte(name, '(')
		if open < 0 {
			continue
		}
		inner := name[open+1:]
		if end := strings.IndexByte(inner, ')'); end >= 0 {
			inner = inner[:end]
		}
		langs = append(langs, inner)
	}
	return langs
}

// Knows reports whether language is one of the character's languages.
func (c *Character) Knows(language string) bool {
	for _, l := range c.Languages() {
		if sameLanguage(l, language) {
			return true
		}
	}
	return false
}

// SpeakingLanguage returns the language the character currently speaks.
func (c *Character) SpeakingLanguage() (string, bool) {
	v, ok := c.obj.GetAttr(gamedb.AttrSpeakingLanguage)
	return v, ok && v != ""
}

// SetSpeakingLanguage selects the spoken language. "none" clears it. The
// language must be one the character knows.
func (c *Character) SetSpeakingLanguage(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "none" {
		c.obj.DelAttr(gamedb.AttrSpeakingLanguage)
		return c.save()
	}
	if name == "" || !c.Knows(name) {
		return &unknownLanguageError{name: name}
	}
	c.obj.SetAttr(gamedb.AttrSpeakingLanguage, Capitalize(name))
	return c.save()
}

// Understands reports whether listener can follow this character's
// current speech. A character always understands itself.
func (c *Character) Understands(listener *Character) bool {
	if listener == nil {
		return false
	}
	if listener.obj.DBRef == c.obj.DBRef {
		return true
	}
	lang, ok := c.SpeakingLanguage()
	if !ok {
		return true
	}
	return listener.Knows(lang)
}

// String implements fmt.Stringer for log fields.
func (c *Character) String() string {
	return fmt.Sprintf("%s(#%d)", c.obj.Name, c.obj.DBRef)
}
