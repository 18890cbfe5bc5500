package character

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

// fixedRand always picks the same index.
type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

type memRegistry map[gamedb.StatKey]gamedb.StatDef

func (m memRegistry) StatDef(category, statType, name string) (gamedb.StatDef, bool) {
	d, ok := m[gamedb.StatKey{Category: category, Type: statType, Name: name}]
	return d, ok
}

type countingSaver struct{ n int }

func (s *countingSaver) PutObject(*gamedb.Object) error { s.n++; return nil }

func newChar(t *testing.T, name string, langs ...string) *Character {
	t.Helper()
	obj := gamedb.NewObject(7, name, gamedb.TypePlayer)
	for _, l := range langs {
		obj.Stats.Put(gamedb.StatKey{Category: "merits", Type: "social", Name: "Language(" + l + ")"}, gamedb.StatValue{Perm: 1})
	}
	return New(obj, Deps{Rand: fixedRand(0)})
}

func TestDisplayName(t *testing.T) {
	c := newChar(t, "Ana")
	player := gamedb.NewObject(1, "Bo", gamedb.TypePlayer)
	builder := gamedb.NewObject(2, "Cy", gamedb.TypePlayer)
	builder.Perm = gamedb.PermBuilder

	if got := c.DisplayName(player); got != "Ana" {
		t.Errorf("player sees %q", got)
	}
	if got := c.DisplayName(builder); got != "Ana(#7)" {
		t.Errorf("builder sees %q", got)
	}
	c.Object().SetAttr(gamedb.AttrGradientName, "|rA|yn|ga|n")
	if got := c.DisplayName(builder); got != "|rA|yn|ga|n(#7)" {
		t.Errorf("builder sees gradient %q", got)
	}
	if got := c.ColorizeName("Ana waves. Ana smiles."); got != "|rA|yn|ga|n waves. |rA|yn|ga|n smiles." {
		t.Errorf("ColorizeName = %q", got)
	}
}

func TestLanguages(t *testing.T) {
	c := newChar(t, "Ana", "Gaelic", "Latin")
	c.Object().Stats.Put(gamedb.StatKey{Category: "merits", Type: "social", Name: "Allies"}, gamedb.StatValue{Perm: 2})
	c.Object().Stats.Put(gamedb.StatKey{Category: "merits", Type: "social", Name: "LanguageBroken"}, gamedb.StatValue{Perm: 1})

	if diff := cmp.Diff([]string{"Gaelic", "Latin"}, c.Languages()); diff != "" {
		t.Errorf("Languages mismatch (-want +got):\n%s", diff)
	}
}

func TestSetSpeakingLanguage(t *testing.T) {
	saver := &countingSaver{}
	c := newChar(t, "Ana", "Gaelic")
	c.deps.Saver = saver

	if err := c.SetSpeakingLanguage("  gAELIC "); err != nil {
		t.Fatalf("SetSpeakingLanguage: %v", err)
	}
	if lang, ok := c.SpeakingLanguage(); !ok || lang != "Gaelic" {
		t.Errorf("speaking %q, %v", lang, ok)
	}
	if v, _ := c.Object().GetAttr("speaking_language"); v != "Gaelic" {
		t.Errorf("attribute = %q", v)
	}

	err := c.SetSpeakingLanguage("Klingon")
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("err = %v, want ErrUnknownLanguage", err)
	}
	if err.Error() != "You don't know the language: klingon" {
		t.Errorf("message = %q", err.Error())
	}
	if lang, _ := c.SpeakingLanguage(); lang != "Gaelic" {
		t.Errorf("rejected language changed state to %q", lang)
	}

	if err := c.SetSpeakingLanguage(" NONE"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := c.SpeakingLanguage(); ok {
		t.Error("language still set after none")
	}
	if saver.n != 2 {
		t.Errorf("saves = %d, want 2", saver.n)
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"gaelic":    "Gaelic",
		"OLD NORSE": "Old norse",
		"":          "",
		"élvish":    "Élvish",
		"rumors":    "Rumors",
		"ic job":    "Ic job",
	}
	for in, want := range tests {
		if got := Capitalize(in); got != want {
			t.Errorf("Capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectTone(t *testing.T) {
	tests := []struct {
		msg  string
		want Tone
	}{
		{"Hello there!", ToneExcited},
		{"Hello, are you there?", ToneQuestioning},
		{"Sorry, goodbye?", ToneQuestioning},
		{"Greetings, traveller", ToneGreeting},
		{"Farewell friend", ToneFarewell},
		{"Please pass the salt", TonePolite},
		{"I apologize", ToneApology},
		{"The boat sails at dawn", ToneNone},
		{"", ToneNone},
	}
	for _, tt := range tests {
		if got := DetectTone(tt.msg); got != tt.want {
			t.Errorf("DetectTone(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestMaskLanguageBuckets(t *testing.T) {
	c := newChar(t, "Ana")
	tests := []struct {
		msg    string
		bucket []string
	}{
		{"boat at dawn", shortMasks},
		{"boat at dawn today", mediumMasks},
		{"the boat sails at dawn from the eastern dock", mediumMasks},
		{"the boat sails at dawn from the eastern dock today", mediumMasks},
		{"the boat sails at dawn from the eastern dock at noon", longMasks},
		{"the boat sails at dawn from the eastern dock and will not wait for anyone", longMasks},
	}
	for _, tt := range tests {
		for pick := 0; pick < 3; pick++ {
			c.deps.Rand = fixedRand(pick)
			got := c.MaskLanguage(tt.msg, "Gaelic")
			want := strings.ReplaceAll(tt.bucket[pick], "%s", "Gaelic")
			if got != want {
				t.Errorf("MaskLanguage(%q) pick %d = %q, want %q", tt.msg, pick, got, want)
			}
		}
	}
}

func TestMaskTemplatesBoundaries(t *testing.T) {
	tests := []struct {
		words int
		want  []string
	}{
		{1, shortMasks},
		{3, shortMasks},
		{4, mediumMasks},
		{10, mediumMasks},
		{11, longMasks},
	}
	for _, tt := range tests {
		if got := MaskTemplates(tt.words); &got[0] != &tt.want[0] {
			t.Errorf("MaskTemplates(%d) = %q, want %q", tt.words, got, tt.want)
		}
	}
}

func TestMaskLanguageTone(t *testing.T) {
	c := newChar(t, "Ana")
	if got := c.MaskLanguage("Where is it?", "Gaelic"); got != "<< mutters a few words in Gaelic, questioningly >>" {
		t.Errorf("got %q", got)
	}
}

func TestPrepareSay(t *testing.T) {
	c := newChar(t, "Ana", "Gaelic")

	plain := c.PrepareSay("Good morning", false)
	want := Delivery{
		Self:          `You say, "Good morning"`,
		Understand:    `Ana says, "Good morning"`,
		NotUnderstand: `Ana says, "Good morning"`,
	}
	if diff := cmp.Diff(want, plain); diff != "" {
		t.Errorf("plain say (-want +got):\n%s", diff)
	}

	// Marker without a language is dropped.
	if got := c.PrepareSay("~Good morning", false); got.Self != `You say, "Good morning"` || got.Language != "" {
		t.Errorf("marker without language: %+v", got)
	}

	if err := c.SetSpeakingLanguage("gaelic"); err != nil {
		t.Fatal(err)
	}
	got := c.PrepareSay(" ~ Good morning", false)
	want = Delivery{
		Self:          `You say, "Good morning |w<< in Gaelic >>|n"`,
		Understand:    `Ana says, "Good morning |w<< in Gaelic >>|n"`,
		NotUnderstand: `Ana says, "<< mutters a few words in Gaelic >>"`,
		Language:      "Gaelic",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("language say (-want +got):\n%s", diff)
	}

	only := c.PrepareSay("Aye", true)
	want = Delivery{
		Self:          "Aye |w<< in Gaelic >>|n",
		Understand:    "Aye |w<< in Gaelic >>|n",
		NotUnderstand: "<< mutters a few words in Gaelic >>",
		Language:      "Gaelic",
	}
	if diff := cmp.Diff(want, only); diff != "" {
		t.Errorf("language-only (-want +got):\n%s", diff)
	}
}

func TestDeliveryFor(t *testing.T) {
	d := Delivery{Self: "s", Understand: "u", NotUnderstand: "n", Language: "Gaelic"}
	if d.For(true, false) != "s" || d.For(false, true) != "u" || d.For(false, false) != "n" {
		t.Errorf("unexpected routing for %+v", d)
	}
	d.Language = ""
	if d.For(false, false) != "u" {
		t.Error("unmasked delivery should reach everyone")
	}
}

func TestPose(t *testing.T) {
	c := newChar(t, "Ana", "Gaelic")
	if err := c.SetSpeakingLanguage("Gaelic"); err != nil {
		t.Fatal(err)
	}
	d := c.Pose(`grins. "~Well met." Then, "Hi."`)
	if d.Understand != `Ana grins. "Well met." Then, "Hi."` {
		t.Errorf("Understand = %q", d.Understand)
	}
	if d.NotUnderstand != `Ana grins. "<< mutters a few words in Gaelic >>" Then, "Hi."` {
		t.Errorf("NotUnderstand = %q", d.NotUnderstand)
	}
	if d.Language != "Gaelic" {
		t.Errorf("Language = %q", d.Language)
	}

	if d := c.Pose("waves."); d.Language != "" || d.NotUnderstand != "Ana waves." {
		t.Errorf("unmarked pose: %+v", d)
	}
}

func TestEmote(t *testing.T) {
	c := newChar(t, "Ana", "Gaelic")
	d := c.Emote(`leans in, "See you."`)
	if d.Self != `You emote: leans in, "See you."` || d.Language != "" {
		t.Errorf("emote without language: %+v", d)
	}
	if err := c.SetSpeakingLanguage("Gaelic"); err != nil {
		t.Fatal(err)
	}
	d = c.Emote(`leans in, "See you."`)
	if d.NotUnderstand != `Ana leans in, "<< mutters a few words in Gaelic >>"` {
		t.Errorf("NotUnderstand = %q", d.NotUnderstand)
	}
	if d.Understand != `Ana leans in, "See you."` {
		t.Errorf("Understand = %q", d.Understand)
	}
}

func TestUnderstands(t *testing.T) {
	ana := newChar(t, "Ana", "Gaelic")
	bo := New(gamedb.NewObject(8, "Bo", gamedb.TypePlayer), Deps{})
	cy := New(gamedb.NewObject(9, "Cy", gamedb.TypePlayer), Deps{})
	cy.Object().Stats.Put(gamedb.StatKey{Category: "merits", Type: "social", Name: "Language(gaelic)"}, gamedb.StatValue{Perm: 1})

	if !ana.Understands(bo) {
		t.Error("no language: everyone understands")
	}
	if err := ana.SetSpeakingLanguage("Gaelic"); err != nil {
		t.Fatal(err)
	}
	if ana.Understands(bo) {
		t.Error("Bo does not know Gaelic")
	}
	if !ana.Understands(cy) {
		t.Error("language match should ignore case")
	}
	if !ana.Understands(ana) {
		t.Error("speaker understands itself")
	}
}

func TestStats(t *testing.T) {
	reg := memRegistry{
		{Category: "attributes", Type: "physical", Name: "Dexterity"}: {
			Name: "Dexterity", Category: "attributes", Type: "physical",
			Default: 1, PermValues: []int{1, 2, 3, 4, 5}, TempValues: []int{0, 1, 2, 3, 4, 5},
		},
	}
	saver := &countingSaver{}
	c := New(gamedb.NewObject(3, "Ana", gamedb.TypePlayer), Deps{Registry: reg, Saver: saver})

	if v, ok := c.GetStat("attributes", "physical", "Dexterity", false); !ok || v != 1 {
		t.Errorf("registry default = %d, %v", v, ok)
	}
	if _, ok := c.GetStat("attributes", "physical", "Stamina", false); ok {
		t.Error("unknown stat should be absent")
	}

	if err := c.SetStat("attributes", "physical", "Strength", 3, false); err != nil {
		t.Fatal(err)
	}
	if v, ok := c.GetStat("attributes", "physical", "Strength", false); !ok || v != 3 {
		t.Errorf("perm = %d, %v", v, ok)
	}
	if v, _ := c.GetStat("attributes", "physical", "Strength", true); v != 0 {
		t.Errorf("temp should default to 0, got %d", v)
	}
	if err := c.SetStat("attributes", "physical", "Strength", 2, true); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.GetStat("attributes", "physical", "Strength", false); v != 3 {
		t.Errorf("temp write changed perm to %d", v)
	}
	if v, _ := c.GetStat("attributes", "physical", "Str", true); v != 2 {
		t.Errorf("prefix lookup temp = %d", v)
	}
	if saver.n != 2 {
		t.Errorf("saves = %d", saver.n)
	}

	if !c.CheckStatValue("attributes", "physical", "Dexterity", 5, false) {
		t.Error("5 is a legal perm value")
	}
	if c.CheckStatValue("attributes", "physical", "Dexterity", 0, false) {
		t.Error("0 is not a legal perm value")
	}
	if !c.CheckStatValue("attributes", "physical", "Dexterity", 0, true) {
		t.Error("0 is a legal temp value")
	}
	if c.CheckStatValue("attributes", "physical", "Strength", 3, false) {
		t.Error("undefined stat is never valid")
	}
}

func TestInitFingerDefaults(t *testing.T) {
	c := newChar(t, "Ana")
	if err := c.InitFingerDefaults(); err != nil {
		t.Fatal(err)
	}
	fields := c.Object().AttrsWithPrefix(gamedb.FingerPrefix)
	if len(fields) != 6 {
		t.Fatalf("got %d finger fields", len(fields))
	}
	if v, _ := c.Object().GetAttr("finger_fullname"); v != "Ana" {
		t.Errorf("fullname = %q", v)
	}
	if v, _ := c.Object().GetAttr("finger_rumors"); v != gamedb.NotSpecified {
		t.Errorf("rumors = %q", v)
	}
}
