package gamedb

// Well-known attribute names. Attribute names are case-insensitive and stored
// lowercased.
const (
	AttrGradientName     = "gradient_name"
	AttrSpeakingLanguage = "speaking_language"
	AttrDesc             = "desc"

	// FingerPrefix namespaces the fields shown by +finger.
	FingerPrefix = "finger_"

	// HiddenValue marks a finger field as hidden from other viewers.
	HiddenValue = "#hidden"
)

// DefaultFingerFields are seeded on every new character, in display order.
// The fullname field is seeded separately from the character's name.
var DefaultFingerFields = []string{
	"rp_preferences",
	"online_times",
	"usual_hangouts",
	"rumors",
	"ic_job",
}

// NotSpecified is the placeholder value for seeded finger fields.
const NotSpecified = "Not specified"
