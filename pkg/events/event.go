package events

import "github.com/crystal-mush/rpkit/pkg/gamedb"

// EventType classifies events for transport-specific encoding.
type EventType int

const (
	EvText       EventType = iota // Raw text (universal fallback)
	EvSay                         // Speech
	EvPose                        // Pose
	EvEmote                       // Free-form emote
	EvConnect                     // Player connected
	EvDisconnect                  // Player disconnected
)

// String returns a human-readable name for the event type.
func (t EventType) String() string {
	switch t {
	case EvText:
		return "text"
	case EvSay:
		return "say"
	case EvPose:
		return "pose"
	case EvEmote:
		return "emote"
	case EvConnect:
		return "connect"
	case EvDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is a structured game event that flows through the event bus.
// Text carries markup; the receiving descriptor renders it.
type Event struct {
	Type     EventType
	Player   gamedb.DBRef // Recipient (Nothing for room events seen by observers)
	Source   gamedb.DBRef // Who generated the event
	Room     gamedb.DBRef // Room context
	Language string       // Spoken language, empty for plain text
	Text     string
}
