package server

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/crystal-mush/rpkit/pkg/character"
	"github.com/crystal-mush/rpkit/pkg/events"
	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

// WeatherSource produces the text shown by the weather command.
type WeatherSource interface {
	Message(ctx context.Context) string
}

// Game holds the shared world state used by command handlers.
type Game struct {
	mu sync.Mutex // serializes command execution against DB

	DB       *gamedb.Database
	Store    gamedb.Store // nil = in-memory only
	Conns    *ConnManager
	Commands map[string]*Command
	EventBus *events.Bus
	Help     *HelpFile
	Hooks    character.SpeechHooks
	Weather  WeatherSource      // nil = weather unavailable
	Registry character.Registry // nil = no stat definitions
	Rand     character.Chooser  // nil = math/rand
	Metrics  *Metrics
	Logger   *zap.Logger
	Conf     *GameConf
}

// NewGame creates a Game around db. conf and logger may be nil.
func NewGame(db *gamedb.Database, conf *GameConf, logger *zap.Logger) *Game {
	if conf == nil {
		conf = DefaultGameConf()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := events.NewBus()
	conns := NewConnManager()
	conns.EventBus = bus
	g := &Game{
		DB:       db,
		Conns:    conns,
		EventBus: bus,
		Help:     defaultHelp(),
		Hooks:    character.DefaultHooks{},
		Logger:   logger,
		Conf:     conf,
	}
	g.Commands = InitCommands()
	bus.SubscribeGlobal(eventLog{logger: logger.Named("events")})
	return g
}

// PersistObject writes obj through to the store, if one is configured.
func (g *Game) PersistObject(obj *gamedb.Object) {
	if g.Store == nil || obj == nil {
		return
	}
	if err := g.Store.PutObject(obj); err != nil {
		g.Logger.Error("persist object failed", zap.Int("ref", int(obj.DBRef)), zap.Error(err))
	}
}

// Character wraps the player object at ref.
func (g *Game) Character(ref gamedb.DBRef) (*character.Character, bool) {
	obj, ok := g.DB.Get(ref)
	if !ok || obj.Type != gamedb.TypePlayer {
		return nil, false
	}
	return g.wrap(obj), true
}

func (g *Game) wrap(obj *gamedb.Object) *character.Character {
	deps := character.Deps{Registry: g.Registry, Rand: g.Rand}
	if g.Store != nil {
		deps.Saver = g.Store
	}
	return character.New(obj, deps)
}

// MatchPlayer resolves name from the point of view of looker. It accepts
// "me", "*name", "#dbref", an exact name or a unique name prefix.
// It returns Ambiguous when a prefix matches several players.
func (g *Game) MatchPlayer(looker gamedb.DBRef, name string) gamedb.DBRef {
	name = strings.TrimSpace(name)
	if name == "" {
		return gamedb.Nothing
	}
	if strings.EqualFold(name, "me") {
		return looker
	}
	name = strings.TrimPrefix(name, "*")
	if strings.HasPrefix(name, "#") {
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			return gamedb.Nothing
		}
		if obj, ok := g.DB.Get(gamedb.DBRef(n)); ok && obj.Type == gamedb.TypePlayer {
			return obj.DBRef
		}
		return gamedb.Nothing
	}
	if ref := g.DB.LookupPlayer(name); ref != gamedb.Nothing {
		return ref
	}
	lower := strings.ToLower(name)
	match := gamedb.Nothing
	for ref, obj := range g.DB.Objects {
		if obj.Type != gamedb.TypePlayer || !strings.HasPrefix(strings.ToLower(obj.Name), lower) {
			continue
		}
		if match != gamedb.Nothing {
			return gamedb.Ambiguous
		}
		match = ref
	}
	return match
}

// matchPlayerOrNotify is MatchPlayer that reports failures to d.
func (g *Game) matchPlayerOrNotify(d *Descriptor, name string) (*character.Character, bool) {
	ref := g.MatchPlayer(d.Player, name)
	switch ref {
	case gamedb.Nothing:
		d.Send("I can't find anyone named \"" + strings.TrimSpace(name) + "\".")
		return nil, false
	case gamedb.Ambiguous:
		d.Send("Which one do you mean?")
		return nil, false
	}
	return g.Character(ref)
}

// deliverSpeech sends each player in the speaker's room the variant of del
// they are entitled to see.
func (g *Game) deliverSpeech(speaker *character.Character, evType events.EventType, del character.Delivery) {
	ev := events.Event{
		Type:     evType,
		Source:   speaker.Ref(),
		Language: del.Language,
		Text:     del.Understand,
	}
	g.EventBus.EmitToRoomFunc(g.DB, speaker.Object().Location, ev, func(ref gamedb.DBRef, ev events.Event) (events.Event, bool) {
		listener, ok := g.Character(ref)
		if !ok {
			return ev, false
		}
		ev.Text = del.For(ref == speaker.Ref(), speaker.Understands(listener))
		return ev, true
	})
}

// announce tells the rest of the room about a connection change.
func (g *Game) announce(player gamedb.DBRef, evType events.EventType, text string) {
	obj, ok := g.DB.Get(player)
	if !ok {
		return
	}
	g.EventBus.EmitToRoomExcept(g.DB, obj.Location, player, events.Event{
		Type:   evType,
		Source: player,
		Text:   text,
	})
}
