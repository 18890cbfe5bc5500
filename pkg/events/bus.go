package events

import (
	"sync"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

// Subscriber receives events from the bus.
type Subscriber interface {
	Receive(ev Event)
	Closed() bool
}

// Bus routes events to the sessions of their recipients. Observers see
// every event once, before any per-listener rewriting.
type Bus struct {
	mu        sync.RWMutex
	players   map[gamedb.DBRef][]Subscriber
	observers []Subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{players: make(map[gamedb.DBRef][]Subscriber)}
}

// Subscribe attaches sub to player. A player may have several sessions.
func (b *Bus) Subscribe(player gamedb.DBRef, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.players[player] = append(b.players[player], sub)
}

// Unsubscribe detaches sub from player.
func (b *Bus) Unsubscribe(player gamedb.DBRef, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.players[player]
	for i, s := range subs {
		if s == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.players, player)
	} else {
		b.players[player] = subs
	}
}

// SubscribeGlobal registers sub to receive every event emitted on the bus.
func (b *Bus) SubscribeGlobal(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, sub)
}

func (b *Bus) sessions(player gamedb.DBRef) []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.players[player]
}

func (b *Bus) observe(ev Event) {
	b.mu.RLock()
	obs := b.observers
	b.mu.RUnlock()
	send(obs, ev)
}

func send(subs []Subscriber, ev Event) {
	for _, s := range subs {
		if !s.Closed() {
			s.Receive(ev)
		}
	}
}

// EmitToPlayer delivers ev to every session of player.
func (b *Bus) EmitToPlayer(player gamedb.DBRef, ev Event) {
	ev.Player = player
	send(b.sessions(player), ev)
	b.observe(ev)
}

// EmitToRoomExcept delivers ev to every player in room except one.
func (b *Bus) EmitToRoomExcept(db *gamedb.Database, room, except gamedb.DBRef, ev Event) {
	b.EmitToRoomFunc(db, room, ev, func(listener gamedb.DBRef, ev Event) (Event, bool) {
		return ev, listener != except
	})
}

// EmitToRoomFunc delivers ev to every player in room. tailor may rewrite
// the event for a listener or return false to skip them; nil delivers ev
// unchanged.
func (b *Bus) EmitToRoomFunc(db *gamedb.Database, room gamedb.DBRef, ev Event, tailor func(gamedb.DBRef, Event) (Event, bool)) {
	if _, ok := db.Get(room); !ok {
		return
	}
	ev.Room = room
	for _, ref := range db.Contents(room) {
		obj, ok := db.Get(ref)
		if !ok || obj.Type != gamedb.TypePlayer {
			continue
		}
		out := ev
		out.Player = ref
		if tailor != nil {
			var ok bool
			if out, ok = tailor(ref, out); !ok {
				continue
			}
		}
		send(b.sessions(ref), out)
	}
	ev.Player = gamedb.Nothing
	b.observe(ev)
}
