package server

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/crystal-mush/rpkit/pkg/events"
	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

// parseStatPath splits "category/type/name" into its parts.
func parseStatPath(s string) (gamedb.StatKey, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return gamedb.StatKey{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return gamedb.StatKey{}, false
		}
	}
	return gamedb.StatKey{Category: parts[0], Type: parts[1], Name: parts[2]}, true
}

func cmdStat(g *Game, d *Descriptor, args string, _ []string) {
	key, ok := parseStatPath(args)
	if !ok {
		d.Send("Usage: +stat <category>/<type>/<name>")
		return
	}
	c, ok := g.Character(d.Player)
	if !ok {
		return
	}
	perm, found := c.GetStat(key.Category, key.Type, key.Name, false)
	if !found {
		d.Send("You have no stat " + key.String() + ".")
		return
	}
	temp, _ := c.GetStat(key.Category, key.Type, key.Name, true)
	d.Send(fmt.Sprintf("|g%s|n: |y%d|n (temp |y%d|n)", key.String(), perm, temp))
}

// cmdSetStat handles "+setstat [player/]cat/type/name=value[/temp]". An
// empty value removes the stat.
func cmdSetStat(g *Game, d *Descriptor, args string, _ []string) {
	const usage = "Usage: +setstat [<player>/]<category>/<type>/<name>=<value>[/temp]"

	viewer, _ := g.DB.Get(d.Player)
	if !viewer.HasPerm(gamedb.PermBuilder) {
		d.Send("Permission denied.")
		return
	}
	path, rhs, ok := strings.Cut(args, "=")
	if !ok {
		d.Send(usage)
		return
	}

	target := "me"
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 4 {
		target, parts = parts[0], parts[1:]
	}
	key, ok := parseStatPath(strings.Join(parts, "/"))
	if !ok {
		d.Send(usage)
		return
	}

	rhs = strings.TrimSpace(rhs)
	if rhs == "" {
		clearStat(g, d, target, key)
		return
	}
	temp := false
	if v, ok := strings.CutSuffix(rhs, "/temp"); ok {
		rhs, temp = strings.TrimSpace(v), true
	}
	value, err := strconv.Atoi(rhs)
	if err != nil {
		d.Send(usage)
		return
	}

	c, ok := g.matchPlayerOrNotify(d, target)
	if !ok {
		return
	}
	// Only stats with a definition are range checked.
	if g.Registry != nil {
		if _, defined := g.Registry.StatDef(key.Category, key.Type, key.Name); defined &&
			!c.CheckStatValue(key.Category, key.Type, key.Name, value, temp) {
			d.Send(fmt.Sprintf("%d is not a valid value for %s.", value, key.String()))
			return
		}
	}
	if err := c.SetStat(key.Category, key.Type, key.Name, value, temp); err != nil {
		g.Logger.Error("set stat", zap.Stringer("character", c), zap.String("stat", key.String()), zap.Error(err))
		d.Send("Something went wrong saving that stat.")
		return
	}
	d.Send(fmt.Sprintf("Set %s on %s to %d%s.", key.String(), c.Name(), value, componentSuffix(temp)))
	notifyStatChange(g, d, c.Ref(), fmt.Sprintf("%s set your %s to %d%s.",
		viewer.Name, key.String(), value, componentSuffix(temp)))
}

func clearStat(g *Game, d *Descriptor, target string, key gamedb.StatKey) {
	c, ok := g.matchPlayerOrNotify(d, target)
	if !ok {
		return
	}
	existed, err := c.ClearStat(key.Category, key.Type, key.Name)
	switch {
	case err != nil:
		g.Logger.Error("clear stat", zap.Stringer("character", c), zap.String("stat", key.String()), zap.Error(err))
		d.Send("Something went wrong saving that stat.")
	case !existed:
		d.Send(fmt.Sprintf("%s has no stat %s.", c.Name(), key.String()))
	default:
		d.Send(fmt.Sprintf("Cleared %s on %s.", key.String(), c.Name()))
		viewer, _ := g.DB.Get(d.Player)
		notifyStatChange(g, d, c.Ref(), fmt.Sprintf("%s cleared your %s.", viewer.Name, key.String()))
	}
}

// notifyStatChange tells the target's sessions about a change made by
// someone else.
func notifyStatChange(g *Game, d *Descriptor, target gamedb.DBRef, msg string) {
	if target == d.Player {
		return
	}
	g.EventBus.EmitToPlayer(target, events.Event{Type: events.EvText, Source: d.Player, Text: msg})
}

func componentSuffix(temp bool) string {
	if temp {
		return " (temp)"
	}
	return ""
}
