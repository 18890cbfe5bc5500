package server

import (
	"strings"

	"github.com/crystal-mush/rpkit/pkg/ansi"
	"github.com/crystal-mush/rpkit/pkg/character"
	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

const fingerSeparator = "|C========================================|n"

// fingerLabel turns "ic_job" into "Ic job".
func fingerLabel(field string) string {
	return character.Capitalize(strings.ReplaceAll(field, "_", " "))
}

func cmdFinger(g *Game, d *Descriptor, args string, _ []string) {
	if strings.TrimSpace(args) == "" {
		d.Send("|rUsage:|n +finger <player>")
		return
	}
	target, ok := g.matchPlayerOrNotify(d, args)
	if !ok {
		return
	}
	viewer, _ := g.DB.Get(d.Player)
	seeHidden := d.Player == target.Ref() || viewer.HasPerm(gamedb.PermBuilder)

	var b strings.Builder
	b.WriteString(fingerSeparator)
	shown := 0
	for _, attr := range target.Object().AttrsWithPrefix(gamedb.FingerPrefix) {
		if attr.Value == gamedb.HiddenValue && !seeHidden {
			continue
		}
		label := fingerLabel(strings.TrimPrefix(attr.Name, gamedb.FingerPrefix))
		line := ansi.WrapHanging(label+": "+attr.Value, g.Conf.WrapWidth, len(label)+2)
		value := strings.TrimPrefix(line, label+": ")
		b.WriteString("\n|g" + label + "|n: |y" + value + "|n")
		shown++
	}
	if shown == 0 {
		b.WriteString("\n|rNo public information available.|n")
	}
	b.WriteString("\n" + fingerSeparator)
	d.Send(b.String())
}

func cmdSetFinger(g *Game, d *Descriptor, args string, _ []string) {
	field, value, ok := strings.Cut(args, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		d.Send("Usage: +setfinger <field_name>=<value>")
		return
	}
	value = strings.TrimSpace(value)
	player, found := g.DB.Get(d.Player)
	if !found {
		return
	}
	attr := gamedb.FingerPrefix + strings.ToLower(field)
	if value == "" {
		player.DelAttr(attr)
		g.PersistObject(player)
		d.Send("Cleared " + field + ".")
		return
	}
	player.SetAttr(attr, value)
	g.PersistObject(player)
	d.Send("Set " + field + " to: " + value)
}
