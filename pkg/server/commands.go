package server

import (
	"strings"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

// CommandHandler is the signature for command implementations.
type CommandHandler func(g *Game, d *Descriptor, args string, switches []string)

// Command defines a registered command.
type Command struct {
	Name    string
	Handler CommandHandler
	// Unlocked commands run without holding the game lock. They must not
	// touch the database.
	Unlocked bool
}

// InitCommands returns the command table keyed by lowercase name.
func InitCommands() map[string]*Command {
	cmds := make(map[string]*Command)

	register := func(cmd *Command, aliases ...string) {
		cmds[cmd.Name] = cmd
		for _, a := range aliases {
			cmds[a] = cmd
		}
	}

	register(&Command{Name: "look", Handler: cmdLook}, "l")
	register(&Command{Name: "quit", Handler: cmdQuit})
	register(&Command{Name: "help", Handler: cmdHelp})

	register(&Command{Name: "say", Handler: cmdSay})
	register(&Command{Name: "pose", Handler: cmdPose})
	register(&Command{Name: "emote", Handler: cmdEmote})
	register(&Command{Name: "+language", Handler: cmdLanguage})

	register(&Command{Name: "+finger", Handler: cmdFinger})
	register(&Command{Name: "+setfinger", Handler: cmdSetFinger})
	register(&Command{Name: "weather", Handler: cmdWeather, Unlocked: true}, "+weather")
	register(&Command{Name: "+where", Handler: cmdWhere}, "where")

	register(&Command{Name: "+stat", Handler: cmdStat})
	register(&Command{Name: "+setstat", Handler: cmdSetStat})

	return cmds
}

// DispatchCommand parses and executes one line of input from a connected
// player.
func DispatchCommand(g *Game, d *Descriptor, input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}
	g.Metrics.CommandProcessed()

	// Single-character prefixes: " for say, : for pose
	switch input[0] {
	case '"':
		g.runLocked(func() { cmdSay(g, d, input[1:], nil) })
		return
	case ':':
		g.runLocked(func() { cmdPose(g, d, input[1:], nil) })
		return
	}

	var cmdName, args string
	if spaceIdx := strings.IndexByte(input, ' '); spaceIdx >= 0 {
		cmdName = input[:spaceIdx]
		args = strings.TrimSpace(input[spaceIdx+1:])
	} else {
		cmdName = input
	}

	// Parse /switches from the command name (e.g. "+finger/all")
	var switches []string
	if slashIdx := strings.IndexByte(cmdName, '/'); slashIdx >= 0 {
		parts := strings.Split(cmdName, "/")
		cmdName = parts[0]
		switches = parts[1:]
	}

	cmd, ok := g.Commands[strings.ToLower(cmdName)]
	if !ok {
		d.Send("Huh?  (Type \"help\" for help.)")
		return
	}
	if cmd.Unlocked {
		cmd.Handler(g, d, args, switches)
		return
	}
	g.runLocked(func() { cmd.Handler(g, d, args, switches) })
}

func (g *Game) runLocked(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

func cmdLook(g *Game, d *Descriptor, args string, _ []string) {
	player, ok := g.DB.Get(d.Player)
	if !ok {
		return
	}
	if args == "" || strings.EqualFold(args, "here") {
		g.ShowRoom(d, player.Location)
		return
	}
	target, ok := g.matchPlayerOrNotify(d, args)
	if !ok {
		return
	}
	obj := target.Object()
	if obj.Location != player.Location && obj.DBRef != player.DBRef {
		d.Send("I don't see that here.")
		return
	}
	d.Send(target.DisplayName(player))
	if desc, ok := obj.GetAttr(gamedb.AttrDesc); ok {
		d.Send(desc)
	}
}

// ShowRoom displays a room's name, description and the players in it.
func (g *Game) ShowRoom(d *Descriptor, loc gamedb.DBRef) {
	room, ok := g.DB.Get(loc)
	if !ok {
		d.Send("You are nowhere.")
		return
	}
	viewer, _ := g.DB.Get(d.Player)
	d.Send("|h" + room.Name + "|n")
	if desc, ok := room.GetAttr(gamedb.AttrDesc); ok {
		d.Send(desc)
	}
	var present []string
	for _, ref := range g.DB.Contents(loc) {
		if ref == d.Player || !g.Conns.IsConnected(ref) {
			continue
		}
		if c, ok := g.Character(ref); ok {
			present = append(present, c.DisplayName(viewer))
		}
	}
	if len(present) > 0 {
		d.Send("Players: " + strings.Join(present, ", "))
	}
}

func cmdQuit(g *Game, d *Descriptor, _ string, _ []string) {
	d.Send("Going home.")
	d.Close()
}
