package server

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/crystal-mush/rpkit/pkg/character"
	"github.com/crystal-mush/rpkit/pkg/events"
)

func cmdSay(g *Game, d *Descriptor, args string, _ []string) {
	if strings.TrimSpace(args) == "" {
		d.Send("Say what?")
		return
	}
	speaker, ok := g.Character(d.Player)
	if !ok {
		return
	}
	g.deliverSpeech(speaker, events.EvSay, g.Hooks.AtSay(speaker, args))
}

func cmdPose(g *Game, d *Descriptor, args string, _ []string) {
	if strings.TrimSpace(args) == "" {
		d.Send("Pose what?")
		return
	}
	speaker, ok := g.Character(d.Player)
	if !ok {
		return
	}
	g.deliverSpeech(speaker, events.EvPose, g.Hooks.AtPose(speaker, strings.TrimSpace(args)))
}

func cmdEmote(g *Game, d *Descriptor, args string, _ []string) {
	if strings.TrimSpace(args) == "" {
		d.Send("Emote what?")
		return
	}
	speaker, ok := g.Character(d.Player)
	if !ok {
		return
	}
	g.deliverSpeech(speaker, events.EvEmote, g.Hooks.AtEmote(speaker, strings.TrimSpace(args)))
}

// cmdLanguage lists known languages or selects the spoken one.
func cmdLanguage(g *Game, d *Descriptor, args string, _ []string) {
	c, ok := g.Character(d.Player)
	if !ok {
		return
	}
	args = strings.TrimSpace(args)
	if args == "" {
		langs := c.Languages()
		if len(langs) == 0 {
			d.Send("You don't know any languages.")
		} else {
			d.Send("Languages you know: " + strings.Join(langs, ", "))
		}
		if cur, ok := c.SpeakingLanguage(); ok {
			d.Send("You are speaking " + cur + ".")
		} else {
			d.Send("You are not speaking any particular language.")
		}
		return
	}

	err := c.SetSpeakingLanguage(args)
	switch {
	case errors.Is(err, character.ErrUnknownLanguage):
		d.Send(err.Error())
		return
	case err != nil:
		g.Logger.Error("set speaking language", zap.Stringer("character", c), zap.Error(err))
		d.Send("Something went wrong saving your language.")
		return
	}
	if cur, ok := c.SpeakingLanguage(); ok {
		d.Send("You are now speaking " + cur + ".")
	} else {
		d.Send("You are no longer speaking any particular language.")
	}
}
