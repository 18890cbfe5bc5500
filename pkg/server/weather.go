package server

import (
	"context"

	"github.com/crystal-mush/rpkit/pkg/weather"
)

// cmdWeather runs without the game lock since the provider call may block.
func cmdWeather(g *Game, d *Descriptor, _ string, _ []string) {
	if g.Weather == nil {
		d.Send(weather.FailureMessage)
		return
	}
	d.Send(g.Weather.Message(context.Background()))
}
