package server

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/crystal-mush/rpkit/pkg/ansi"
)

const (
	whereNameWidth     = 20
	whereLocationWidth = 30
)

type whereRow struct {
	name, location, idle string
}

func cmdWhere(g *Game, d *Descriptor, _ string, _ []string) {
	viewer, _ := g.DB.Get(d.Player)
	var rows []whereRow
	for _, dd := range g.Conns.AllDescriptors() {
		if dd.State != ConnConnected {
			continue
		}
		c, ok := g.Character(dd.Player)
		if !ok {
			continue
		}
		loc := "Unknown"
		if room, ok := g.DB.Get(c.Object().Location); ok {
			loc = room.Name
		}
		rows = append(rows, whereRow{
			name:     c.DisplayName(viewer),
			location: loc,
			idle:     FormatIdle(dd.Idle()),
		})
	}
	if len(rows) == 0 {
		d.Send("No players are currently connected.")
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(ansi.Strip(rows[i].name)) < strings.ToLower(ansi.Strip(rows[j].name))
	})

	lines := []string{whereLine("Player", "Location", "Idle")}
	for _, r := range rows {
		lines = append(lines, whereLine(r.name, r.location, r.idle))
	}
	d.Send(strings.Join(lines, "\n"))
}

func whereLine(name, location, idle string) string {
	return ansi.PadRight(name, whereNameWidth) + " " + ansi.PadRight(location, whereLocationWidth) + " " + idle
}

// FormatIdle renders a duration as "1 day, 2 hours, 5 minutes". Seconds
// are dropped and minutes are always present.
func FormatIdle(dur time.Duration) string {
	if dur < 0 {
		dur = 0
	}
	total := int(dur / time.Minute)
	days, hours, minutes := total/(24*60), total/60%24, total%60

	var b strings.Builder
	if days > 0 {
		b.WriteString(plural(days, "day") + ", ")
	}
	if days > 0 || hours > 0 {
		b.WriteString(plural(hours, "hour") + ", ")
	}
	b.WriteString(plural(minutes, "minute"))
	return b.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
