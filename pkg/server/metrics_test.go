package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsCommands(t *testing.T) {
	env := newTestEnv(t)
	m := NewMetrics(env.game, prometheus.NewRegistry())
	env.game.Metrics = m

	DispatchCommand(env.game, env.bo, "look")
	DispatchCommand(env.game, env.bo, "xyzzy")
	DispatchCommand(env.game, env.bo, "   ")

	if got := testutil.ToFloat64(m.commandsTotal); got != 2 {
		t.Errorf("commands = %v, want 2", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	env := newTestEnv(t)
	m := NewMetrics(env.game, prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"rpkit_players_connected 4",
		"rpkit_descriptors 4",
		"rpkit_objects_total 6",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.CommandProcessed()
	m.ConnectionOpened()
	m.Update()
}
