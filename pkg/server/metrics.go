package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metric descriptors for the game server. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	game      *Game
	startTime time.Time
	gatherer  prometheus.Gatherer

	playersConnected prometheus.Gauge
	descriptors      prometheus.Gauge
	objectsTotal     prometheus.Gauge
	connectionsTotal prometheus.Counter
	commandsTotal    prometheus.Counter
	uptimeSeconds    prometheus.Gauge
	goroutines       prometheus.Gauge
}

// NewMetrics creates the game metrics and registers them with reg.
func NewMetrics(game *Game, reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		game:      game,
		startTime: time.Now(),
		gatherer:  reg,
		playersConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rpkit_players_connected",
			Help: "Number of distinct logged-in players.",
		}),
		descriptors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rpkit_descriptors",
			Help: "Number of open connections, logged in or not.",
		}),
		objectsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rpkit_objects_total",
			Help: "Total number of objects in the database.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpkit_connections_total",
			Help: "Total connections since server start.",
		}),
		commandsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpkit_commands_processed_total",
			Help: "Total commands processed since server start.",
		}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rpkit_uptime_seconds",
			Help: "Server uptime in seconds.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rpkit_goroutines",
			Help: "Number of active goroutines.",
		}),
	}

	reg.MustRegister(
		m.playersConnected,
		m.descriptors,
		m.objectsTotal,
		m.connectionsTotal,
		m.commandsTotal,
		m.uptimeSeconds,
		m.goroutines,
	)
	return m
}

// CommandProcessed counts one dispatched command.
func (m *Metrics) CommandProcessed() {
	if m == nil {
		return
	}
	m.commandsTotal.Inc()
}

// ConnectionOpened counts one accepted connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
}

// Update refreshes all gauge metrics from current game state.
func (m *Metrics) Update() {
	if m == nil {
		return
	}
	m.playersConnected.Set(float64(m.game.Conns.ConnectedPlayers()))
	m.descriptors.Set(float64(m.game.Conns.Count()))

	m.game.mu.Lock()
	m.objectsTotal.Set(float64(len(m.game.DB.Objects)))
	m.game.mu.Unlock()

	m.uptimeSeconds.Set(time.Since(m.startTime).Seconds())
	m.goroutines.Set(float64(runtime.NumGoroutine()))
}

// Handler returns an http.Handler that updates metrics before serving them.
func (m *Metrics) Handler() http.Handler {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Update()
		h.ServeHTTP(w, r)
	})
}
