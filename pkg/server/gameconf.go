package server

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
	"github.com/crystal-mush/rpkit/pkg/weather"
)

// EnvPrefix prefixes every environment override, e.g. RPKIT_PORT.
const EnvPrefix = "RPKIT_"

// GameConf holds game-level configuration parameters.
type GameConf struct {
	// --- Identity ---
	MudName string `yaml:"mud_name" env:"MUD_NAME"`
	Port    int    `yaml:"port" env:"PORT"`

	// --- Observability ---
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"` // empty disables /metrics

	// --- Storage ---
	Store     string `yaml:"store" env:"STORE"` // "bolt" or "redis"
	BoltPath  string `yaml:"bolt_path" env:"BOLT_PATH"`
	RedisAddr string `yaml:"redis_addr" env:"REDIS_ADDR"`

	// --- Stat definitions ---
	StatDefsDB    string `yaml:"statdefs_db" env:"STATDEFS_DB"`
	StatDefsFile  string `yaml:"statdefs_file" env:"STATDEFS_FILE"`
	WatchStatDefs bool   `yaml:"watch_statdefs" env:"WATCH_STATDEFS"`

	// --- Output ---
	WrapWidth int `yaml:"wrap_width" env:"WRAP_WIDTH"`

	// --- Connections ---
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	StartingRoom int           `yaml:"starting_room" env:"STARTING_ROOM"`

	Weather weather.Config `yaml:"weather" envPrefix:"WEATHER_"`
}

// DefaultGameConf returns a GameConf with sensible defaults.
func DefaultGameConf() *GameConf {
	return &GameConf{
		MudName:      "rpkit",
		Port:         4000,
		MetricsAddr:  ":9100",
		Store:        "bolt",
		BoltPath:     "data/game.bolt",
		RedisAddr:    "localhost:6379",
		StatDefsDB:   "data/statdefs.db",
		WrapWidth:    78,
		IdleTimeout:  time.Hour,
		StartingRoom: 0,
		Weather:      weather.DefaultConfig(),
	}
}

// LoadGameConf reads a YAML config over the defaults, then applies
// RPKIT_* environment overrides. An empty path skips the file.
func LoadGameConf(path string) (*GameConf, error) {
	gc := DefaultGameConf()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("gameconf: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, gc); err != nil {
			return nil, fmt.Errorf("gameconf: parse %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(gc, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("gameconf: environment: %w", err)
	}
	if err := gc.validate(); err != nil {
		return nil, err
	}
	return gc, nil
}

func (gc *GameConf) validate() error {
	switch gc.Store {
	case "bolt", "redis":
	default:
		return fmt.Errorf("gameconf: unknown store %q (want bolt or redis)", gc.Store)
	}
	if gc.Port <= 0 || gc.Port > 65535 {
		return fmt.Errorf("gameconf: port %d out of range", gc.Port)
	}
	if gc.WrapWidth < 0 {
		return fmt.Errorf("gameconf: wrap_width must not be negative")
	}
	return nil
}

// StartingRoom returns the room new players are placed in.
func (g *Game) StartingRoom() gamedb.DBRef {
	return gamedb.DBRef(g.Conf.StartingRoom)
}

// EnsureStartingRoom creates the starting room if it does not exist yet,
// and points the configuration at it.
func (g *Game) EnsureStartingRoom() *gamedb.Object {
	if room, ok := g.DB.Get(g.StartingRoom()); ok && room.Type == gamedb.TypeRoom {
		return room
	}
	room := g.DB.Create("Limbo", gamedb.TypeRoom)
	room.SetAttr(gamedb.AttrDesc, "A featureless grey space. New arrivals find their feet here.")
	g.Conf.StartingRoom = int(room.DBRef)
	g.PersistObject(room)
	return room
}
