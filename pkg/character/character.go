// Package character adds role-play behavior to player objects: display
// names, spoken languages, speech masking and the stat table.
package character

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
)

// Registry supplies global stat definitions.
type Registry interface {
	StatDef(category, statType, name string) (gamedb.StatDef, bool)
}

// Saver persists a modified object.
type Saver interface {
	PutObject(obj *gamedb.Object) error
}

// Chooser picks a uniform index in [0, n).
type Chooser interface {
	IntN(n int) int
}

// Viewer is anything whose permission level affects what it sees.
type Viewer interface {
	HasPerm(p gamedb.Perm) bool
}

// Deps are the collaborators shared by every Character. Nil fields are
// allowed: no registry means no stat defaults, no saver means changes stay
// in memory.
type Deps struct {
	Registry Registry
	Saver    Saver
	Rand     Chooser
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Character wraps a player object.
type Character struct {
	obj  *gamedb.Object
	deps Deps
}

// New wraps obj.
func New(obj *gamedb.Object, deps Deps) *Character {
	if deps.Rand == nil {
		deps.Rand = globalRand{}
	}
	return &Character{obj: obj, deps: deps}
}

// Object returns the underlying object.
func (c *Character) Object() *gamedb.Object { return c.obj }

// Ref returns the character's dbref.
func (c *Character) Ref() gamedb.DBRef { return c.obj.DBRef }

// GradientName returns the display override, if one is set.
func (c *Character) GradientName() (string, bool) {
	v, ok := c.obj.GetAttr(gamedb.AttrGradientName)
	return v, ok && v != ""
}

// Name is the name used in speech: the gradient name when set, else the key.
func (c *Character) Name() string {
	if g, ok := c.GradientName(); ok {
		return g
	}
	return c.obj.Name
}

// DisplayName returns the name as seen by looker. Builders and above also
// see the dbref.
func (c *Character) DisplayName(looker Viewer) string {
	name := c.Name()
	if looker != nil && looker.HasPerm(gamedb.PermBuilder) {
		name += "(#" + strconv.Itoa(int(c.obj.DBRef)) + ")"
	}
	return name
}

// ColorizeName replaces plain occurrences of the character's name in msg
// with the gradient name.
func (c *Character) ColorizeName(msg string) string {
	g, ok := c.GradientName()
	if !ok || c.obj.Name == "" {
		return msg
	}
	return strings.ReplaceAll(msg, c.obj.Name, g)
}

// InitFingerDefaults seeds the finger fields of a new character.
func (c *Character) InitFingerDefaults() error {
	c.obj.SetAttr(gamedb.FingerPrefix+"fullname", c.obj.Name)
	for _, f := range gamedb.DefaultFingerFields {
		c.obj.SetAttr(gamedb.FingerPrefix+f, gamedb.NotSpecified)
	}
	return c.save()
}

func (c *Character) save() error {
	if c.deps.Saver == nil {
		return nil
	}
	if err := c.deps.Saver.PutObject(c.obj); err != nil {
		return fmt.Errorf("character: save #%d: %w", c.obj.DBRef, err)
	}
	return nil
}
