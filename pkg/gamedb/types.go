package gamedb

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// DBRef is the fundamental object reference type.
type DBRef int

const (
	Nothing   DBRef = -1
	Ambiguous DBRef = -2
)

// ErrNotFound is returned by lookups that find no object.
var ErrNotFound = errors.New("gamedb: not found")

// ObjectType represents the type of an object.
type ObjectType int

const (
	TypeRoom   ObjectType = 0
	TypeThing  ObjectType = 1
	TypePlayer ObjectType = 3
)

func (t ObjectType) String() string {
	switch t {
	case TypeRoom:
		return "ROOM"
	case TypeThing:
		return "THING"
	case TypePlayer:
		return "PLAYER"
	default:
		return "UNKNOWN"
	}
}

// Perm is a hierarchical permission level. A higher level passes every
// check for a lower one.
type Perm int

const (
	PermPlayer Perm = iota
	PermHelper
	PermBuilder
	PermAdmin
	PermDeveloper
)

var permNames = []string{"player", "helper", "builder", "admin", "developer"}

func (p Perm) String() string {
	if p < 0 || int(p) >= len(permNames) {
		return "unknown"
	}
	return permNames[p]
}

// ParsePerm accepts singular or plural names ("builder", "Builders").
func ParsePerm(s string) (Perm, bool) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for i, name := range permNames {
		if name == s {
			return Perm(i), true
		}
	}
	return PermPlayer, false
}

// Attribute is a single named attribute value.
type Attribute struct {
	Name  string
	Value string
}

// Object represents a persistent game entity.
type Object struct {
	DBRef    DBRef
	Name     string
	Type     ObjectType
	Location DBRef
	Perm     Perm
	PassHash string
	Created  time.Time
	Attrs    map[string]string // keyed by lowercase attribute name
	Stats    StatTable
}

// NewObject returns an empty object of the given type.
func NewObject(ref DBRef, name string, t ObjectType) *Object {
	return &Object{
		DBRef:    ref,
		Name:     name,
		Type:     t,
		Location: Nothing,
		Created:  time.Now(),
		Attrs:    make(map[string]string),
	}
}

// HasPerm reports whether the object holds at least the given level.
func (o *Object) HasPerm(p Perm) bool {
	return o != nil && o.Perm >= p
}

// GetAttr returns an attribute value by case-insensitive name.
func (o *Object) GetAttr(name string) (string, bool) {
	if o.Attrs == nil {
		return "", false
	}
	v, ok := o.Attrs[strings.ToLower(name)]
	return v, ok
}

// SetAttr stores an attribute value.
func (o *Object) SetAttr(name, value string) {
	if o.Attrs == nil {
		o.Attrs = make(map[string]string)
	}
	o.Attrs[strings.ToLower(name)] = value
}

// DelAttr removes an attribute. It reports whether the attribute existed.
func (o *Object) DelAttr(name string) bool {
	key := strings.ToLower(name)
	if _, ok := o.Attrs[key]; !ok {
		return false
	}
	delete(o.Attrs, key)
	return true
}

// AttrsWithPrefix returns the attributes whose name starts with prefix,
// sorted by name.
func (o *Object) AttrsWithPrefix(prefix string) []Attribute {
	prefix = strings.ToLower(prefix)
	var out []Attribute
	for name, value := range o.Attrs {
		if strings.HasPrefix(name, prefix) {
			out = append(out, Attribute{Name: name, Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Database holds the complete in-memory game state.
type Database struct {
	NextRef DBRef
	Objects map[DBRef]*Object
}

// NewDatabase creates an empty Database.
func NewDatabase() *Database {
	return &Database{
		Objects: make(map[DBRef]*Object),
	}
}

// Get returns the object for ref.
func (db *Database) Get(ref DBRef) (*Object, bool) {
	obj, ok := db.Objects[ref]
	return obj, ok
}

// Add inserts obj and advances NextRef past it.
func (db *Database) Add(obj *Object) {
	db.Objects[obj.DBRef] = obj
	if obj.DBRef >= db.NextRef {
		db.NextRef = obj.DBRef + 1
	}
}

// Create allocates a new object with the next free dbref.
func (db *Database) Create(name string, t ObjectType) *Object {
	obj := NewObject(db.NextRef, name, t)
	db.Add(obj)
	return obj
}

// LookupPlayer finds a player by case-insensitive name.
func (db *Database) LookupPlayer(name string) DBRef {
	for _, obj := range db.Objects {
		if obj.Type == TypePlayer && strings.EqualFold(obj.Name, name) {
			return obj.DBRef
		}
	}
	return Nothing
}

// Contents returns the objects located in loc, ordered by dbref.
func (db *Database) Contents(loc DBRef) []DBRef {
	var refs []DBRef
	for ref, obj := range db.Objects {
		if obj.Location == loc {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}
