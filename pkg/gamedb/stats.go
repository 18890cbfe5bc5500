package gamedb

import (
	"sort"
	"strings"
)

// StatKey addresses a stat by category, stat type and name.
type StatKey struct {
	Category string
	Type     string
	Name     string
}

func (k StatKey) String() string {
	return k.Category + "/" + k.Type + "/" + k.Name
}

func (k StatKey) less(o StatKey) bool {
	if k.Category != o.Category {
		return k.Category < o.Category
	}
	if k.Type != o.Type {
		return k.Type < o.Type
	}
	return k.Name < o.Name
}

// StatValue holds the permanent and temporary components of a stat.
type StatValue struct {
	Perm int
	Temp int
}

// Stat is one row of a StatTable.
type Stat struct {
	Key   StatKey
	Value StatValue
}

// StatTable is an object's stat storage, kept sorted by key. Keys are
// unique and every row carries both components.
type StatTable []Stat

func (t StatTable) search(k StatKey) int {
	return sort.Search(len(t), func(i int) bool { return !t[i].Key.less(k) })
}

// Get returns the value stored under k.
func (t StatTable) Get(k StatKey) (StatValue, bool) {
	i := t.search(k)
	if i < len(t) && t[i].Key == k {
		return t[i].Value, true
	}
	return StatValue{}, false
}

// Put stores v under k, inserting the row if needed.
func (t *StatTable) Put(k StatKey, v StatValue) {
	i := t.search(k)
	if i < len(*t) && (*t)[i].Key == k {
		(*t)[i].Value = v
		return
	}
	*t = append(*t, Stat{})
	copy((*t)[i+1:], (*t)[i:])
	(*t)[i] = Stat{Key: k, Value: v}
}

// Delete removes the row for k. It reports whether a row was removed.
func (t *StatTable) Delete(k StatKey) bool {
	i := t.search(k)
	if i < len(*t) && (*t)[i].Key == k {
		*t = append((*t)[:i], (*t)[i+1:]...)
		return true
	}
	return false
}

// Section returns the rows for one (category, type) pair in name order.
func (t StatTable) Section(category, statType string) []Stat {
	start := t.search(StatKey{Category: category, Type: statType})
	var out []Stat
	for i := start; i < len(t); i++ {
		if t[i].Key.Category != category || t[i].Key.Type != statType {
			break
		}
		out = append(out, t[i])
	}
	return out
}

// FindPrefix returns the first row in (category, type) whose name starts
// with prefix.
func (t StatTable) FindPrefix(category, statType, prefix string) (Stat, bool) {
	for _, s := range t.Section(category, statType) {
		if strings.HasPrefix(s.Key.Name, prefix) {
			return s, true
		}
	}
	return Stat{}, false
}

// StatDef is a global stat definition: a default value and the values a
// stat may legally take.
type StatDef struct {
	Name       string `yaml:"name"`
	Category   string `yaml:"category"`
	Type       string `yaml:"type"`
	Default    int    `yaml:"default"`
	PermValues []int  `yaml:"perm_values"`
	TempValues []int  `yaml:"temp_values"`
}

// Key returns the stat key the definition describes.
func (d StatDef) Key() StatKey {
	return StatKey{Category: d.Category, Type: d.Type, Name: d.Name}
}

// Allows reports whether value is a legal perm (or temp) value.
func (d StatDef) Allows(value int, temp bool) bool {
	vals := d.PermValues
	if temp {
		vals = d.TempValues
	}
	for _, v := range vals {
		if v == value {
			return true
		}
	}
	return false
}
