package character

import "github.com/crystal-mush/rpkit/pkg/gamedb"

// GetStat returns the perm (or temp) value of the first stat in
// (category, statType) whose name starts with name. Without a stored stat
// it falls back to the registry default.
func (c *Character) GetStat(category, statType, name string, temp bool) (int, bool) {
	if s, ok := c.obj.Stats.FindPrefix(category, statType, name); ok {
		if temp {
			return s.Value.Temp, true
		}
		return s.Value.Perm, true
	}
	if c.deps.Registry != nil {
		if def, ok := c.deps.Registry.StatDef(category, statType, name); ok {
			return def.Default, true
		}
	}
	return 0, false
}

// SetStat writes one component of a stat, creating it as {0, 0} first if
// needed, and persists the character.
func (c *Character) SetStat(category, statType, name string, value int, temp bool) error {
	key := gamedb.StatKey{Category: category, Type: statType, Name: name}
	v, _ := c.obj.Stats.Get(key)
	if temp {
		v.Temp = value
	} else {
		v.Perm = value
	}
	c.obj.Stats.Put(key, v)
	return c.save()
}

// CheckStatValue reports whether value is legal for the stat according to
// its registry definition. Unknown stats are never valid.
func (c *Character) CheckStatValue(category, statType, name string, value int, temp bool) bool {
	if c.deps.Registry == nil {
		return false
	}
	def, ok := c.deps.Registry.StatDef(category, statType, name)
	return ok && def.Allows(value, temp)
}

// ClearStat removes the stat named exactly name and persists the
// character. It reports whether the stat existed.
func (c *Character) ClearStat(category, statType, name string) (bool, error) {
	if !c.obj.Stats.Delete(gamedb.StatKey{Category: category, Type: statType, Name: name}) {
		return false, nil
	}
	return true, c.save()
}
