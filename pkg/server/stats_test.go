package server

import (
	"path/filepath"
	"testing"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
	"github.com/crystal-mush/rpkit/pkg/statdb"
)

type memRegistry map[gamedb.StatKey]gamedb.StatDef

func (m memRegistry) StatDef(category, statType, name string) (gamedb.StatDef, bool) {
	d, ok := m[gamedb.StatKey{Category: category, Type: statType, Name: name}]
	return d, ok
}

func TestSetStat_RequiresBuilder(t *testing.T) {
	env := newTestEnv(t)

	DispatchCommand(env.game, env.bo, "+setstat attributes/mental/Wits=3")
	if out := getOutput(env.bo); out != "Permission denied." {
		t.Errorf("got %q", out)
	}
}

func TestSetStatThenStat(t *testing.T) {
	env := newTestEnv(t)

	DispatchCommand(env.game, env.wren, "+setstat Ana/attributes/mental/Wits=3")
	if out := getOutput(env.wren); out != "Set attributes/mental/Wits on Ana to 3." {
		t.Fatalf("+setstat: got %q", out)
	}
	DispatchCommand(env.game, env.wren, "+setstat ana/attributes/mental/Wits=1/temp")
	if out := getOutput(env.wren); out != "Set attributes/mental/Wits on Ana to 1 (temp)." {
		t.Fatalf("+setstat temp: got %q", out)
	}
	if out := getOutput(env.ana); out != "Wren set your attributes/mental/Wits to 3.\r\nWren set your attributes/mental/Wits to 1 (temp)." {
		t.Errorf("notice: got %q", out)
	}

	DispatchCommand(env.game, env.ana, "+stat attributes/mental/Wi")
	if out := getOutput(env.ana); out != "attributes/mental/Wi: 3 (temp 1)" {
		t.Errorf("+stat: got %q", out)
	}
}

func TestStat_Missing(t *testing.T) {
	env := newTestEnv(t)

	DispatchCommand(env.game, env.bo, "+stat attributes/mental/Wits")
	if out := getOutput(env.bo); out != "You have no stat attributes/mental/Wits." {
		t.Errorf("got %q", out)
	}
	DispatchCommand(env.game, env.bo, "+stat wits")
	if out := getOutput(env.bo); out != "Usage: +stat <category>/<type>/<name>" {
		t.Errorf("usage: got %q", out)
	}
}

func TestStat_RegistryDefault(t *testing.T) {
	env := newTestEnv(t)
	env.game.Registry = memRegistry{
		{Category: "attributes", Type: "mental", Name: "Wits"}: {
			Name: "Wits", Category: "attributes", Type: "mental",
			Default: 1, PermValues: []int{1, 2, 3, 4, 5}, TempValues: []int{0, 1, 2, 3, 4, 5},
		},
	}

	DispatchCommand(env.game, env.bo, "+stat attributes/mental/Wits")
	if out := getOutput(env.bo); out != "attributes/mental/Wits: 1 (temp 1)" {
		t.Errorf("default: got %q", out)
	}

	DispatchCommand(env.game, env.wren, "+setstat bo/attributes/mental/Wits=9")
	if out := getOutput(env.wren); out != "9 is not a valid value for attributes/mental/Wits." {
		t.Errorf("invalid: got %q", out)
	}
	DispatchCommand(env.game, env.wren, "+setstat bo/attributes/mental/Wits=0/temp")
	if out := getOutput(env.wren); out != "Set attributes/mental/Wits on Bo to 0 (temp)." {
		t.Errorf("valid temp: got %q", out)
	}
	DispatchCommand(env.game, env.wren, "+setstat bo/attributes/mental/Wits=0")
	if out := getOutput(env.wren); out != "0 is not a valid value for attributes/mental/Wits." {
		t.Errorf("perm 0: got %q", out)
	}
}

func TestSetStat_Usage(t *testing.T) {
	env := newTestEnv(t)
	const usage = "Usage: +setstat [<player>/]<category>/<type>/<name>=<value>[/temp]"

	for _, args := range []string{
		"+setstat",
		"+setstat attributes/mental=3",
		"+setstat attributes/mental/Wits=high",
		"+setstat attributes//Wits=2",
	} {
		DispatchCommand(env.game, env.wren, args)
		if out := getOutput(env.wren); out != usage {
			t.Errorf("%q: got %q", args, out)
		}
	}
}

func TestSetStat_UndefinedStatWithEmptyRegistry(t *testing.T) {
	env := newTestEnv(t)
	reg, err := statdb.Open(filepath.Join(t.TempDir(), "statdefs.db"), nil)
	if err != nil {
		t.Fatalf("statdb.Open: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	env.game.Registry = reg

	DispatchCommand(env.game, env.wren, "+setstat Bo/merits/social/Language(Gaelic)=1")
	if out := getOutput(env.wren); out != "Set merits/social/Language(Gaelic) on Bo to 1." {
		t.Fatalf("+setstat: got %q", out)
	}
	clearOutput(env.bo)

	DispatchCommand(env.game, env.bo, "+language gaelic")
	if out := getOutput(env.bo); out != "You are now speaking Gaelic." {
		t.Errorf("+language: got %q", out)
	}
}

func TestSetStat_Clear(t *testing.T) {
	env := newTestEnv(t)

	DispatchCommand(env.game, env.wren, "+setstat Cai/merits/social/Language(Gaelic)=")
	if out := getOutput(env.wren); out != "Cleared merits/social/Language(Gaelic) on Cai." {
		t.Fatalf("clear: got %q", out)
	}
	if out := getOutput(env.cai); out != "Wren cleared your merits/social/Language(Gaelic)." {
		t.Errorf("notice: got %q", out)
	}
	cai, _ := env.game.DB.Get(env.cai.Player)
	if _, ok := cai.Stats.Get(gaelic); ok {
		t.Error("stat still stored after clear")
	}

	DispatchCommand(env.game, env.wren, "+setstat Cai/merits/social/Language(Gaelic)=")
	if out := getOutput(env.wren); out != "Cai has no stat merits/social/Language(Gaelic)." {
		t.Errorf("clear missing: got %q", out)
	}
}

func TestSetStat_SelfGetsNoNotice(t *testing.T) {
	env := newTestEnv(t)

	DispatchCommand(env.game, env.wren, "+setstat attributes/mental/Wits=2")
	if out := getOutput(env.wren); out != "Set attributes/mental/Wits on Wren to 2." {
		t.Errorf("got %q", out)
	}
}
