package statdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTemp(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "stats.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

var strength = gamedb.StatDef{
	Name:       "Strength",
	Category:   "attributes",
	Type:       "physical",
	Default:    1,
	PermValues: []int{1, 2, 3, 4, 5},
	TempValues: []int{0, 1, 2, 3, 4, 5, 6},
}

func TestRegistry_PutAndLookup(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, strength))

	got, err := r.Lookup(ctx, strength.Key())
	require.NoError(t, err)
	assert.Equal(t, strength, got)

	cached, ok := r.StatDef("attributes", "physical", "Strength")
	require.True(t, ok)
	assert.Equal(t, 1, cached.Default)
	assert.Equal(t, 1, r.Len())

	_, err = r.Lookup(ctx, gamedb.StatKey{Category: "attributes", Type: "physical", Name: "Nope"})
	assert.ErrorIs(t, err, gamedb.ErrNotFound)
}

func TestRegistry_PutReplaces(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, strength))
	changed := strength
	changed.Default = 2
	changed.TempValues = nil
	require.NoError(t, r.Put(ctx, changed))

	got, ok := r.StatDef("attributes", "physical", "Strength")
	require.True(t, ok)
	assert.Equal(t, 2, got.Default)
	assert.Empty(t, got.TempValues)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_PutRejectsIncompleteKey(t *testing.T) {
	r := openTemp(t)
	err := r.Put(context.Background(), gamedb.StatDef{Name: "Orphan"})
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	r, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.Put(context.Background(), strength))
	require.NoError(t, r.Close())

	r2, err := Open(path, nil)
	require.NoError(t, err)
	defer r2.Close()
	_, ok := r2.StatDef("attributes", "physical", "Strength")
	assert.True(t, ok)
}

const seedYAML = `stats:
  - name: Language(Gaelic)
    category: merits
    type: social
    default: 0
    perm_values: [1]
  - name: Wits
    category: attributes
    type: mental
    default: 1
    perm_values: [1, 2, 3, 4, 5]
`

func TestRegistry_ImportYAML(t *testing.T) {
	r := openTemp(t)
	path := filepath.Join(t.TempDir(), "stats.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	n, err := r.ImportYAML(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	def, ok := r.StatDef("merits", "social", "Language(Gaelic)")
	require.True(t, ok)
	assert.True(t, def.Allows(1, false))
	assert.False(t, def.Allows(2, false))
}

func TestRegistry_ImportYAMLBadFile(t *testing.T) {
	r := openTemp(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stats: [oops"), 0o644))

	_, err := r.ImportYAML(context.Background(), path)
	assert.Error(t, err)

	_, err = r.ImportYAML(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegistry_WatchReloads(t *testing.T) {
	r := openTemp(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stats: []\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, path) }()

	// Keep rewriting until the watcher has been registered and picks it up.
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte(seedYAML), 0o644); err != nil {
			return false
		}
		_, ok := r.StatDef("attributes", "mental", "Wits")
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()
	require.NoError(t, r.Put(ctx, strength))

	dest := filepath.Join(t.TempDir(), "snap.db")
	require.NoError(t, r.Snapshot(ctx, dest))

	snap, err := Open(dest, nil)
	require.NoError(t, err)
	defer snap.Close()
	_, ok := snap.StatDef("attributes", "physical", "Strength")
	assert.True(t, ok)
}
