package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func fixedNow(ts string) func() time.Time {
	return func() time.Time {
		tm, _ := time.Parse(time.RFC3339, ts)
		return tm
	}
}

func createTestArchive(t *testing.T, dir string) (string, string) {
	t.Helper()
	src := t.TempDir()
	conf := filepath.Join(src, "game.yaml")
	writeTestFile(t, conf, "mud_name: Harbor\n")

	path, err := Create(Params{
		Dir:     dir,
		Server:  "rpkit",
		MudName: "Harbor",
		Objects: 6,
		Now:     fixedNow("2026-03-01T12:00:00Z"),
		Sources: []Source{
			{Name: "data/game.bolt", Kind: "bolt", Snapshot: func(dest string) error {
				return os.WriteFile(dest, []byte("bolt-bytes"), 0o644)
			}},
			{Name: "conf/game.yaml", Kind: "conf", Path: conf},
			{Name: "data/statdefs.db", Kind: "statdefs", Path: filepath.Join(src, "missing.db")},
		},
	})
	require.NoError(t, err)
	return path, src
}

func TestCreateAndReadManifest(t *testing.T) {
	dir := t.TempDir()
	path, _ := createTestArchive(t, dir)

	assert.Equal(t, filepath.Join(dir, "archive-20260301-120000.tar.gz"), path)

	m, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "rpkit", m.Server)
	assert.Equal(t, "Harbor", m.MudName)
	assert.Equal(t, 6, m.Objects)
	assert.Equal(t, "2026-03-01T12:00:00Z", m.Timestamp)
	require.Len(t, m.Files, 2, "missing source should be skipped")
	assert.Equal(t, "bolt", m.Files["data/game.bolt"].Kind)
	assert.Equal(t, int64(len("bolt-bytes")), m.Files["data/game.bolt"].Size)
	assert.Equal(t, "conf", m.Files["conf/game.yaml"].Kind)
}

func TestCreateSnapshotFailureRemovesArchive(t *testing.T) {
	dir := t.TempDir()
	_, err := Create(Params{
		Dir: dir,
		Sources: []Source{{Name: "data/game.bolt", Snapshot: func(string) error {
			return os.ErrPermission
		}}},
	})
	require.ErrorIs(t, err, os.ErrPermission)

	list, err := List(dir)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	createTestArchive(t, dir)
	writeTestFile(t, filepath.Join(dir, "junk.tar.gz"), "not gzip")

	list, err := List(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)

	var found bool
	for _, info := range list {
		if info.MudName == "Harbor" {
			found = true
			assert.Equal(t, 6, info.Objects)
			assert.Equal(t, "2026-03-01T12:00:00Z", info.Timestamp)
		}
	}
	assert.True(t, found)
}

func TestRestore(t *testing.T) {
	path, _ := createTestArchive(t, t.TempDir())
	out := t.TempDir()
	bolt := filepath.Join(out, "data", "game.bolt")

	n, err := Restore(path, map[string]string{"data/game.bolt": bolt})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := os.ReadFile(bolt)
	require.NoError(t, err)
	assert.Equal(t, "bolt-bytes", string(got))
}

func TestRestoreRejectsTamperedArchive(t *testing.T) {
	path, _ := createTestArchive(t, t.TempDir())

	tampered := filepath.Join(t.TempDir(), "tampered.tar.gz")
	out, err := os.Create(tampered)
	require.NoError(t, err)
	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)
	err = walk(path, func(hdr *tar.Header, r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if hdr.Name == "data/game.bolt" {
			data = []byte("evil-bytes")
		}
		if err := tw.WriteHeader(&tar.Header{Name: hdr.Name, Size: int64(len(data)), Mode: 0o644}); err != nil {
			return err
		}
		_, err = tw.Write(data)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, out.Close())

	dest := filepath.Join(t.TempDir(), "game.bolt")
	n, err := Restore(tampered, map[string]string{"data/game.bolt": dest})
	require.ErrorIs(t, err, ErrChecksum)
	assert.Zero(t, n)
	assert.NoFileExists(t, dest)
}

func TestRestoreReplacesNothingWhenAFileCannotBeStaged(t *testing.T) {
	path, _ := createTestArchive(t, t.TempDir())
	out := t.TempDir()
	bolt := filepath.Join(out, "game.bolt")
	writeTestFile(t, bolt, "old bolt")
	blocker := filepath.Join(out, "blocker")
	writeTestFile(t, blocker, "a file, not a directory")

	n, err := Restore(path, map[string]string{
		"data/game.bolt": bolt,
		"conf/game.yaml": filepath.Join(blocker, "game.yaml"),
	})
	require.Error(t, err)
	assert.Zero(t, n)

	got, err := os.ReadFile(bolt)
	require.NoError(t, err)
	assert.Equal(t, "old bolt", string(got))

	leftovers, err := filepath.Glob(filepath.Join(out, ".restore-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
