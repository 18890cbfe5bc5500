package archive

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Restore verifies every file in the archive against its manifest and then
// writes the files named in dests (archive name -> destination path).
// Nothing is replaced unless every checksum matches and every file has been
// staged. It returns the number of files restored.
func Restore(archivePath string, dests map[string]string) (int, error) {
	m, err := ReadManifest(archivePath)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	err = walk(archivePath, func(hdr *tar.Header, r io.Reader) error {
		want, ok := m.Files[hdr.Name]
		if !ok {
			return nil
		}
		h := sha256.New()
		if _, err := io.Copy(h, r); err != nil {
			return fmt.Errorf("archive: read %s: %w", hdr.Name, err)
		}
		if hex.EncodeToString(h.Sum(nil)) != want.SHA256 {
			return fmt.Errorf("%w: %s", ErrChecksum, hdr.Name)
		}
		seen[hdr.Name] = true
		return nil
	})
	if err != nil {
		return 0, err
	}
	for name := range m.Files {
		if !seen[name] {
			return 0, fmt.Errorf("archive: %s listed in manifest but missing", name)
		}
	}

	// Stage every file next to its destination, then rename them all.
	type staged struct{ tmp, dest string }
	var files []staged
	discard := func() {
		for _, f := range files {
			os.Remove(f.tmp)
		}
	}
	err = walk(archivePath, func(hdr *tar.Header, r io.Reader) error {
		dest, ok := dests[hdr.Name]
		if !ok || dest == "" {
			return nil
		}
		tmp, err := stageFile(dest, r)
		if err != nil {
			return fmt.Errorf("archive: restore %s: %w", hdr.Name, err)
		}
		files = append(files, staged{tmp, dest})
		return nil
	})
	if err != nil {
		discard()
		return 0, err
	}
	for i, f := range files {
		if err := os.Rename(f.tmp, f.dest); err != nil {
			discard()
			return i, fmt.Errorf("archive: restore %s: %w", f.dest, err)
		}
	}
	return len(files), nil
}

// stageFile copies r into a temporary file in dest's directory and returns
// its name.
func stageFile(dest string, r io.Reader) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".restore-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
