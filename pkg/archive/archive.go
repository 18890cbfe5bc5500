// Package archive writes and restores checksummed .tar.gz snapshots of the
// game's data files.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"
)

const manifestName = "manifest.json"

// ErrChecksum is returned by Restore when an archived file does not match
// its manifest entry.
var ErrChecksum = errors.New("archive: checksum mismatch")

// Manifest describes the contents of an archive.
type Manifest struct {
	Version   int                  `json:"version"`
	Server    string               `json:"server"`
	Timestamp string               `json:"timestamp"`
	MudName   string               `json:"mud_name"`
	Objects   int                  `json:"objects"`
	Files     map[string]FileEntry `json:"files"`
}

// FileEntry describes a single file within the archive.
type FileEntry struct {
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
	Kind   string `json:"kind"` // "bolt", "statdefs", "conf"
}

// Source is one file to archive. Snapshot, when set, writes a consistent
// copy to dest; otherwise Path is copied as is.
type Source struct {
	Name     string // slash-separated name inside the archive
	Kind     string
	Path     string
	Snapshot func(dest string) error
}

// Params holds all inputs needed to create an archive.
type Params struct {
	Dir     string // output directory
	Server  string
	MudName string
	Objects int
	Sources []Source
	Now     func() time.Time // nil = time.Now
}

// Create writes an archive of every source into p.Dir and returns its path.
// Sources with neither a snapshot nor an existing path are skipped.
func Create(p Params) (string, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("archive: create dir %s: %w", p.Dir, err)
	}
	stage, err := os.MkdirTemp("", "rpkit-archive-*")
	if err != nil {
		return "", fmt.Errorf("archive: create temp dir: %w", err)
	}
	defer os.RemoveAll(stage)

	ts := now().UTC()
	manifest := Manifest{
		Version:   1,
		Server:    p.Server,
		Timestamp: ts.Format(time.RFC3339),
		MudName:   p.MudName,
		Objects:   p.Objects,
		Files:     make(map[string]FileEntry),
	}

	archivePath := filepath.Join(p.Dir, "archive-"+ts.Format("20060102-150405")+".tar.gz")
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("archive: create %s: %w", archivePath, err)
	}
	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	err = func() error {
		for i, src := range p.Sources {
			file := src.Path
			if src.Snapshot != nil {
				file = filepath.Join(stage, fmt.Sprintf("%d-%s", i, path.Base(src.Name)))
				if err := src.Snapshot(file); err != nil {
					return fmt.Errorf("archive: snapshot %s: %w", src.Name, err)
				}
			} else if _, err := os.Stat(file); file == "" || err != nil {
				continue
			}
			entry, err := addFile(tw, file, src.Name)
			if err != nil {
				return err
			}
			entry.Kind = src.Kind
			manifest.Files[src.Name] = entry
		}
		data, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return fmt.Errorf("archive: marshal manifest: %w", err)
		}
		if err := tw.WriteHeader(&tar.Header{Name: manifestName, Size: int64(len(data)), Mode: 0o644, ModTime: ts}); err != nil {
			return fmt.Errorf("archive: manifest header: %w", err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("archive: write manifest: %w", err)
		}
		return nil
	}()

	err = errors.Join(err, tw.Close(), gw.Close(), out.Close())
	if err != nil {
		os.Remove(archivePath)
		return "", err
	}
	return archivePath, nil
}

// addFile copies srcPath into the archive as name, hashing it on the way.
func addFile(tw *tar.Writer, srcPath, name string) (FileEntry, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return FileEntry{}, fmt.Errorf("archive: open %s: %w", srcPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FileEntry{}, fmt.Errorf("archive: stat %s: %w", srcPath, err)
	}
	if err := tw.WriteHeader(&tar.Header{Name: name, Size: info.Size(), Mode: 0o644, ModTime: info.ModTime()}); err != nil {
		return FileEntry{}, fmt.Errorf("archive: header %s: %w", name, err)
	}
	h := sha256.New()
	n, err := io.Copy(tw, io.TeeReader(f, h))
	if err != nil {
		return FileEntry{}, fmt.Errorf("archive: write %s: %w", name, err)
	}
	return FileEntry{SHA256: hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}
