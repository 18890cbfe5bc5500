package archive

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Info holds metadata about an existing archive file.
type Info struct {
	Path      string
	Size      int64
	Timestamp string // from the manifest, or the file mod time
	MudName   string
	Objects   int
}

// List scans dir for archives, newest first. Archives without a readable
// manifest are still listed.
func List(dir string) ([]Info, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.tar.gz"))
	if err != nil {
		return nil, fmt.Errorf("archive: list %s: %w", dir, err)
	}
	var out []Info
	for _, p := range matches {
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		info := Info{Path: p, Size: st.Size(), Timestamp: st.ModTime().UTC().Format("2006-01-02T15:04:05Z")}
		if m, err := ReadManifest(p); err == nil {
			info.Timestamp, info.MudName, info.Objects = m.Timestamp, m.MudName, m.Objects
		}
		out = append(out, info)
	}
	// RFC3339 in UTC sorts lexically
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

// ReadManifest returns the manifest of the archive at path.
func ReadManifest(path string) (*Manifest, error) {
	var m *Manifest
	err := walk(path, func(hdr *tar.Header, r io.Reader) error {
		if hdr.Name != manifestName {
			return nil
		}
		m = new(Manifest)
		return json.NewDecoder(r).Decode(m)
	})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("archive: manifest not found")
	}
	return m, nil
}

// walk calls fn for each regular file in the archive.
func walk(path string, fn func(*tar.Header, io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", path, err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("archive: %s: %w", path, err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("archive: %s: %w", path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}
