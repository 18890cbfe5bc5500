package statdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// seedFile is the layout of a stat-definition YAML file.
type seedFile struct {
	Stats []gamedb.StatDef `yaml:"stats"`
}

// ImportYAML loads every definition in the YAML file at path into the
// registry and returns how many were imported.
func (r *Registry) ImportYAML(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("statdb: read %s: %w", path, err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("statdb: parse %s: %w", path, err)
	}
	if err := r.Put(ctx, seed.Stats...); err != nil {
		return 0, err
	}
	r.logger.Info("imported stat definitions", zap.String("file", path), zap.Int("count", len(seed.Stats)))
	return len(seed.Stats), nil
}

// Watch re-imports path whenever it is written or replaced. It blocks until
// ctx is cancelled. A file that fails to parse is logged and the previous
// definitions stay in effect.
func (r *Registry) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("statdb: start watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are seen.
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("statdb: watch %s: %w", dir, err)
	}
	r.logger.Info("watching stat definitions", zap.String("file", path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Base(event.Name) != name {
				continue
			}
			if _, err := r.ImportYAML(ctx, path); err != nil {
				r.logger.Warn("stat definition reload failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("stat definition watcher error", zap.Error(err))
		}
	}
}
