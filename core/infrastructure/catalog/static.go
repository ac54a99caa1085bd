package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/infrastructure/logging"
)

const reloadDebounce = 200 * time.Millisecond

// staticFile is the layout of a catalog file:
//
//	fields:             # present in every stream
//	  timestamp: date
//	streams:
//	  000000000000000000000001:
//	    status: keyword
//	    cost: long
type staticFile struct {
	Fields  map[string]string            `yaml:"fields"`
	Streams map[string]map[string]string `yaml:"streams"`
}

// StaticResolver serves field types from a YAML file kept in memory
type StaticResolver struct {
	path string

	mu      sync.RWMutex
	common  fieldtypes.FieldTypes
	streams map[string]fieldtypes.FieldTypes

	watcher  *fsnotify.Watcher
	done     chan struct{}
	onReload []func()
}

// NewStaticResolver loads the catalog file at path
func NewStaticResolver(path string) (*StaticResolver, error) {
	r := &StaticResolver{path: path}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// ParseStaticCatalog builds a resolver from YAML content without a backing file
func ParseStaticCatalog(data []byte) (*StaticResolver, error) {
	r := &StaticResolver{}
	if err := r.load(data); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *StaticResolver) Name() string {
	return "static"
}

// FieldTypesByStreamIDs merges the fields of the given streams. An empty
// stream list selects every stream in the file. The time range is ignored.
func (r *StaticResolver) FieldTypesByStreamIDs(ctx context.Context, streamIDs []string, _ search.TimeRange) (fieldtypes.FieldTypes, error) {
	if err := checkContext(ctx); err != nil {
		return fieldtypes.FieldTypes{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.common
	if len(streamIDs) == 0 {
		for _, id := range sortedKeys(r.streams) {
			result = result.Merge(r.streams[id])
		}
		return result, nil
	}

	for _, id := range streamIDs {
		if fields, ok := r.streams[id]; ok {
			result = result.Merge(fields)
		}
	}
	return result, nil
}

func (r *StaticResolver) reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}
	if err := r.load(data); err != nil {
		return fmt.Errorf("catalog file %s: %w", r.path, err)
	}
	return nil
}

func (r *StaticResolver) load(data []byte) error {
	var file staticFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	common, err := buildFieldTypes(file.Fields)
	if err != nil {
		return fmt.Errorf("fields: %w", err)
	}

	streams := make(map[string]fieldtypes.FieldTypes, len(file.Streams))
	for id, fields := range file.Streams {
		built, err := buildFieldTypes(fields)
		if err != nil {
			return fmt.Errorf("stream '%s': %w", id, err)
		}
		streams[id] = built
	}

	r.mu.Lock()
	r.common = common
	r.streams = streams
	r.mu.Unlock()
	return nil
}

func buildFieldTypes(fields map[string]string) (fieldtypes.FieldTypes, error) {
	types := make([]fieldtypes.FieldType, 0, len(fields))
	for name, typeName := range fields {
		if name == "" {
			return fieldtypes.FieldTypes{}, fmt.Errorf("field name must not be empty")
		}
		types = append(types, fieldtypes.New(name, kindOf(typeName)))
	}
	return fieldtypes.NewFieldTypes(types...), nil
}

// Watch reloads the file whenever it changes until ctx is done or Close is
// called. A file that fails to load leaves the previous catalog in place.
func (r *StaticResolver) Watch(ctx context.Context) error {
	if r.path == "" {
		return fmt.Errorf("catalog has no backing file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	// Editors replace files by renaming, so watch the directory.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	r.mu.Lock()
	r.watcher = watcher
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	log := logging.New("catalog:static")
	target := filepath.Clean(r.path)

	go func() {
		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					if err := r.reload(); err != nil {
						log.Warnf("Catalog reload failed, keeping previous fields: %v", err)
						return
					}
					log.Infof("Reloaded catalog from %s", r.path)
					r.mu.RLock()
					listeners := r.onReload
					r.mu.RUnlock()
					for _, fn := range listeners {
						fn()
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("Catalog watcher error: %v", err)
			}
		}
	}()

	return nil
}

// OnReload registers fn to run after each successful reload by Watch
func (r *StaticResolver) OnReload(fn func()) {
	r.mu.Lock()
	r.onReload = append(r.onReload, fn)
	r.mu.Unlock()
}

// Close stops watching the file
func (r *StaticResolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher == nil {
		return nil
	}
	close(r.done)
	err := r.watcher.Close()
	r.watcher = nil
	return err
}

func sortedKeys(m map[string]fieldtypes.FieldTypes) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
