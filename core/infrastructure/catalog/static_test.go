package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/search"
)

const sampleCatalog = `
fields:
  timestamp: date
streams:
  web:
    status: keyword
    took_ms: integer
    source: text
  billing:
    cost: long
    status: keyword
  legacy:
    took_ms: keyword
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStaticResolver_SelectedStreams(t *testing.T) {
	r, err := NewStaticResolver(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	fields, err := r.FieldTypesByStreamIDs(context.Background(), []string{"billing"}, search.RelativeRange(300))
	require.NoError(t, err)

	assert.Equal(t, []string{"cost", "status", "timestamp"}, fields.Names())
	cost, _ := fields.Get("cost")
	assert.Equal(t, fieldtypes.KindLong, cost.Kind)
}

func TestStaticResolver_MergesStreams(t *testing.T) {
	r, err := NewStaticResolver(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	fields, err := r.FieldTypesByStreamIDs(context.Background(), []string{"web", "legacy"}, search.RelativeRange(0))
	require.NoError(t, err)

	took, ok := fields.Get("took_ms")
	require.True(t, ok)
	assert.Equal(t, fieldtypes.KindString, took.Kind)
	assert.True(t, took.HasProperty(fieldtypes.PropertyTypeConflict))

	source, _ := fields.Get("source")
	assert.Equal(t, fieldtypes.KindStringFTS, source.Kind)
}

func TestStaticResolver_AllStreamsWhenNoneGiven(t *testing.T) {
	r, err := ParseStaticCatalog([]byte(sampleCatalog))
	require.NoError(t, err)

	fields, err := r.FieldTypesByStreamIDs(context.Background(), nil, search.RelativeRange(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"cost", "source", "status", "timestamp", "took_ms"}, fields.Names())
}

func TestStaticResolver_UnknownStream(t *testing.T) {
	r, err := ParseStaticCatalog([]byte(sampleCatalog))
	require.NoError(t, err)

	fields, err := r.FieldTypesByStreamIDs(context.Background(), []string{"missing"}, search.RelativeRange(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp"}, fields.Names())
}

func TestStaticResolver_KindNames(t *testing.T) {
	r, err := ParseStaticCatalog([]byte("streams:\n  s:\n    addr: ip\n    ratio: half_float\n    flag: boolean\n"))
	require.NoError(t, err)

	fields, err := r.FieldTypesByStreamIDs(context.Background(), []string{"s"}, search.RelativeRange(0))
	require.NoError(t, err)

	addr, _ := fields.Get("addr")
	ratio, _ := fields.Get("ratio")
	flag, _ := fields.Get("flag")
	assert.Equal(t, fieldtypes.KindIP, addr.Kind)
	assert.Equal(t, fieldtypes.KindFloat, ratio.Kind)
	assert.Equal(t, fieldtypes.KindBoolean, flag.Kind)
}

func TestStaticResolver_InvalidFile(t *testing.T) {
	_, err := NewStaticResolver(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseStaticCatalog([]byte("streams: [1, 2"))
	assert.Error(t, err)
}

func TestStaticResolver_CancelledContext(t *testing.T) {
	r, err := ParseStaticCatalog([]byte(sampleCatalog))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.FieldTypesByStreamIDs(ctx, nil, search.RelativeRange(0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticResolver_WatchReloads(t *testing.T) {
	path := writeCatalog(t, "streams:\n  web:\n    status: keyword\n")
	r, err := NewStaticResolver(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Watch(ctx))
	defer r.Close()

	require.NoError(t, os.WriteFile(path, []byte("streams:\n  web:\n    status: keyword\n    level: long\n"), 0o644))

	assert.Eventually(t, func() bool {
		fields, err := r.FieldTypesByStreamIDs(context.Background(), []string{"web"}, search.RelativeRange(0))
		return err == nil && fields.Has("level")
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStaticResolver_WatchKeepsCatalogOnBrokenFile(t *testing.T) {
	path := writeCatalog(t, "streams:\n  web:\n    status: keyword\n")
	r, err := NewStaticResolver(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Watch(ctx))
	defer r.Close()

	require.NoError(t, os.WriteFile(path, []byte("streams: [broken"), 0o644))
	time.Sleep(3 * reloadDebounce)

	fields, err := r.FieldTypesByStreamIDs(context.Background(), []string{"web"}, search.RelativeRange(0))
	require.NoError(t, err)
	assert.True(t, fields.Has("status"))
}

func TestStaticResolver_WatchWithoutFile(t *testing.T) {
	r, err := ParseStaticCatalog([]byte(sampleCatalog))
	require.NoError(t, err)
	assert.Error(t, r.Watch(context.Background()))
	assert.NoError(t, r.Close())
}
