package catalog

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/parser"
	apperrors "github.com/hyperterse/querycheck/core/shared/errors"
)

type fakeBackend struct {
	name   string
	fields fieldtypes.FieldTypes
	err    error
	calls  atomic.Int32
	closed atomic.Bool
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) FieldTypesByStreamIDs(context.Context, []string, search.TimeRange) (fieldtypes.FieldTypes, error) {
	f.calls.Add(1)
	if f.err != nil {
		return fieldtypes.FieldTypes{}, f.err
	}
	return f.fields, nil
}

func (f *fakeBackend) Close() error {
	f.closed.Store(true)
	return nil
}

func backendWith(name string, types ...fieldtypes.FieldType) *fakeBackend {
	return &fakeBackend{name: name, fields: fieldtypes.NewFieldTypes(types...)}
}

func TestCachingResolver_ServesRepeatedLookups(t *testing.T) {
	backend := backendWith("fake", fieldtypes.New("status", fieldtypes.KindString))
	cached, err := NewCachingResolver(backend, time.Minute)
	require.NoError(t, err)
	defer cached.Close()

	for i := 0; i < 3; i++ {
		fields, err := cached.FieldTypesByStreamIDs(context.Background(), []string{"a", "b"}, search.RelativeRange(300))
		require.NoError(t, err)
		assert.True(t, fields.Has("status"))
	}
	assert.Equal(t, int32(1), backend.calls.Load())

	_, err = cached.FieldTypesByStreamIDs(context.Background(), []string{"b", "a"}, search.RelativeRange(300))
	require.NoError(t, err)
	assert.Equal(t, int32(1), backend.calls.Load(), "stream order must not matter")

	_, err = cached.FieldTypesByStreamIDs(context.Background(), []string{"a"}, search.RelativeRange(300))
	require.NoError(t, err)
	_, err = cached.FieldTypesByStreamIDs(context.Background(), []string{"a", "b"}, search.KeywordRange("today"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), backend.calls.Load())

	cached.Invalidate()
	_, err = cached.FieldTypesByStreamIDs(context.Background(), []string{"a", "b"}, search.RelativeRange(300))
	require.NoError(t, err)
	assert.Equal(t, int32(4), backend.calls.Load())
}

func TestCachingResolver_DoesNotCacheFailures(t *testing.T) {
	backend := &fakeBackend{name: "fake", err: errors.New("down")}
	cached, err := NewCachingResolver(backend, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := cached.FieldTypesByStreamIDs(context.Background(), nil, search.RelativeRange(0))
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), backend.calls.Load())

	require.NoError(t, cached.Close())
	assert.True(t, backend.closed.Load())
	assert.Equal(t, "fake", cached.Name())
}

func TestCompositeResolver_Merges(t *testing.T) {
	a := backendWith("a", fieldtypes.New("status", fieldtypes.KindString), fieldtypes.New("cost", fieldtypes.KindLong))
	b := backendWith("b", fieldtypes.New("level", fieldtypes.KindInt), fieldtypes.New("cost", fieldtypes.KindDouble))

	composite := NewCompositeResolver(a, b)
	fields, err := composite.FieldTypesByStreamIDs(context.Background(), nil, search.RelativeRange(0))
	require.NoError(t, err)

	assert.Equal(t, []string{"cost", "level", "status"}, fields.Names())
	cost, _ := fields.Get("cost")
	assert.True(t, cost.HasProperty(fieldtypes.PropertyTypeConflict))
	assert.Equal(t, "a+b", composite.Name())
}

func TestCompositeResolver_StrictFailure(t *testing.T) {
	composite := NewCompositeResolver(backendWith("a"), &fakeBackend{name: "b", err: errors.New("timeout")})

	_, err := composite.FieldTypesByStreamIDs(context.Background(), nil, search.RelativeRange(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog 'b': timeout")
}

func TestFallbackResolver_ToleratesFailure(t *testing.T) {
	fallback := NewFallbackResolver(&fakeBackend{name: "postgres", err: errors.New("refused")}, backendWith("static", fieldtypes.New("status", fieldtypes.KindString)))

	fields, err := fallback.FieldTypesByStreamIDs(context.Background(), nil, search.RelativeRange(0))
	require.NoError(t, err)
	assert.True(t, fields.Has("status"))
}

func TestFallbackResolver_AllFail(t *testing.T) {
	fallback := NewFallbackResolver(&fakeBackend{name: "a", err: errors.New("one")}, &fakeBackend{name: "b", err: errors.New("two")})

	_, err := fallback.FieldTypesByStreamIDs(context.Background(), nil, search.RelativeRange(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one")
	assert.Contains(t, err.Error(), "two")
}

func TestCompositeResolver_CloseClosesAll(t *testing.T) {
	a, b := backendWith("a"), backendWith("b")
	require.NoError(t, NewCompositeResolver(a, b).Close())
	assert.True(t, a.closed.Load())
	assert.True(t, b.closed.Load())
}

func TestNewResolver_Static(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolver, err := NewResolver(ctx, parser.CatalogConfig{Backend: parser.BackendStatic, StaticFile: path, CacheTTL: time.Minute})
	require.NoError(t, err)
	defer resolver.Close()

	assert.IsType(t, &CachingResolver{}, resolver)
	assert.Equal(t, "static", resolver.Name())

	fields, err := resolver.FieldTypesByStreamIDs(ctx, []string{"billing"}, search.RelativeRange(0))
	require.NoError(t, err)
	assert.True(t, fields.Has("cost"))
}

func TestNewResolver_StaticReloadInvalidatesCache(t *testing.T) {
	path := writeCatalog(t, "streams:\n  web:\n    status: keyword\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolver, err := NewResolver(ctx, parser.CatalogConfig{Backend: parser.BackendStatic, StaticFile: path, CacheTTL: time.Hour})
	require.NoError(t, err)
	defer resolver.Close()

	fields, err := resolver.FieldTypesByStreamIDs(ctx, []string{"web"}, search.RelativeRange(0))
	require.NoError(t, err)
	require.False(t, fields.Has("level"))

	require.NoError(t, os.WriteFile(path, []byte("streams:\n  web:\n    status: keyword\n    level: long\n"), 0o644))

	assert.Eventually(t, func() bool {
		fields, err := resolver.FieldTypesByStreamIDs(ctx, []string{"web"}, search.RelativeRange(0))
		return err == nil && fields.Has("level")
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewResolver_Errors(t *testing.T) {
	_, err := NewResolver(context.Background(), parser.CatalogConfig{Backend: "elastic"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfiguration, apperrors.AsAppError(err).Code)

	_, err = NewResolver(context.Background(), parser.CatalogConfig{Backend: parser.BackendStatic})
	require.Error(t, err)

	_, err = NewResolver(context.Background(), parser.CatalogConfig{Backend: parser.BackendPostgres, ConnectionString: "not a dsn ::"})
	require.Error(t, err)
}
