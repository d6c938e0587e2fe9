package objstore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "input/skin-cancer/mole.png", ObjectPath("skin-cancer", "mole.png"))
	assert.Equal(t, "input/medical-records/report 2024.pdf", ObjectPath("medical-records", "report 2024.pdf"))
	assert.Equal(t, "input/lung-cancer/", ServicePrefix("lung-cancer"))
}

func TestMemoryStore_PutAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Put(ctx, Object{
		Path:        "input/skin-cancer/a.png",
		ContentType: "image/png",
		Metadata:    map[string]string{"k": "v"},
	}, strings.NewReader("png-bytes"))
	require.NoError(t, err)

	data, info, err := s.Get("input/skin-cancer/a.png")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, int64(9), info.Size)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, "v", info.Metadata["k"])
}

func TestMemoryStore_PutOverwrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	obj := Object{Path: "input/skin-cancer/a.png"}

	require.NoError(t, s.Put(ctx, obj, strings.NewReader("one")))
	require.NoError(t, s.Put(ctx, obj, strings.NewReader("two")))

	data, _, err := s.Get(obj.Path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestMemoryStore_EmptyPath(t *testing.T) {
	s := NewMemoryStore()
	err := s.Put(context.Background(), Object{Path: "  "}, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Put(ctx, Object{Path: "input/x/y"}, strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = s.Get("input/x/y")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStore_ListByPrefix(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, p := range []string{
		"input/lung-cancer/b.dcm",
		"input/lung-cancer/a.dcm",
		"input/skin-cancer/c.png",
	} {
		require.NoError(t, s.Put(ctx, Object{Path: p}, strings.NewReader(p)))
	}

	got, err := s.List(ctx, ServicePrefix("lung-cancer"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "input/lung-cancer/a.dcm", got[0].Path)
	assert.Equal(t, "input/lung-cancer/b.dcm", got[1].Path)

	none, err := s.List(ctx, ServicePrefix("tuberculosis"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpenFirebaseBucket_RequiresBucket(t *testing.T) {
	_, err := OpenFirebaseBucket(context.Background(), FirebaseOptions{ProjectID: "diag-dev"})
	assert.ErrorIs(t, err, ErrNoBucket)
}
