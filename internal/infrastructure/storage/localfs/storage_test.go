package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpen(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	s, err := New(base)
	require.NoError(t, err)

	key := "ba7816bf8f01cfea"
	require.NoError(t, s.Save(context.Background(), key, strings.NewReader("image-bytes")))

	_, err = os.Stat(filepath.Join(base, "ba", key))
	require.NoError(t, err, "object must live in its shard directory")

	rc, err := s.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(raw))

	entries, err := os.ReadDir(filepath.Join(base, "ba"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestRejectsUnsafeKeys(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../etc/passwd", "a/b", `a\b`, ".hidden"} {
		assert.Error(t, s.Save(context.Background(), key, strings.NewReader("x")), "key %q", key)
		_, err := s.Open(context.Background(), key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = s.Open(context.Background(), "missing")
	assert.Error(t, err)
}
