package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDBProvider_GetPutDelete(t *testing.T) {
	p, err := NewMemLevelDBProvider()
	require.NoError(t, err)
	defer p.Close()

	value, err := p.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, p.Put([]byte("k"), []byte("v")))
	value, err = p.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	ok, err := p.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, p.Delete([]byte("k")))
	ok, err = p.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLevelDBProvider_BatchIsAtomic(t *testing.T) {
	p, err := NewMemLevelDBProvider()
	require.NoError(t, err)
	defer p.Close()

	batch := p.Batch()
	defer batch.Close()
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))

	values, err := p.GetBatch([][]byte{[]byte("a"), []byte("b")})
	require.NoError(t, err)
	assert.Empty(t, values, "batch must not be visible before Write")

	require.NoError(t, batch.Write())
	values, err = p.GetBatch([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, values)

	batch.Reset()
	batch.Delete([]byte("a"))
	require.NoError(t, batch.Write())
	value, err := p.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestLevelDBProvider_IteratePrefix(t *testing.T) {
	p, err := NewMemLevelDBProvider()
	require.NoError(t, err)
	defer p.Close()

	for _, k := range []string{"hash:1", "hash:2", "hash:3", "state:current", "ha"} {
		require.NoError(t, p.Put([]byte(k), []byte(k)))
	}

	var seen []string
	require.NoError(t, p.IteratePrefix([]byte("hash:"), func(key, value []byte) bool {
		seen = append(seen, string(key))
		return true
	}))
	assert.Equal(t, []string{"hash:1", "hash:2", "hash:3"}, seen)

	seen = nil
	require.NoError(t, p.IteratePrefix([]byte("hash:"), func(key, value []byte) bool {
		seen = append(seen, string(key))
		return len(seen) < 2
	}))
	assert.Len(t, seen, 2)
}

func TestLevelDBProvider_FileBacked(t *testing.T) {
	dir := t.TempDir()
	p, err := NewLevelDBProvider(dir)
	require.NoError(t, err)
	require.NoError(t, p.Put([]byte("k"), []byte("v")))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	reopened, err := NewLevelDBProvider(dir)
	require.NoError(t, err)
	defer reopened.Close()
	value, err := reopened.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}
