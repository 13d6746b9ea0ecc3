package metacache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-watcher/internal/models"
)

func TestCache_PutGet(t *testing.T) {
	c := New(time.Minute, time.Minute)

	meta := models.AssetMetadata{Mint: "mint-a", Symbol: "FOO", ImageURL: "https://img/foo.png"}
	c.Put("mint-a", meta)

	got, ok := c.Get("mint-a")
	require.True(t, ok)
	assert.Equal(t, meta, got)

	_, ok = c.Get("mint-b")
	assert.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.PutTTL("mint-a", models.AssetMetadata{Mint: "mint-a", Symbol: "FOO"}, 20*time.Millisecond)

	_, ok := c.Get("mint-a")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("mint-a")
	assert.False(t, ok, "entry must be absent after its TTL has passed")
}

func TestCache_Partition(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.Put("mint-a", models.AssetMetadata{Mint: "mint-a", Symbol: "FOO"})
	c.Put("mint-c", models.AssetMetadata{Mint: "mint-c", Symbol: "BAR"})

	hits, misses := c.Partition([]string{"mint-a", "mint-b", "mint-c", "mint-d"})

	assert.Len(t, hits, 2)
	assert.Equal(t, "FOO", hits["mint-a"].Symbol)
	assert.Equal(t, "BAR", hits["mint-c"].Symbol)
	assert.Equal(t, []string{"mint-b", "mint-d"}, misses)
}

func TestCache_Size(t *testing.T) {
	c := New(time.Minute, time.Minute)
	assert.Equal(t, 0, c.Size())

	c.Put("mint-a", models.AssetMetadata{Mint: "mint-a"})
	c.Put("mint-b", models.AssetMetadata{Mint: "mint-b"})
	assert.Equal(t, 2, c.Size())
}
