package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	InitRedis(mr.Addr())
	t.Cleanup(func() { client = nil })
	return mr
}

func TestGetSetJSON_RoundTrip(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	in := payload{Name: "quorum", Count: 3}
	require.NoError(t, SetJSON(ctx, "k", in, time.Minute))

	var out payload
	found, err := GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	found, err = GetJSON(ctx, "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAside_CachesFetchResult(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			fetches++
			*dest = payload{Name: "fetched", Count: fetches}
			return nil
		}
	}

	var first payload
	require.NoError(t, Aside(ctx, "user:1", &first, time.Minute, fetch(&first)))
	assert.Equal(t, 1, fetches)

	// Second read is a cache hit; fetch must not run again.
	var second payload
	require.NoError(t, Aside(ctx, "user:1", &second, time.Minute, fetch(&second)))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, first, second)
}

func TestAside_ExpiryRefetches(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	fetches := 0
	var dest payload
	fetch := func() error {
		fetches++
		dest = payload{Name: "v", Count: fetches}
		return nil
	}

	require.NoError(t, Aside(ctx, "k", &dest, time.Second, fetch))
	mr.FastForward(2 * time.Second)
	require.NoError(t, Aside(ctx, "k", &dest, time.Second, fetch))
	assert.Equal(t, 2, fetches)
}

func TestAside_NoClientFallsThrough(t *testing.T) {
	client = nil
	ctx := context.Background()

	fetches := 0
	var dest payload
	fetch := func() error {
		fetches++
		return nil
	}

	require.NoError(t, Aside(ctx, "k", &dest, time.Minute, fetch))
	require.NoError(t, Aside(ctx, "k", &dest, time.Minute, fetch))
	assert.Equal(t, 2, fetches)
}

func TestInvalidateUser(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey(9), payload{Name: "stale"}, time.Minute))
	InvalidateUser(ctx, 9)

	var out payload
	found, err := GetJSON(ctx, UserKey(9), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInitRedis_InvalidURL(t *testing.T) {
	InitRedis("redis://bad url with spaces")
	assert.Nil(t, GetClient())
}
