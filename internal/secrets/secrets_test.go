package secrets

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	values map[string][]byte
	err    error
}

func (f *fakeFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	value, ok := f.values[name]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return value, nil
}

func TestCacheFetchesOnce(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string][]byte{"token": []byte("s3cr3t")}}
	cache := NewCache(fetcher)

	for range 3 {
		value, err := cache.Get(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, []byte("s3cr3t"), value)
	}

	assert.Equal(t, 1, fetcher.calls)
}

func TestCacheErrorNotCached(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("unavailable")}
	cache := NewCache(fetcher)

	_, err := cache.Get(context.Background(), "token")
	require.Error(t, err)

	fetcher.err = nil
	fetcher.values = map[string][]byte{"token": []byte("late")}

	value, err := cache.Get(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("late"), value)
	assert.Equal(t, 2, fetcher.calls)
}

func TestCacheConcurrentAccess(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string][]byte{"a": []byte("1"), "b": []byte("2")}}
	cache := NewCache(fetcher)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.Get(context.Background(), "a")
			_, _ = cache.Get(context.Background(), "b")
		}()
	}
	wg.Wait()

	value, err := cache.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)
}
