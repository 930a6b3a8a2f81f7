package cache

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want error
	}{
		{"valid", "endpoint:abc", nil},
		{"empty", "", ErrInvalidKey},
		{"whitespace", "   ", ErrInvalidKey},
		{"newline", "a\nb", ErrInvalidKey},
		{"carriage return", "a\rb", ErrInvalidKey},
		{"too long", strings.Repeat("k", MaxKeyLength+1), ErrKeyTooLong},
		{"max length", strings.Repeat("k", MaxKeyLength), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](MemoryConfig{})

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v"))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, "k"), "delete is idempotent")
}

func TestMemory_RejectsInvalidKeys(t *testing.T) {
	c := NewMemory[int](MemoryConfig{})
	assert.ErrorIs(t, c.Set(context.Background(), "", 1), ErrInvalidKey)
}

func TestMemory_Stats(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](MemoryConfig{MaximumSize: 10})

	require.NoError(t, c.Set(ctx, "a", 1))
	c.Get(ctx, "a")
	c.Get(ctx, "a")
	c.Get(ctx, "b")

	s := c.Stats()
	assert.Equal(t, uint64(2), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](MemoryConfig{MaximumSize: 100})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := "k" + strings.Repeat("x", i%5)
			_ = c.Set(ctx, key, i)
			c.Get(ctx, key)
		}()
	}
	wg.Wait()

	for i := range 5 {
		_, ok := c.Get(ctx, "k"+strings.Repeat("x", i))
		assert.True(t, ok)
	}
}

func TestInstrumented_DelegatesToWrapped(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory[string](MemoryConfig{})
	c := NewInstrumented[string](inner, "test")

	require.NoError(t, c.Set(ctx, "k", "v"))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	got, ok = inner.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}
