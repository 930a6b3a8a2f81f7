package interceptor

import (
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContext_OutputAndError(t *testing.T) {
	ic := NewContext("input")
	assert.Equal(t, "input", ic.Input())
	assert.Equal(t, PhaseBeforeSerialization, ic.Phase())

	ic.SetError(errors.New("boom"))
	assert.True(t, ic.Failed())

	ic.SetError(nil)
	assert.True(t, ic.Failed(), "SetError(nil) keeps the recorded error")

	ic.SetOutput("ok")
	assert.False(t, ic.Failed())
	assert.Equal(t, "ok", ic.Output())

	ic.ReplaceError(errors.New("again"))
	ic.ReplaceError(nil)
	assert.False(t, ic.Failed())
}

func TestContext_ResetAttempt(t *testing.T) {
	ic := NewContext(nil)
	ic.SetResponse(&http.Response{StatusCode: 500})
	ic.SetError(errors.New("server error"))
	Set(ic.Properties(), AttemptsKey, 2)

	ic.ResetAttempt()

	assert.Nil(t, ic.Response())
	assert.Nil(t, ic.Err())
	assert.Equal(t, 2, ic.Attempts(), "properties survive attempt resets")
}

func TestProperties_TypedKeys(t *testing.T) {
	p := NewProperties()
	skew := NewKey[time.Duration]("skew")
	other := NewKey[time.Duration]("skew")

	Set(p, skew, 3*time.Second)

	got, ok := Get(p, skew)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, got)

	_, ok = Get(p, other)
	assert.False(t, ok, "keys compare by identity, not name")
	assert.Equal(t, time.Second, GetOr(p, other, time.Second))

	Delete(p, skew)
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, "skew", skew.String())
}

func TestProperties_ConcurrentAccess(t *testing.T) {
	p := NewProperties()
	key := NewKey[int]("n")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			Set(p, key, i)
			_, _ = Get(p, key)
		}(i)
	}
	wg.Wait()

	_, ok := Get(p, key)
	assert.True(t, ok)
}
