package connector

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/sdkruntime/sdkerr"
)

func newGet(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestHTTP_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "busy")
	}))
	defer srv.Close()

	c := NewHTTP(HTTPConfig{})
	resp, err := c.Call(context.Background(), newGet(t, srv.URL))
	require.NoError(t, err, "5xx is a response, not an error")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "busy", string(body))
}

func TestHTTP_DoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	resp, err := NewHTTP(HTTPConfig{DisableTracing: true}).Call(context.Background(), newGet(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestHTTP_InvalidRequest(t *testing.T) {
	_, err := NewHTTP(HTTPConfig{}).Call(context.Background(), newGet(t, "/relative"))

	var ce *sdkerr.ConnectorError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, sdkerr.ConnectorUser, ce.Kind)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestHTTP_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHTTP(HTTPConfig{}).Call(ctx, newGet(t, srv.URL))
	var ce *sdkerr.ConnectorError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.IsTimeout())
}

func TestHTTP_ConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = NewHTTP(HTTPConfig{DisableTracing: true}).Call(context.Background(), newGet(t, "http://"+addr))
	var ce *sdkerr.ConnectorError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.IsIO())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want sdkerr.ConnectorErrorKind
	}{
		{"deadline", context.DeadlineExceeded, sdkerr.ConnectorTimeout},
		{"canceled", context.Canceled, sdkerr.ConnectorOther},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, sdkerr.ConnectorIO},
		{"unexpected eof", io.ErrUnexpectedEOF, sdkerr.ConnectorIO},
		{"dns", &net.DNSError{Err: "no such host", Name: "x"}, sdkerr.ConnectorIO},
		{"other", errors.New("boom"), sdkerr.ConnectorOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ce *sdkerr.ConnectorError
			require.True(t, errors.As(Classify(tt.err), &ce))
			assert.Equal(t, tt.want, ce.Kind)
			assert.ErrorIs(t, ce, tt.err)
		})
	}

	assert.NoError(t, Classify(nil))

	already := &sdkerr.ConnectorError{Kind: sdkerr.ConnectorUser, Err: errors.New("x")}
	assert.Same(t, already, Classify(already))
}

func okConnector(status int) Func {
	return func(context.Context, *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: status, Body: http.NoBody}, nil
	}
}

func failingConnector() Func {
	return func(context.Context, *http.Request) (*http.Response, error) {
		return nil, &sdkerr.ConnectorError{Kind: sdkerr.ConnectorIO, Err: syscall.ECONNRESET}
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(failingConnector(), BreakerConfig{Threshold: 3, OpenTimeout: time.Hour})
	req := newGet(t, "http://example.com")

	for range 3 {
		_, err := b.Call(context.Background(), req)
		assert.ErrorIs(t, err, syscall.ECONNRESET)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Call(context.Background(), req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	var ce *sdkerr.ConnectorError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.IsRejected())
	assert.Equal(t, `connector rejected error: connector: circuit breaker is open (breaker "connector")`, err.Error())
}

func TestBreaker_InnerRejectionIsNotAFailure(t *testing.T) {
	full := Func(func(context.Context, *http.Request) (*http.Response, error) {
		return nil, &sdkerr.ConnectorError{Kind: sdkerr.ConnectorRejected, Err: ErrBulkheadFull}
	})
	b := NewBreaker(full, BreakerConfig{Threshold: 1})

	for range 3 {
		_, err := b.Call(context.Background(), newGet(t, "http://example.com"))
		assert.ErrorIs(t, err, ErrBulkheadFull)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_ServerErrors(t *testing.T) {
	b := NewBreaker(okConnector(http.StatusInternalServerError), BreakerConfig{Threshold: 2})
	req := newGet(t, "http://example.com")

	for range 3 {
		resp, err := b.Call(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	assert.Equal(t, "closed", b.State(), "5xx does not trip by default")

	tripping := NewBreaker(okConnector(http.StatusInternalServerError), BreakerConfig{Threshold: 2, TripOnServerError: true})
	for range 2 {
		resp, err := tripping.Call(context.Background(), req)
		require.NoError(t, err, "the response is still returned")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	assert.Equal(t, "open", tripping.State())
}

func TestBreaker_CancellationIsNotAFailure(t *testing.T) {
	canceled := Func(func(context.Context, *http.Request) (*http.Response, error) {
		return nil, &sdkerr.ConnectorError{Kind: sdkerr.ConnectorOther, Err: context.Canceled}
	})
	b := NewBreaker(canceled, BreakerConfig{Threshold: 1})

	for range 3 {
		_, err := b.Call(context.Background(), newGet(t, "http://example.com"))
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	blocking := Func(func(context.Context, *http.Request) (*http.Response, error) {
		entered <- struct{}{}
		<-release
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})

	b := NewBulkhead(blocking, BulkheadConfig{MaxConcurrent: 2})
	req := newGet(t, "http://example.com")

	var wg sync.WaitGroup
	for range 2 {
		wg.Go(func() {
			_, err := b.Call(context.Background(), req)
			assert.NoError(t, err)
		})
	}
	<-entered
	<-entered

	_, err := b.Call(context.Background(), req)
	assert.ErrorIs(t, err, ErrBulkheadFull)
	var ce *sdkerr.ConnectorError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.IsRejected())

	m := b.Metrics()
	assert.Equal(t, 2, m.Active)
	assert.Equal(t, int64(1), m.Rejected)

	close(release)
	wg.Wait()
	assert.Equal(t, 0, b.Metrics().Active)
	assert.Equal(t, 2, b.Metrics().MaxActive)
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(okConnector(http.StatusOK), BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})

	for range 3 {
		resp, err := b.Call(context.Background(), newGet(t, "http://example.com"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 1, b.Metrics().Available)
}

func TestBulkhead_ContextCancelledWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	blocking := Func(func(context.Context, *http.Request) (*http.Response, error) {
		close(entered)
		<-release
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	b := NewBulkhead(blocking, BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Minute})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = b.Call(context.Background(), newGet(t, "http://example.com"))
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Call(ctx, newGet(t, "http://example.com"))
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
}
