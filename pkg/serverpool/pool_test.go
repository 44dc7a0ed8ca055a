package serverpool

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usenet-go/nntp/pkg/client"
	"github.com/usenet-go/nntp/pkg/config"
)

var errRefused = errors.New("connection refused")

// idle is a transport that never carries data.
type idle struct{ bytes.Buffer }

func fakeClient() *client.Client {
	return client.New(&idle{})
}

func authRejected() error {
	return &client.UnexpectedStatusError{Verb: client.VerbAuthinfoPass, Expected: 281, Actual: 481, Line: "481 authentication failed"}
}

func servers(hosts ...string) []config.Server {
	out := make([]config.Server, len(hosts))
	for i, h := range hosts {
		out[i] = config.Server{Host: h}
	}
	return out
}

func TestConnect_SingleServer(t *testing.T) {
	pool := New(servers("news1.example.com"), func(ctx context.Context, s config.Server) (*client.Client, error) {
		require.Equal(t, "news1.example.com", s.Host)
		return fakeClient(), nil
	})

	c, err := pool.Connect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestConnect_PriorityOrder(t *testing.T) {
	list := []config.Server{
		{Host: "low.example.com", Priority: 50},
		{Host: "high.example.com", Priority: 200},
		{Host: "default.example.com"},
	}

	var calls []string
	pool := New(list, func(ctx context.Context, s config.Server) (*client.Client, error) {
		calls = append(calls, s.Host)
		return nil, errRefused
	})

	_, err := pool.Connect(context.Background())
	var all *AllUnavailableError
	require.ErrorAs(t, err, &all)
	require.ErrorIs(t, err, errRefused)
	require.Equal(t, []string{"high.example.com", "default.example.com", "low.example.com"}, calls)
	require.True(t, pool.AllUnavailable())
}

func TestConnect_Failover(t *testing.T) {
	list := []config.Server{
		{Host: "primary.example.com", Priority: 100},
		{Host: "backup.example.com", Priority: 50},
	}

	var calls []string
	pool := New(list, func(ctx context.Context, s config.Server) (*client.Client, error) {
		calls = append(calls, s.Host)
		if s.Host == "primary.example.com" {
			return nil, errRefused
		}
		return fakeClient(), nil
	})

	_, err := pool.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"primary.example.com", "backup.example.com"}, calls)

	// The primary's breaker is open, so it is skipped.
	calls = nil
	_, err = pool.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"backup.example.com"}, calls)
}

func TestConnect_NoFailoverOnAuthError(t *testing.T) {
	list := []config.Server{
		{Host: "primary.example.com", Priority: 100},
		{Host: "backup.example.com", Priority: 50},
	}

	var calls []string
	pool := New(list, func(ctx context.Context, s config.Server) (*client.Client, error) {
		calls = append(calls, s.Host)
		return nil, authRejected()
	})

	_, err := pool.Connect(context.Background())
	require.True(t, IsAuthError(err))
	require.Equal(t, []string{"primary.example.com"}, calls)
	require.False(t, pool.AllUnavailable())
}

func TestConnect_RoundRobinWithinTier(t *testing.T) {
	var hosts []string
	pool := New(servers("a", "b", "c"), func(ctx context.Context, s config.Server) (*client.Client, error) {
		hosts = append(hosts, s.Host)
		return fakeClient(), nil
	})
	for range 6 {
		_, err := pool.Connect(context.Background())
		require.NoError(t, err)
	}

	require.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, hosts)
}

func TestConnect_Recovery(t *testing.T) {
	down := true
	pool := New(servers("news.example.com"), func(ctx context.Context, s config.Server) (*client.Client, error) {
		if down {
			return nil, errRefused
		}
		return fakeClient(), nil
	}, WithCooldown(50*time.Millisecond))

	_, err := pool.Connect(context.Background())
	require.Error(t, err)
	require.True(t, pool.AllUnavailable())

	time.Sleep(100 * time.Millisecond)
	down = false

	_, err = pool.Connect(context.Background())
	require.NoError(t, err)
}

func TestConnect_EmptyPool(t *testing.T) {
	pool := New(nil, func(ctx context.Context, s config.Server) (*client.Client, error) {
		t.Fatal("should not be called")
		return nil, nil
	})

	_, err := pool.Connect(context.Background())
	var all *AllUnavailableError
	require.ErrorAs(t, err, &all)
	require.Zero(t, pool.Len())
}

func TestConnect_CanceledContext(t *testing.T) {
	pool := New(servers("news.example.com"), func(ctx context.Context, s config.Server) (*client.Client, error) {
		return fakeClient(), nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Connect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConnect_ConcurrentSafety(t *testing.T) {
	pool := New(servers("a", "b"), func(ctx context.Context, s config.Server) (*client.Client, error) {
		return fakeClient(), nil
	})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Connect(context.Background())
			require.NoError(t, err)
		}()
	}
	wg.Wait()
}
