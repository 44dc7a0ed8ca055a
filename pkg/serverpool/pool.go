// Package serverpool connects to the first healthy news server of a
// prioritized list, with one circuit breaker per server.
package serverpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/usenet-go/nntp/pkg/client"
	"github.com/usenet-go/nntp/pkg/config"
)

// DefaultPriority is used for servers without an explicit priority.
const DefaultPriority = 100

// DefaultCooldown is how long a tripped server is skipped.
const DefaultCooldown = 30 * time.Second

// Connector opens an authenticated session to one server.
type Connector func(ctx context.Context, s config.Server) (*client.Client, error)

// Pool hands out connections from servers in priority order. Higher
// priorities are tried first, round-robin within the same priority. A
// server whose breaker is open is skipped until its cooldown ends.
type Pool struct {
	mu sync.Mutex

	// servers sorted by priority (highest first)
	servers []config.Server

	// breakers parallel to servers (same index)
	breakers []*gobreaker.CircuitBreaker[*client.Client]

	// tiers groups server indices by priority, sorted descending
	tiers [][]int

	// tierIndex tracks round-robin position within each priority tier
	tierIndex map[int]int

	connect Connector
	log     *slog.Logger
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	settings gobreaker.Settings
	log      *slog.Logger
}

// WithCooldown sets how long a failed server is skipped.
func WithCooldown(d time.Duration) Option {
	return func(o *options) {
		o.settings.Timeout = d
	}
}

// WithSettings replaces the breaker settings. IsSuccessful is kept unless
// set.
func WithSettings(s gobreaker.Settings) Option {
	return func(o *options) {
		if s.IsSuccessful == nil {
			s.IsSuccessful = o.settings.IsSuccessful
		}
		o.settings = s
	}
}

// WithLogger sets the logger for failover and breaker state changes.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// New creates a Pool over servers. A server's breaker trips on its first
// connection failure; authentication rejections never trip it.
func New(servers []config.Server, connect Connector, opts ...Option) *Pool {
	o := &options{
		settings: gobreaker.Settings{
			Timeout: DefaultCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 1
			},
			IsSuccessful: func(err error) bool {
				return err == nil || IsAuthError(err)
			},
		},
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}

	sorted := make([]config.Server, len(servers))
	copy(sorted, servers)
	for i := range sorted {
		if sorted[i].Priority == 0 {
			sorted[i].Priority = DefaultPriority
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	p := &Pool{
		servers:   sorted,
		breakers:  make([]*gobreaker.CircuitBreaker[*client.Client], len(sorted)),
		tierIndex: make(map[int]int),
		connect:   connect,
		log:       o.log,
	}
	for i, s := range sorted {
		settings := o.settings
		settings.Name = s.Endpoint().String()
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			p.log.Info("server state changed", "server", name, "from", from.String(), "to", to.String())
		}
		p.breakers[i] = gobreaker.NewCircuitBreaker[*client.Client](settings)
	}
	p.tiers = groupByPriority(sorted)
	return p
}

// groupByPriority groups server indices into tiers. Input must be sorted by
// priority descending.
func groupByPriority(servers []config.Server) [][]int {
	var tiers [][]int
	for i, s := range servers {
		if i == 0 || s.Priority != servers[i-1].Priority {
			tiers = append(tiers, nil)
		}
		tiers[len(tiers)-1] = append(tiers[len(tiers)-1], i)
	}
	return tiers
}

// AllUnavailableError indicates every server is unavailable.
type AllUnavailableError struct {
	LastError error
}

func (e *AllUnavailableError) Error() string {
	if e.LastError != nil {
		return fmt.Sprintf("all servers unavailable, last error: %v", e.LastError)
	}
	return "all servers unavailable"
}

func (e *AllUnavailableError) Unwrap() error {
	return e.LastError
}

// IsAuthError reports whether err is the server rejecting AUTHINFO, or
// credentials too incomplete to send. Such errors are returned at once:
// another server would not accept the same credentials either.
func IsAuthError(err error) bool {
	if errors.Is(err, client.ErrInvalidArgument) {
		return true
	}
	var use *client.UnexpectedStatusError
	if !errors.As(err, &use) {
		return false
	}
	return use.Verb == client.VerbAuthinfoUser || use.Verb == client.VerbAuthinfoPass
}

// Connect returns a session from the first server that accepts one.
// Servers that fail are skipped and the next is tried. Returns
// AllUnavailableError when no server is left.
func (p *Pool) Connect(ctx context.Context) (*client.Client, error) {
	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		idx := p.next()
		if idx < 0 {
			return nil, &AllUnavailableError{LastError: lastErr}
		}
		server := p.servers[idx]
		breaker := p.breakers[idx]

		c, err := breaker.Execute(func() (*client.Client, error) {
			return p.connect(ctx, server)
		})
		if err == nil {
			p.log.Debug("connected", "server", server.Endpoint().String())
			return c, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			lastErr = err
			continue
		}
		if breaker.State() == gobreaker.StateOpen {
			p.log.Warn("server failed, trying next", "server", server.Endpoint().String(), "error", err)
			lastErr = err
			continue
		}
		return nil, err
	}
}

// next returns the index of the next available server, or -1.
func (p *Pool) next() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, tier := range p.tiers {
		priority := p.servers[tier[0]].Priority
		start := p.tierIndex[priority]

		for i := range tier {
			pos := (start + i) % len(tier)
			idx := tier[pos]
			if p.breakers[idx].State() != gobreaker.StateOpen {
				p.tierIndex[priority] = (pos + 1) % len(tier)
				return idx
			}
		}
	}
	return -1
}

// AllUnavailable reports whether every server's breaker is open.
func (p *Pool) AllUnavailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, b := range p.breakers {
		if b.State() != gobreaker.StateOpen {
			return false
		}
	}
	return true
}

// Len returns the number of servers.
func (p *Pool) Len() int {
	return len(p.servers)
}
