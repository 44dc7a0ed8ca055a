// Package transport dials the plain and TLS connections NNTP runs over.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Well-known NNTP ports.
const (
	PortPlain = 119
	PortTLS   = 563
)

// DefaultTimeout bounds connection setup when Dialer.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Endpoint is a news server address.
type Endpoint struct {
	Host string
	Port int
	TLS  bool
}

// ParseEndpoint parses "host" or "host:port". Without a port, 563 is used
// when useTLS is set and 119 otherwise.
func ParseEndpoint(addr string, useTLS bool) (Endpoint, error) {
	ep := Endpoint{Host: addr, TLS: useTLS}
	if host, port, err := net.SplitHostPort(addr); err == nil {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return Endpoint{}, fmt.Errorf("invalid port in %q", addr)
		}
		ep.Host, ep.Port = host, p
	}
	if ep.Host == "" {
		return Endpoint{}, fmt.Errorf("missing host in %q", addr)
	}
	if ep.Port == 0 {
		ep.Port = PortPlain
		if useTLS {
			ep.Port = PortTLS
		}
	}
	return ep, nil
}

// Address returns "host:port".
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	if e.TLS {
		return "nntps://" + e.Address()
	}
	return "nntp://" + e.Address()
}

// HandshakeError reports a failed TLS handshake. The TCP connection was
// established and has been closed.
type HandshakeError struct {
	Addr string
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("TLS handshake with %s: %v", e.Addr, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// Dialer opens connections to endpoints.
type Dialer struct {
	// Timeout bounds TCP connect plus TLS handshake. Reads and writes after
	// that have no deadline unless the caller sets one on the conn.
	Timeout time.Duration

	// TLSConfig is used for TLS endpoints. ServerName defaults to the
	// endpoint host. May be nil.
	TLSConfig *tls.Config
}

// Dial connects to ep. TLS endpoints are returned as *tls.Conn after a
// completed handshake; plain endpoints as the TCP conn.
func (d *Dialer) Dial(ctx context.Context, ep Endpoint) (net.Conn, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	nd := &net.Dialer{}
	conn, err := nd.DialContext(ctx, "tcp", ep.Address())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", ep, err)
	}
	if !ep.TLS {
		return conn, nil
	}

	cfg := &tls.Config{}
	if d.TLSConfig != nil {
		cfg = d.TLSConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = ep.Host
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, &HandshakeError{Addr: ep.Address(), Err: err}
	}
	return tlsConn, nil
}
