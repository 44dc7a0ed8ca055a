// Package tlsconfig builds TLS client configuration for news server
// connections.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config holds TLS options for connecting to a news server.
type Config struct {
	// Insecure disables certificate verification.
	// NOT RECOMMENDED FOR PRODUCTION USE.
	Insecure bool

	// CACertFile is path to a PEM file containing trusted CA certificates.
	// If empty, system CA certificates are used.
	CACertFile string

	// ServerName overrides the name verified against the server
	// certificate. If empty, the dialed host is used.
	ServerName string
}

// NewClientConfig creates a tls.Config from cfg. TLS 1.2 is the minimum
// version.
func NewClientConfig(cfg Config) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: cfg.ServerName,
	}

	if cfg.Insecure {
		tlsCfg.InsecureSkipVerify = true
	}

	if cfg.CACertFile != "" {
		caCert, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file %q: %w", cfg.CACertFile, err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate file %q: no valid certificates found", cfg.CACertFile)
		}

		tlsCfg.RootCAs = caCertPool
	}

	return tlsCfg, nil
}

// Enabled reports whether cfg carries any TLS setting, which implies the
// connection should use TLS even without an explicit flag.
func (c Config) Enabled() bool {
	return c.Insecure || c.CACertFile != "" || c.ServerName != ""
}
