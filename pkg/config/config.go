package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/usenet-go/nntp/pkg/tlsconfig"
	"github.com/usenet-go/nntp/pkg/transport"
)

//go:embed schema.cue
var schemaSource string

// Config is the client configuration file.
type Config struct {
	Servers       []Server `json:"servers"`
	Auth          Auth     `json:"auth"`
	Compress      bool     `json:"compress"`
	RawBlocks     bool     `json:"raw_blocks"`
	DialTimeout   string   `json:"dial_timeout"`
	MaxBlockBytes int      `json:"max_block_bytes"`
}

// Server is one news server. Higher Priority values are tried first;
// zero means the pool default.
type Server struct {
	Host       string `json:"host"`
	Port       int    `json:"port,omitempty"`
	TLS        bool   `json:"tls"`
	Priority   int    `json:"priority"`
	Insecure   bool   `json:"insecure"`
	CACertFile string `json:"ca_cert_file,omitempty"`
	ServerName string `json:"server_name,omitempty"`
}

// Auth names the environment variables holding AUTHINFO credentials.
type Auth struct {
	UserEnv string `json:"user_env"`
	PassEnv string `json:"pass_env"`
}

// Load reads and unifies the files matching patterns (YAML, JSON, CUE files
// or CUE directories), fills in defaults and validates the result.
func Load(patterns ...string) (*Config, error) {
	ctx := cuecontext.New()
	val, err := loadAndUnify(ctx, patterns)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(ctx, val)
	if err != nil {
		return nil, err
	}
	if len(cfg.Servers) == 0 {
		return nil, errors.New("config: at least one server is required")
	}
	return cfg, nil
}

// Default returns a configuration with every default set and no servers.
func Default() *Config {
	ctx := cuecontext.New()
	cfg, err := decode(ctx, ctx.CompileString("{}"))
	if err != nil {
		panic(fmt.Sprintf("config: schema defaults do not decode: %v", err))
	}
	return cfg
}

func decode(ctx *cue.Context, val cue.Value) (*Config, error) {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config: schema: %w", err)
	}

	merged := schema.Unify(val)
	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}

	var cfg Config
	if err := merged.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err := cfg.Timeout(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Timeout parses DialTimeout.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.DialTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: dial_timeout %q: %w", c.DialTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: dial_timeout %q must be positive", c.DialTimeout)
	}
	return d, nil
}

// Credentials reads the AUTHINFO user and password from the environment.
// ok is false when the user variable is unset or empty.
func (c *Config) Credentials() (user, pass string, ok bool) {
	user = os.Getenv(c.Auth.UserEnv)
	pass = os.Getenv(c.Auth.PassEnv)
	return user, pass, user != ""
}

// Endpoint returns the dial address of s, using the default port for the
// scheme when Port is unset.
func (s Server) Endpoint() transport.Endpoint {
	ep := transport.Endpoint{Host: s.Host, Port: s.Port, TLS: s.TLS}
	if ep.Port == 0 {
		ep.Port = transport.PortPlain
		if s.TLS {
			ep.Port = transport.PortTLS
		}
	}
	return ep
}

// TLSConfig returns the TLS options of s.
func (s Server) TLSConfig() tlsconfig.Config {
	return tlsconfig.Config{
		Insecure:   s.Insecure,
		CACertFile: s.CACertFile,
		ServerName: s.ServerName,
	}
}
