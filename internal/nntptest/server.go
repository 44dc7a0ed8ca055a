// Package nntptest runs scripted NNTP servers for tests.
//
// A Server answers each command line with the reply registered for it.
// Replies to commands that arrive together are written back together, so a
// pipelined client sees several responses in one read.
package nntptest

import (
	"bufio"
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"log/slog"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/lmittmann/tint"
)

// DefaultGreeting is sent on connect unless overridden.
const DefaultGreeting = "200 nntptest ready, posting allowed\r\n"

// HandlerFunc returns the raw reply to a command line (without CRLF). ok
// false falls through to the next handler.
type HandlerFunc func(cmd string) (reply string, ok bool)

// Server is a scripted NNTP server listening on 127.0.0.1.
type Server struct {
	ln    net.Listener
	log   *slog.Logger
	caPEM []byte

	mu       sync.Mutex
	greeting string
	replies  map[string]string
	handlers []HandlerFunc
	commands []string
	articles [][]byte
	accepted int
	open     map[net.Conn]struct{}

	wg sync.WaitGroup
}

// Start starts a plain server. It is closed when the test ends.
func Start(t testing.TB) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("nntptest: listen: %v", err)
	}
	return serve(t, ln)
}

// StartTLS starts a server speaking TLS with a fresh self-signed
// certificate for 127.0.0.1. CACertPEM returns the certificate to trust.
func StartTLS(t testing.TB) *Server {
	t.Helper()
	cert, caPEM := selfSigned(t)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
	ln, err := tls.Listen("tcp", "127.0.0.1:0", cfg)
	if err != nil {
		t.Fatalf("nntptest: listen: %v", err)
	}
	s := serve(t, ln)
	s.caPEM = caPEM
	return s
}

func serve(t testing.TB, ln net.Listener) *Server {
	s := &Server{
		greeting: DefaultGreeting,
		ln:       ln,
		log:      Logger(t).With("component", "nntptest"),
		replies:  map[string]string{},
		open:     map[net.Conn]struct{}{},
	}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// Logger returns a debug logger writing to the test output.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(tint.NewHandler(t.Output(), &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "15:04:05",
	}))
}

// Addr returns "127.0.0.1:port".
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// CACertPEM returns the PEM certificate of a TLS server, nil otherwise.
func (s *Server) CACertPEM() []byte {
	return s.caPEM
}

// CertPool returns a pool trusting a TLS server's certificate.
func (s *Server) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(s.caPEM)
	return pool
}

// SetGreeting replaces the banner sent to new connections. A banner that
// is not 200 or 201 is followed by a disconnect.
func (s *Server) SetGreeting(g string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.greeting = g
}

// Handle registers the raw reply for an exact command line.
func (s *Server) Handle(cmd, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[cmd] = reply
}

// HandleFunc registers a handler consulted when no exact reply matches.
func (s *Server) HandleFunc(fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Commands returns every command line received so far, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Articles returns the articles received through POST, still dot-stuffed.
func (s *Server) Articles() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.articles...)
}

// Connections returns the number of accepted connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Close stops the listener, drops open connections and waits for their
// handlers to return.
func (s *Server) Close() {
	s.ln.Close()
	s.mu.Lock()
	for c := range s.open {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Error("accept", "error", err)
			}
			return
		}
		s.mu.Lock()
		s.accepted++
		s.open[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.open, conn)
		s.mu.Unlock()
	}()
	_ = conn.SetDeadline(time.Now().Add(30 * time.Second))

	s.mu.Lock()
	greeting := s.greeting
	s.mu.Unlock()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(greeting); err != nil {
		return
	}
	if err := w.Flush(); err != nil {
		return
	}
	if !strings.HasPrefix(greeting, "20") {
		return
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSuffix(line, "\r\n")
		s.log.Debug("command", "line", cmd)

		reply := s.reply(cmd)
		if strings.HasPrefix(cmd, "POST") && strings.HasPrefix(reply, "340") {
			w.WriteString(reply)
			w.Flush()
			article, err := readArticle(r)
			if err != nil {
				return
			}
			s.mu.Lock()
			s.articles = append(s.articles, article)
			s.mu.Unlock()
			reply = s.reply("<article>")
		}
		w.WriteString(reply)

		if strings.HasPrefix(cmd, "QUIT") {
			w.Flush()
			return
		}
		// Replies to commands that arrived together go out together.
		if r.Buffered() == 0 {
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}

func (s *Server) reply(cmd string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	if reply, ok := s.replies[cmd]; ok {
		return reply
	}
	for _, h := range s.handlers {
		if reply, ok := h(cmd); ok {
			return reply
		}
	}
	switch {
	case cmd == "QUIT":
		return "205 closing connection\r\n"
	case cmd == "<article>":
		return "240 article received\r\n"
	}
	return "500 unknown command\r\n"
}

func readArticle(r *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return nil, err
		}
		if bytes.Equal(line, []byte(".\r\n")) {
			return buf.Bytes(), nil
		}
		buf.Write(line)
	}
}

// Block builds a multiline reply: the status line, each line dot-stuffed
// and CRLF terminated, then the terminator.
func Block(status string, lines ...string) string {
	var b strings.Builder
	b.WriteString(status)
	b.WriteString("\r\n")
	for _, l := range lines {
		if strings.HasPrefix(l, ".") {
			b.WriteByte('.')
		}
		b.WriteString(l)
		b.WriteString("\r\n")
	}
	b.WriteString(".\r\n")
	return b.String()
}

// Compressed builds a reply whose block is sent as a zlib stream, the way
// servers do after XFEATURE COMPRESS GZIP TERMINATOR: the terminator line
// is inside the compressed data.
func Compressed(status string, lines ...string) string {
	block := strings.TrimPrefix(Block("", lines...), "\r\n")
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write([]byte(block))
	zw.Close()
	return status + "\r\n" + buf.String()
}

func selfSigned(t testing.TB) (tls.Certificate, []byte) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("nntptest: generate key: %v", err)
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "nntptest"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1)},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("nntptest: create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatalf("nntptest: marshal key: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("nntptest: key pair: %v", err)
	}
	return cert, certPEM
}
