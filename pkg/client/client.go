// Package client implements NNTP commands on top of a framed stream.
//
// A Client drives one connection and is not safe for concurrent use. Every
// command checks the reply code against the codes its verb accepts and only
// then reads the multiline block, so an error reply never desynchronizes the
// connection. Commands can also be pipelined: see HeadPipelineWrite.
package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/usenet-go/nntp/pkg/capabilities"
	"github.com/usenet-go/nntp/pkg/response"
	"github.com/usenet-go/nntp/pkg/stream"
	"github.com/usenet-go/nntp/pkg/transport"
)

// Client is an NNTP session over one transport.
type Client struct {
	s          *stream.Stream
	streamOpts []stream.Option
	log        *slog.Logger
	raw        bool

	caps     capabilities.Set
	greeting *response.Response
	pending  []Verb // pipelined commands awaiting their replies, oldest first
	err      error  // sticky fatal error
}

// New wraps an established transport. The greeting has not been read yet;
// call ReadGreeting first.
func New(t stream.Transport, opts ...Option) *Client {
	c := &Client{}
	for _, o := range opts {
		o.apply(c)
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	c.s = stream.New(t, append([]stream.Option{stream.WithLogger(c.log)}, c.streamOpts...)...)
	return c
}

// Dial connects to addr ("host" or "host:port", port 119 by default) and
// reads the greeting.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	ep, err := transport.ParseEndpoint(addr, false)
	if err != nil {
		return nil, err
	}
	return DialEndpoint(ctx, &transport.Dialer{}, ep, opts...)
}

// DialTLS connects to addr over TLS (port 563 by default) and reads the
// greeting. cfg may be nil.
func DialTLS(ctx context.Context, addr string, cfg *tls.Config, opts ...Option) (*Client, error) {
	ep, err := transport.ParseEndpoint(addr, true)
	if err != nil {
		return nil, err
	}
	return DialEndpoint(ctx, &transport.Dialer{TLSConfig: cfg}, ep, opts...)
}

// DialEndpoint connects with d and reads the greeting. The context deadline,
// if any, also bounds the greeting read.
func DialEndpoint(ctx context.Context, d *transport.Dialer, ep transport.Endpoint, opts ...Option) (*Client, error) {
	conn, err := d.Dial(ctx, ep)
	if err != nil {
		return nil, err
	}

	c := New(conn, opts...)
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	if _, err := c.ReadGreeting(); err != nil {
		conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	return c, nil
}

// ReadGreeting reads the server banner, 200 (posting allowed) or 201.
func (c *Client) ReadGreeting() (*response.Response, error) {
	r, err := c.read(VerbGreeting)
	if err != nil {
		return nil, err
	}
	c.greeting = r
	return r, nil
}

// PostingAllowed reports whether the greeting or the last MODE READER reply
// was 200.
func (c *Client) PostingAllowed() bool {
	return c.greeting != nil && c.greeting.Code() == 200
}

// Close closes the transport without sending QUIT.
func (c *Client) Close() error {
	if c.err == ErrClosed {
		return nil
	}
	c.err = ErrClosed
	return c.s.Close()
}

// Quit sends QUIT and closes the transport.
func (c *Client) Quit() error {
	_, err := c.do(VerbQuit)
	cerr := c.Close()
	if err != nil {
		return err
	}
	return cerr
}

// Stats returns the stream counters.
func (c *Client) Stats() stream.Stats {
	return c.s.Stats()
}

// Capabilities returns the set from the last DiscoverCapabilities call.
func (c *Client) Capabilities() capabilities.Set {
	return c.caps
}

// DiscoverCapabilities sends CAPABILITIES and replaces the known set with
// the reply.
func (c *Client) DiscoverCapabilities() (capabilities.Set, error) {
	r, err := c.do(VerbCapabilities)
	if err != nil {
		return nil, err
	}
	c.caps = capabilities.ParseBlock(r.Block())
	c.log.Debug("capabilities", "count", len(c.caps), "version", c.caps.Version())
	return c.caps, nil
}

// Can reports whether the last discovered capability set advertises want.
// It is false before DiscoverCapabilities.
func (c *Client) Can(want capabilities.Capability) bool {
	return c.caps.Can(want)
}

// Authenticate runs AUTHINFO USER and, unless the server accepts the user
// alone, AUTHINFO PASS.
func (c *Client) Authenticate(user, pass string) error {
	r, err := c.do(VerbAuthinfoUser, user)
	if err != nil {
		return err
	}
	if r.Code() == 281 {
		return nil
	}
	_, err = c.do(VerbAuthinfoPass, pass)
	return err
}

// EnableCompression negotiates XFEATURE COMPRESS GZIP. TERMINATOR is
// requested when advertised. Every following block is decoded as zlib.
func (c *Client) EnableCompression() error {
	if !c.Can(capabilities.WithCompression(capabilities.GZIP)) {
		return fmt.Errorf("%w: XFEATURE-COMPRESS GZIP", ErrNotSupported)
	}
	var arg string
	if c.Can(capabilities.WithCompression(capabilities.Terminator)) {
		arg = string(capabilities.Terminator)
	}
	if _, err := c.do(VerbCompress, arg); err != nil {
		return err
	}
	c.s.EnableCompression()
	return nil
}

// ModeReader sends MODE READER. The reply updates PostingAllowed.
func (c *Client) ModeReader() (*response.Response, error) {
	r, err := c.do(VerbModeReader)
	if err != nil {
		return nil, err
	}
	c.greeting = r
	return r, nil
}

// List sends LIST with optional keyword and arguments, e.g. List("ACTIVE", "comp.*").
func (c *Client) List(args ...string) (*response.Response, error) {
	return c.do(VerbList, args...)
}

// Group selects a newsgroup. Use GroupStats on the reply for the counts.
func (c *Client) Group(name string) (*response.Response, error) {
	return c.do(VerbGroup, name)
}

// ListGroup lists article numbers of group, optionally limited to rng.
// An empty group uses the selected one.
func (c *Client) ListGroup(group, rng string) (*response.Response, error) {
	if group == "" && rng != "" {
		return nil, fmt.Errorf("%w: range without group", ErrInvalidArgument)
	}
	return c.do(VerbListGroup, group, rng)
}

// Article fetches an article by number or message-id. An empty id selects
// the current article.
func (c *Client) Article(id string) (*response.Response, error) {
	return c.do(VerbArticle, id)
}

// Head fetches the headers of an article.
func (c *Client) Head(id string) (*response.Response, error) {
	return c.do(VerbHead, id)
}

// Body fetches the body of an article.
func (c *Client) Body(id string) (*response.Response, error) {
	return c.do(VerbBody, id)
}

// Stat checks an article exists and selects it.
func (c *Client) Stat(id string) (*response.Response, error) {
	return c.do(VerbStat, id)
}

// Next moves to the next article in the group.
func (c *Client) Next() (*response.Response, error) {
	return c.do(VerbNext)
}

// Last moves to the previous article in the group.
func (c *Client) Last() (*response.Response, error) {
	return c.do(VerbLast)
}

// Over fetches overview lines for rng (empty for the current article).
func (c *Client) Over(rng string) (*response.Response, error) {
	return c.do(VerbOver, rng)
}

// XOver is the pre-RFC 3977 form of Over.
func (c *Client) XOver(rng string) (*response.Response, error) {
	return c.do(VerbXOver, rng)
}

// XHdr fetches one header field for rng.
func (c *Client) XHdr(field, rng string) (*response.Response, error) {
	return c.do(VerbXHdr, field, rng)
}

// Help fetches the server's help text.
func (c *Client) Help() (*response.Response, error) {
	return c.do(VerbHelp)
}

// Date returns the server's clock.
func (c *Client) Date() (time.Time, error) {
	r, err := c.do(VerbDate)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(r.Message()))
	if err != nil {
		return time.Time{}, &response.MalformedError{Line: r.Line(), Reason: "date is not yyyymmddhhmmss"}
	}
	return t, nil
}

const (
	dateLayout  = "20060102150405"
	sinceLayout = "20060102 150405"
)

// NewGroups lists groups created since t.
func (c *Client) NewGroups(since time.Time) (*response.Response, error) {
	return c.do(VerbNewGroups, since.UTC().Format(sinceLayout), "GMT")
}

// NewNews lists message-ids of articles posted to groups matching wildmat
// since t.
func (c *Client) NewNews(wildmat string, since time.Time) (*response.Response, error) {
	return c.do(VerbNewNews, wildmat, since.UTC().Format(sinceLayout), "GMT")
}

// Post sends an article. article holds headers, a blank line and the body;
// lines starting with "." are escaped on the wire.
func (c *Client) Post(article []byte) (*response.Response, error) {
	if _, err := c.do(VerbPost); err != nil {
		return nil, err
	}
	if err := c.s.WriteBlock(article); err != nil {
		return nil, c.fail(err)
	}
	if err := c.s.Flush(); err != nil {
		return nil, c.fail(err)
	}
	return c.read(VerbPostArticle)
}

// do runs a simple command: write, flush, read one reply.
func (c *Client) do(v Verb, args ...string) (*response.Response, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.pending) > 0 {
		return nil, fmt.Errorf("%w: %s issued with %d pipelined replies unread", ErrPipelineOrder, v, len(c.pending))
	}
	if err := c.send(v, args...); err != nil {
		return nil, err
	}
	if err := c.s.Flush(); err != nil {
		return nil, c.fail(err)
	}
	return c.read(v)
}

// send buffers the command line for v.
func (c *Client) send(v Verb, args ...string) error {
	if c.err != nil {
		return c.err
	}
	if err := v.checkArgs(args); err != nil {
		return err
	}
	if v.redacted() {
		c.log.Debug("command", "verb", v)
	} else {
		c.log.Debug("command", "verb", v, "args", args)
	}
	if err := c.s.WriteCommandString(v.command(args...)); err != nil {
		return c.fail(err)
	}
	return nil
}

// read consumes one reply to v. The block is read only when the code is
// v's block-bearing success code.
func (c *Client) read(v Verb) (*response.Response, error) {
	if c.err != nil {
		return nil, c.err
	}
	line, err := c.s.ReadResponseLine()
	if err != nil {
		return nil, c.fail(err)
	}
	st, err := response.ParseStatus(line)
	if err != nil {
		return nil, c.fail(err)
	}
	if !v.Accepts(st.Code) {
		c.log.Debug("unexpected status", "verb", v, "code", st.Code, "message", st.Message)
		return nil, &UnexpectedStatusError{
			Verb:     v,
			Expected: v.Code(),
			Actual:   st.Code,
			Line:     strings.TrimSuffix(line, "\r\n"),
		}
	}

	var block []byte
	if v.HasBlock(st.Code) {
		block, err = c.s.ReadBlock()
		if err != nil {
			return nil, c.fail(err)
		}
		if !c.raw {
			block = stream.Unstuff(block)
		}
	}

	r, err := response.New(line, block)
	if err != nil {
		return nil, c.fail(err)
	}
	c.log.Debug("response", "verb", v, "response", r)
	return r, nil
}

// fail records err as the connection's fatal error when it is one.
func (c *Client) fail(err error) error {
	if fatal(err) {
		c.err = fmt.Errorf("nntp: connection unusable: %w", err)
		c.log.Debug("connection failed", "error", err)
		return c.err
	}
	return err
}

// Number formats an article number for use as an id.
func Number(n int64) string {
	return fmt.Sprint(n)
}

// Range formats an article range "from-to". A to below from means open
// ended ("from-").
func Range(from, to int64) string {
	if to < from {
		return fmt.Sprintf("%d-", from)
	}
	return fmt.Sprintf("%d-%d", from, to)
}
