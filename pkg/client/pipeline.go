package client

import (
	"fmt"
	"slices"

	"github.com/usenet-go/nntp/pkg/response"
)

// Pipelining splits a command into a write half, which only buffers the
// command line, and a read half, which consumes exactly one reply. Any
// number of write halves may be queued before the reads; the Kth read gets
// the reply to the Kth write. Reads flush pending writes first.
//
//	for _, id := range ids {
//		c.HeadPipelineWrite(id)
//	}
//	for range ids {
//		r, err := c.HeadPipelineRead()
//		...
//	}
//
// A read that fails with an UnexpectedStatusError leaves the pipeline intact.
// Any other error is fatal to the connection.

// Pending returns the number of pipelined commands whose replies are unread.
func (c *Client) Pending() int {
	return len(c.pending)
}

// PipelineWrite buffers a command for v without flushing it.
func (c *Client) PipelineWrite(v Verb, args ...string) error {
	if v == VerbGreeting || v == VerbPostArticle || v == VerbPost {
		return fmt.Errorf("%w: %s cannot be pipelined", ErrInvalidArgument, v)
	}
	if err := c.send(v, args...); err != nil {
		return err
	}
	c.pending = append(c.pending, v)
	return nil
}

// PipelineRead reads the reply to the oldest pending command.
func (c *Client) PipelineRead() (*response.Response, error) {
	if len(c.pending) == 0 {
		return nil, ErrNothingPending
	}
	return c.pipelineRead(c.pending[0])
}

func (c *Client) pipelineRead(want Verb) (*response.Response, error) {
	if len(c.pending) == 0 {
		return nil, ErrNothingPending
	}
	if next := c.pending[0]; next != want {
		return nil, fmt.Errorf("%w: reading %s but next reply is for %s", ErrPipelineOrder, want, next)
	}
	if c.s.Buffered() > 0 {
		if err := c.s.Flush(); err != nil {
			return nil, c.fail(err)
		}
	}
	c.pending = c.pending[1:]
	if len(c.pending) == 0 {
		c.pending = nil
	}
	return c.read(want)
}

// ArticlePipelineWrite buffers ARTICLE id.
func (c *Client) ArticlePipelineWrite(id string) error { return c.PipelineWrite(VerbArticle, id) }

// ArticlePipelineRead reads the reply to a pipelined ARTICLE.
func (c *Client) ArticlePipelineRead() (*response.Response, error) {
	return c.pipelineRead(VerbArticle)
}

// HeadPipelineWrite buffers HEAD id. id may also be a range.
func (c *Client) HeadPipelineWrite(id string) error { return c.PipelineWrite(VerbHead, id) }

// HeadPipelineRead reads the reply to a pipelined HEAD.
func (c *Client) HeadPipelineRead() (*response.Response, error) {
	return c.pipelineRead(VerbHead)
}

// BodyPipelineWrite buffers BODY id.
func (c *Client) BodyPipelineWrite(id string) error { return c.PipelineWrite(VerbBody, id) }

// BodyPipelineRead reads the reply to a pipelined BODY.
func (c *Client) BodyPipelineRead() (*response.Response, error) {
	return c.pipelineRead(VerbBody)
}

// StatPipelineWrite buffers STAT id.
func (c *Client) StatPipelineWrite(id string) error { return c.PipelineWrite(VerbStat, id) }

// StatPipelineRead reads the reply to a pipelined STAT.
func (c *Client) StatPipelineRead() (*response.Response, error) {
	return c.pipelineRead(VerbStat)
}

// XHdrPipelineWrite buffers XHDR field rng.
func (c *Client) XHdrPipelineWrite(field, rng string) error {
	return c.PipelineWrite(VerbXHdr, field, rng)
}

// XHdrPipelineRead reads the reply to a pipelined XHDR.
func (c *Client) XHdrPipelineRead() (*response.Response, error) {
	return c.pipelineRead(VerbXHdr)
}

// XZHdrPipelineWrite buffers XZHDR rng. The reply block is returned as sent;
// decoding it is up to the caller.
func (c *Client) XZHdrPipelineWrite(rng string) error { return c.PipelineWrite(VerbXZHdr, rng) }

// XZHdrPipelineRead reads the reply to a pipelined XZHDR.
func (c *Client) XZHdrPipelineRead() (*response.Response, error) {
	return c.pipelineRead(VerbXZHdr)
}

// Result is one reply of a batch.
type Result struct {
	ID       string
	Response *response.Response
	Err      error // set for an error reply, e.g. 423 no such article
}

// MaxInFlight bounds how many HEAD requests HeadBatch writes before it
// reads their replies. Unbounded, a large batch can fill the socket buffers
// in both directions while the client is still writing.
const MaxInFlight = 100

// HeadBatch fetches the headers of every id, pipelining up to MaxInFlight
// requests per flush cycle. Error replies are reported per id; the returned
// error is set only when the connection failed, in which case the results
// read so far are returned.
func (c *Client) HeadBatch(ids []string) ([]Result, error) {
	for _, id := range ids {
		if err := VerbHead.checkArgs([]string{id}); err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(ids))
	for chunk := range slices.Chunk(ids, MaxInFlight) {
		for _, id := range chunk {
			if err := c.HeadPipelineWrite(id); err != nil {
				return results, err
			}
		}
		c.log.Debug("pipelined batch", "verb", VerbHead, "count", len(chunk))

		for _, id := range chunk {
			r, err := c.HeadPipelineRead()
			if err != nil {
				if _, ok := StatusCode(err); !ok {
					return results, err
				}
			}
			results = append(results, Result{ID: id, Response: r, Err: err})
		}
	}
	return results, nil
}
