// Package confirm mediates yes/no prompts between an action that needs
// user approval and whatever surface presents the question. At most one
// question is outstanding at a time.
package confirm

import (
	"context"
	"sync"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
)

// Request is one outstanding question. The responder answers exactly once
// via Respond.
type Request struct {
	Prompt string
	answer chan bool
	once   sync.Once
}

// Respond delivers the user's answer. Extra calls are ignored.
func (r *Request) Respond(ok bool) {
	r.once.Do(func() {
		r.answer <- ok
		close(r.answer)
	})
}

// Confirmer serializes confirmation prompts. Ask blocks until the single
// responder answers or the context ends; a second Ask while one is
// outstanding fails immediately with common.ErrConfirmationPending.
type Confirmer struct {
	mu       sync.Mutex
	pending  bool
	requests chan *Request
}

func New() *Confirmer {
	return &Confirmer{requests: make(chan *Request, 1)}
}

// Requests is consumed by the presenting surface. Each received request
// must be answered with Respond.
func (c *Confirmer) Requests() <-chan *Request {
	return c.requests
}

// Ask poses the question and waits for the answer. It returns false with
// a nil error when the user declines, and ctx.Err() when the context ends
// before an answer arrives.
func (c *Confirmer) Ask(ctx context.Context, prompt string) (bool, error) {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return false, common.ErrConfirmationPending
	}
	c.pending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	req := &Request{Prompt: prompt, answer: make(chan bool, 1)}

	select {
	case c.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case ok := <-req.answer:
		return ok, nil
	case <-ctx.Done():
		// retract the prompt if no responder picked it up yet, so the
		// dead question cannot be answered later; a late Respond lands
		// in the buffered channel and is dropped
		select {
		case <-c.requests:
		default:
		}
		return false, ctx.Err()
	}
}
