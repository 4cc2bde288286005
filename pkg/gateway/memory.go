package gateway

import (
	"context"
	"errors"
	"sync"
)

var ErrGatewayUnavailable = errors.New("gateway unavailable")

// MemoryGateway accepts every submission and keeps it in order. Used for
// dry runs and tests; Fail makes the following submissions return an error.
type MemoryGateway struct {
	mu          sync.Mutex
	submissions []*Submission
	failWith    error
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{}
}

func (g *MemoryGateway) Submit(ctx context.Context, submission *Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return g.failWith
	}
	copied := *submission
	copied.Payload = append([]byte(nil), submission.Payload...)
	g.submissions = append(g.submissions, &copied)
	return nil
}

// Fail sets the error returned by later submissions. nil restores success.
func (g *MemoryGateway) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWith = err
}

func (g *MemoryGateway) Submissions() []*Submission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Submission(nil), g.submissions...)
}

func (g *MemoryGateway) Last() *Submission {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.submissions) == 0 {
		return nil
	}
	return g.submissions[len(g.submissions)-1]
}
