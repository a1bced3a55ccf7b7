// Package mock provides a test double for the feedback.Creator interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxprep/voxprep/internal/feedback"
)

// Creator is a mock implementation of feedback.Creator that records every
// Create call. Set Err to inject a failure.
type Creator struct {
	mu sync.Mutex

	// Err, if non-nil, is returned from every Create call.
	Err error

	// CreateCalls records every Create request in order.
	CreateCalls []feedback.Request
}

// Compile-time interface check.
var _ feedback.Creator = (*Creator)(nil)

// Create implements feedback.Creator.
func (c *Creator) Create(_ context.Context, req feedback.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CreateCalls = append(c.CreateCalls, req)
	return c.Err
}

// CallCount returns the number of Create invocations so far.
func (c *Creator) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.CreateCalls)
}
