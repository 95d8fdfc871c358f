package grid

import (
	"context"
	"sync"
)

// ResultCollector accumulates the partial results of a dispatch.
type ResultCollector interface {
	AddResult(member MemberID, result any)
	AddError(member MemberID, err error)
	EndResults()
	// Results blocks until EndResults is called or ctx is done.
	Results(ctx context.Context) ([]any, error)
}

// DefaultResultCollector keeps results in arrival order and reports the first remote error.
type DefaultResultCollector struct {
	mu      sync.Mutex
	results []any
	err     error
	ended   bool
	done    chan struct{}
}

// NewDefaultResultCollector creates an empty collector.
func NewDefaultResultCollector() *DefaultResultCollector {
	return &DefaultResultCollector{done: make(chan struct{})}
}

// NewDefaultResultCollectorFactory is a collector factory suitable for templates.
func NewDefaultResultCollectorFactory() func() ResultCollector {
	return func() ResultCollector {
		return NewDefaultResultCollector()
	}
}

// AddResult records a partial result. Results added after EndResults are dropped.
func (c *DefaultResultCollector) AddResult(member MemberID, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return
	}
	c.results = append(c.results, result)
}

// AddError records a remote failure. Only the first one is kept.
func (c *DefaultResultCollector) AddError(member MemberID, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended || c.err != nil {
		return
	}
	c.err = err
}

// EndResults marks the collector complete. It is safe to call more than once.
func (c *DefaultResultCollector) EndResults() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return
	}
	c.ended = true
	close(c.done)
}

// Results waits for completion and returns a copy of the collected results.
func (c *DefaultResultCollector) Results(ctx context.Context) ([]any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]any(nil), c.results...), nil
}

// Done reports whether EndResults has been called.
func (c *DefaultResultCollector) Done() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
