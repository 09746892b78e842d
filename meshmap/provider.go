// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshmap

import (
	"context"
	"sync"
	"time"

	"github.com/cxdcxd/armcl/armerr"
)

// Provider is the gated rendezvous described in §5: an asynchronous map
// loader builds the Tree once, and any number of consumers may block on
// WaitForStateSpace until it is ready. The signal fires exactly once.
type Provider struct {
	mu    sync.Mutex
	ready chan struct{}
	tree  *Tree
	err   error
}

// NewProvider returns a Provider with no tree yet published.
func NewProvider() *Provider {
	return &Provider{ready: make(chan struct{})}
}

// Publish makes tree visible to waiters, exactly once. A second call
// panics: the loader is only ever supposed to publish a single, complete
// tree (a partially-built tree must never become visible, per §5).
func (p *Provider) Publish(tree *Tree) {
	p.mu.Lock()
	defer p.mu.Unlock()
	armerr.Invariant(p.tree == nil, "meshmap: Publish called more than once")
	p.tree = tree
	close(p.ready)
}

// Fail records a load failure and wakes any waiters with it instead of a tree.
func (p *Provider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	armerr.Invariant(p.tree == nil, "meshmap: Fail called after a tree was already published")
	p.err = err
	close(p.ready)
}

// GetStateSpace returns the published tree, or nil if not yet ready.
// Non-blocking, matching spec's get(frame_id)-style O(1) accessor family.
func (p *Provider) GetStateSpace() *Tree {
	select {
	case <-p.ready:
		return p.tree
	default:
		return nil
	}
}

// WaitForStateSpace blocks until the tree is published, ctx is cancelled,
// or deadline elapses (zero deadline means wait forever).
func (p *Provider) WaitForStateSpace(ctx context.Context, deadline time.Duration) (*Tree, error) {
	var timeout <-chan time.Time
	if deadline > 0 {
		timer := time.NewTimer(deadline)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-p.ready:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.err != nil {
			return nil, p.err
		}
		return p.tree, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, armerr.LoadTimeout(deadline.Seconds())
	}
}
